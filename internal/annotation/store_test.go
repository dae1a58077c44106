package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framenote-backend/internal/geometry"
)

const testProjectID int64 = 1

func seededStore(t *testing.T, duration float64) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	s.SeedProject(testProjectID, duration)
	return s
}

func TestAddAssignsIDAndCreatedAt(t *testing.T) {
	s := seededStore(t, 600)

	c, err := s.Add(context.Background(), testProjectID, Draft{
		AuthorID:   7,
		AuthorName: "mina",
		Text:       "logo is off-center here",
		Timestamp:  12.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, 12.5, c.Timestamp)
	assert.False(t, c.Resolved)
	assert.Nil(t, c.DrawingData)
}

func TestAddRejectsEmptyText(t *testing.T) {
	s := seededStore(t, 600)

	_, err := s.Add(context.Background(), testProjectID, Draft{Text: "   ", Timestamp: 3})
	assert.True(t, IsValidation(err))

	// Store unchanged after the rejection.
	comments, err := s.List(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddRejectsDegenerateStroke(t *testing.T) {
	s := seededStore(t, 600)

	_, err := s.Add(context.Background(), testProjectID, Draft{
		Text:      "see the circle",
		Timestamp: 3,
		Drawing: geometry.Drawing{
			{Color: "#ff3b30", Width: 4, Points: []geometry.Point{{X: 0.5, Y: 0.5}}},
		},
	})
	assert.True(t, IsValidation(err))
}

func TestAddClampsTimestampIntoVideo(t *testing.T) {
	s := seededStore(t, 600)

	c, err := s.Add(context.Background(), testProjectID, Draft{Text: "late", Timestamp: 700})
	require.NoError(t, err)
	assert.Equal(t, 600.0, c.Timestamp)

	c, err = s.Add(context.Background(), testProjectID, Draft{Text: "early", Timestamp: -5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Timestamp)
}

func TestAddUnknownProject(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Add(context.Background(), 99, Draft{Text: "hello", Timestamp: 1})
	assert.True(t, IsNotFound(err))
}

func TestAddPersistsDrawingPayload(t *testing.T) {
	s := seededStore(t, 600)

	drawing := geometry.Drawing{
		{Color: "#ff3b30", Width: 4, Points: []geometry.Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}},
	}
	c, err := s.Add(context.Background(), testProjectID, Draft{
		Text:      "circle the logo",
		Timestamp: 42,
		Drawing:   drawing,
	})
	require.NoError(t, err)
	require.NotNil(t, c.DrawingData)

	back, err := geometry.UnmarshalDrawing([]byte(*c.DrawingData))
	require.NoError(t, err)
	assert.Equal(t, drawing, back)
}

func TestListOrdersByTimestampThenCreatedAt(t *testing.T) {
	s := seededStore(t, 600)
	ctx := context.Background()

	// Inserted out of timeline order on purpose.
	c3, err := s.Add(ctx, testProjectID, Draft{Text: "third", Timestamp: 90})
	require.NoError(t, err)
	c1, err := s.Add(ctx, testProjectID, Draft{Text: "first", Timestamp: 10})
	require.NoError(t, err)
	c2a, err := s.Add(ctx, testProjectID, Draft{Text: "second-a", Timestamp: 45})
	require.NoError(t, err)
	c2b, err := s.Add(ctx, testProjectID, Draft{Text: "second-b", Timestamp: 45})
	require.NoError(t, err)

	comments, err := s.List(ctx, testProjectID)
	require.NoError(t, err)
	require.Len(t, comments, 4)
	assert.Equal(t, c1.ID, comments[0].ID)
	// Equal timestamps break ties by insertion time, stably.
	assert.Equal(t, c2a.ID, comments[1].ID)
	assert.Equal(t, c2b.ID, comments[2].ID)
	assert.Equal(t, c3.ID, comments[3].ID)
}

func TestSetResolvedIdempotent(t *testing.T) {
	s := seededStore(t, 600)
	ctx := context.Background()

	c, err := s.Add(ctx, testProjectID, Draft{Text: "fix this", Timestamp: 5})
	require.NoError(t, err)

	require.NoError(t, s.SetResolved(ctx, testProjectID, c.ID, true))
	require.NoError(t, s.SetResolved(ctx, testProjectID, c.ID, true))

	comments, err := s.List(ctx, testProjectID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, comments[0].Resolved)

	// Only the resolved field moved.
	assert.Equal(t, c.Text, comments[0].Text)
	assert.Equal(t, c.Timestamp, comments[0].Timestamp)

	require.NoError(t, s.SetResolved(ctx, testProjectID, c.ID, false))
	comments, err = s.List(ctx, testProjectID)
	require.NoError(t, err)
	assert.False(t, comments[0].Resolved)
}

func TestSetResolvedUnknownComment(t *testing.T) {
	s := seededStore(t, 600)

	err := s.SetResolved(context.Background(), testProjectID, "no-such-id", true)
	assert.True(t, IsNotFound(err))
}

func TestDeleteProjectCascades(t *testing.T) {
	s := seededStore(t, 600)
	ctx := context.Background()

	_, err := s.Add(ctx, testProjectID, Draft{Text: "one", Timestamp: 1})
	require.NoError(t, err)
	_, err = s.Add(ctx, testProjectID, Draft{Text: "two", Timestamp: 2})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, testProjectID))

	_, err = s.List(ctx, testProjectID)
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(s.DeleteProject(ctx, testProjectID)))
}

func TestConcurrentAddsAllLand(t *testing.T) {
	s := seededStore(t, 600)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func(ts float64) {
			defer func() { done <- struct{}{} }()
			_, err := s.Add(ctx, testProjectID, Draft{Text: "race", Timestamp: ts})
			assert.NoError(t, err)
		}(float64(i))
	}
	<-done
	<-done

	comments, err := s.List(ctx, testProjectID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}
