package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framenote-backend/internal/annotation"
	"framenote-backend/internal/model"
	"framenote-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

// recorder collects deliveries behind a mutex so tests can assert on them.
type recorder struct {
	mu         sync.Mutex
	deliveries [][]model.Comment
}

func (r *recorder) callback(comments []model.Comment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, comments)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deliveries)
}

func (r *recorder) last() []model.Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.deliveries) == 0 {
		return nil
	}
	return r.deliveries[len(r.deliveries)-1]
}

func newTestHub(t *testing.T) (*Hub, *annotation.MemoryStore) {
	t.Helper()
	store := annotation.NewMemoryStore()
	store.SeedProject(1, 600)
	return NewHub(store, time.Hour), store // ticker effectively disabled
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	h, store := newTestHub(t)
	ctx := context.Background()

	_, err := store.Add(ctx, 1, annotation.Draft{Text: "existing", Timestamp: 10})
	require.NoError(t, err)

	rec := &recorder{}
	unsub := h.Subscribe(1, rec.callback)
	defer unsub()

	require.Equal(t, 1, rec.count())
	require.Len(t, rec.last(), 1)
	assert.Equal(t, "existing", rec.last()[0].Text)
}

func TestNotifyFansOutToAllSubscribers(t *testing.T) {
	h, store := newTestHub(t)
	ctx := context.Background()

	recA := &recorder{}
	recB := &recorder{}
	unsubA := h.Subscribe(1, recA.callback)
	defer unsubA()
	unsubB := h.Subscribe(1, recB.callback)
	defer unsubB()

	_, err := store.Add(ctx, 1, annotation.Draft{Text: "new comment", Timestamp: 30})
	require.NoError(t, err)
	h.Notify(ctx, 1)

	// Initial snapshot plus one notify each.
	assert.Equal(t, 2, recA.count())
	assert.Equal(t, 2, recB.count())
	assert.Equal(t, "new comment", recA.last()[0].Text)
	assert.Equal(t, "new comment", recB.last()[0].Text)
}

func TestUnsubscribeStopsDeliveriesImmediately(t *testing.T) {
	h, store := newTestHub(t)
	ctx := context.Background()

	gone := &recorder{}
	stays := &recorder{}
	unsubGone := h.Subscribe(1, gone.callback)
	unsubStays := h.Subscribe(1, stays.callback)
	defer unsubStays()

	unsubGone()
	countAtUnsub := gone.count()

	// A comment added after the unsubscribe must reach only the survivor.
	_, err := store.Add(ctx, 1, annotation.Draft{Text: "after leave", Timestamp: 5})
	require.NoError(t, err)
	h.Notify(ctx, 1)

	assert.Equal(t, countAtUnsub, gone.count())
	assert.Equal(t, 2, stays.count())
	assert.Equal(t, "after leave", stays.last()[0].Text)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	h, _ := newTestHub(t)

	rec := &recorder{}
	unsub := h.Subscribe(1, rec.callback)

	unsub()
	unsub()

	assert.Equal(t, 0, h.SubscriberCount(1))
}

func TestSubscriberCountTracksRoom(t *testing.T) {
	h, _ := newTestHub(t)

	assert.Equal(t, 0, h.SubscriberCount(1))

	unsubA := h.Subscribe(1, func([]model.Comment) {})
	unsubB := h.Subscribe(1, func([]model.Comment) {})
	assert.Equal(t, 2, h.SubscriberCount(1))

	unsubA()
	assert.Equal(t, 1, h.SubscriberCount(1))
	unsubB()
	assert.Equal(t, 0, h.SubscriberCount(1))
}

func TestNotifyUnknownProjectNoSubscribers(t *testing.T) {
	h, _ := newTestHub(t)

	// Must not panic or log spuriously with an empty room.
	h.Notify(context.Background(), 42)
}

func TestPollLoopDeliversWithoutExplicitNotify(t *testing.T) {
	store := annotation.NewMemoryStore()
	store.SeedProject(1, 600)
	h := NewHub(store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	rec := &recorder{}
	unsub := h.Subscribe(1, rec.callback)
	defer unsub()

	_, err := store.Add(ctx, 1, annotation.Draft{Text: "polled", Timestamp: 1})
	require.NoError(t, err)

	// No Notify call; the ticker alone must surface the new comment.
	require.Eventually(t, func() bool {
		last := rec.last()
		return len(last) == 1 && last[0].Text == "polled"
	}, time.Second, 5*time.Millisecond)
}

func TestDeliveriesAreInMarkerOrder(t *testing.T) {
	h, store := newTestHub(t)
	ctx := context.Background()

	_, err := store.Add(ctx, 1, annotation.Draft{Text: "later", Timestamp: 50})
	require.NoError(t, err)
	_, err = store.Add(ctx, 1, annotation.Draft{Text: "earlier", Timestamp: 10})
	require.NoError(t, err)

	rec := &recorder{}
	unsub := h.Subscribe(1, rec.callback)
	defer unsub()

	last := rec.last()
	require.Len(t, last, 2)
	assert.Equal(t, "earlier", last[0].Text)
	assert.Equal(t, "later", last[1].Text)
}
