package hub

import (
	"context"
	"sync"
	"time"

	"framenote-backend/internal/annotation"
	"framenote-backend/internal/model"
	"framenote-backend/pkg/logger"
)

// Callback receives the authoritative comment set for a project,
// already in marker order.
type Callback func(comments []model.Comment)

// Hub fans the current annotation state out to subscribers. Mutating
// handlers call Notify for immediate delivery; a poll ticker re-reads the
// store as the bounded-staleness fallback, so a subscriber never lags the
// authoritative state by more than one poll interval.
type Hub struct {
	store        annotation.Store
	pollInterval time.Duration

	mu     sync.RWMutex
	nextID int64
	rooms  map[int64]map[int64]*subscriber // projectID -> subID -> subscriber
}

type subscriber struct {
	fn Callback

	// mu serializes deliveries against unsubscribe: once Unsubscribe has
	// taken the lock and flipped closed, no further invocation can start.
	mu     sync.Mutex
	closed bool
}

func (s *subscriber) deliver(comments []model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(comments)
}

// NewHub creates a hub over the given store.
func NewHub(store annotation.Store, pollInterval time.Duration) *Hub {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Hub{
		store:        store,
		pollInterval: pollInterval,
		rooms:        make(map[int64]map[int64]*subscriber),
	}
}

// Run drives the staleness-bound poll loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, projectID := range h.activeProjects() {
				h.Notify(ctx, projectID)
			}
		}
	}
}

func (h *Hub) activeProjects() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int64, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe registers a callback for a project's comment state and
// immediately delivers the current snapshot. The returned function
// unsubscribes; it is idempotent, and after it returns the callback will
// not be invoked again. Other subscribers are unaffected.
func (h *Hub) Subscribe(projectID int64, fn Callback) func() {
	sub := &subscriber{fn: fn}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	room := h.rooms[projectID]
	if room == nil {
		room = make(map[int64]*subscriber)
		h.rooms[projectID] = room
	}
	room[id] = sub
	h.mu.Unlock()

	// Initial delivery so the subscriber never starts blank.
	if comments, err := h.store.List(context.Background(), projectID); err == nil {
		sub.deliver(comments)
	} else if !annotation.IsNotFound(err) {
		logger.Sugar.Errorw("initial delivery failed", "project_id", projectID, "error", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()

			h.mu.Lock()
			if room := h.rooms[projectID]; room != nil {
				delete(room, id)
				if len(room) == 0 {
					delete(h.rooms, projectID)
				}
			}
			h.mu.Unlock()
		})
	}
}

// Notify re-reads the project's comments and delivers them to every current
// subscriber. Called by handlers after each mutation, and by the poll loop.
func (h *Hub) Notify(ctx context.Context, projectID int64) {
	h.mu.RLock()
	room := h.rooms[projectID]
	subs := make([]*subscriber, 0, len(room))
	for _, s := range room {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	comments, err := h.store.List(ctx, projectID)
	if err != nil {
		if !annotation.IsNotFound(err) {
			logger.Sugar.Errorw("hub list failed", "project_id", projectID, "error", err)
		}
		return
	}

	for _, s := range subs {
		s.deliver(comments)
	}
}

// SubscriberCount number of live subscribers for a project.
func (h *Hub) SubscriberCount(projectID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}
