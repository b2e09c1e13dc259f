package monitor

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker remembers which rooms were notified recently. Each Mute schedules
// its own expiry; a repeat Mute does not extend an earlier one, so the room
// is released by whichever expiry fires first.
type Tracker struct {
	mu      sync.Mutex
	muted   map[string]struct{}
	pending map[uint64]*time.Timer
	nextID  uint64
	logger  *zap.Logger
}

// NewTracker returns an empty tracker
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		muted:   make(map[string]struct{}),
		pending: make(map[uint64]*time.Timer),
		logger:  logger,
	}
}

// IsMuted reports whether roomID is inside its cooldown window
func (t *Tracker) IsMuted(roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.muted[roomID]
	return ok
}

// Mute marks roomID as notified and unmutes it after d
func (t *Tracker) Mute(roomID string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.muted[roomID] = struct{}{}

	t.nextID++
	id := t.nextID
	t.pending[id] = time.AfterFunc(d, func() { t.expire(id, roomID) })
}

// Unmute releases roomID now. Unknown ids are ignored.
func (t *Tracker) Unmute(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.muted, roomID)
}

// Muted returns the currently muted room ids, sorted
func (t *Tracker) Muted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.muted))
	for id := range t.muted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close cancels every pending expiry. Muted rooms stay muted.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}

func (t *Tracker) expire(id uint64, roomID string) {
	t.mu.Lock()
	_, wasMuted := t.muted[roomID]
	delete(t.pending, id)
	delete(t.muted, roomID)
	t.mu.Unlock()

	if wasMuted {
		t.logger.Info("notification cooldown expired", zap.String("room_id", roomID))
	}
}
