package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jgoulah/dormwatch/internal/notifier"
	"github.com/jgoulah/dormwatch/pkg/models"
)

// ============================================================================
// Fakes
// ============================================================================

// fakeReader implements PowerReader. readFunc decides the result per room.
type fakeReader struct {
	mu       sync.Mutex
	readFunc func(ctx context.Context, room models.Room) (float64, error)
	calls    []string
}

var _ PowerReader = (*fakeReader)(nil)

func (f *fakeReader) Read(ctx context.Context, room models.Room) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, room.ID)
	f.mu.Unlock()
	if f.readFunc != nil {
		return f.readFunc(ctx, room)
	}
	return 0, nil
}

func (f *fakeReader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// constReader always returns value
func constReader(value float64) *fakeReader {
	return &fakeReader{readFunc: func(context.Context, models.Room) (float64, error) { return value, nil }}
}

// fakeNotifier implements notifier.Notifier
type fakeNotifier struct {
	name     string
	mu       sync.Mutex
	sendFunc func(ctx context.Context, alert models.Alert) error
	alerts   []models.Alert
}

var _ notifier.Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(ctx context.Context, alert models.Alert) error {
	f.mu.Lock()
	f.alerts = append(f.alerts, alert)
	f.mu.Unlock()
	if f.sendFunc != nil {
		return f.sendFunc(ctx, alert)
	}
	return nil
}

func (f *fakeNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRecorder implements Recorder
type fakeRecorder struct {
	mu      sync.Mutex
	records []models.ReadingRecord
	err     error
}

func (f *fakeRecorder) RecordReading(ctx context.Context, rec models.ReadingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

// countingObserver implements NotifyObserver and CycleObserver
type countingObserver struct {
	mu            sync.Mutex
	notifications map[string]int
	outcomes      map[string]int
	power         map[string]float64
	cycles        int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		notifications: map[string]int{},
		outcomes:      map[string]int{},
		power:         map[string]float64{},
	}
}

func (o *countingObserver) Notification(channel string, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := channel + ":failure"
	if success {
		key = channel + ":success"
	}
	o.notifications[key]++
}

func (o *countingObserver) Outcome(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *countingObserver) Power(roomID string, value float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.power[roomID] = value
}

func (o *countingObserver) Cycle(time.Duration, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycles++
}

// ============================================================================
// Helpers
// ============================================================================

func room(id string) models.Room {
	return models.Room{ID: id, Name: "Bldg-" + id, Type: "1", Enabled: true}
}

func threshold(v float64) *float64 { return &v }
