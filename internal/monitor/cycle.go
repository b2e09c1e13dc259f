package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// RoomEvaluator evaluates a single room
type RoomEvaluator interface {
	Evaluate(ctx context.Context, room models.Room) Outcome
}

// Recorder persists evaluation results
type Recorder interface {
	RecordReading(ctx context.Context, rec models.ReadingRecord) error
}

// CycleObserver receives per-room and per-cycle measurements
type CycleObserver interface {
	Outcome(outcome string)
	Power(roomID string, value float64)
	Cycle(duration time.Duration, cancelled bool)
}

// Summary reports what one cycle did
type Summary struct {
	CycleID          string
	StartedAt        time.Time
	FinishedAt       time.Time
	Enabled          int // Enabled rooms at cycle start
	Evaluated        int
	Counts           map[OutcomeKind]int
	Outcomes         []Outcome
	Cancelled        bool
	NothingToMonitor bool
}

// Count returns how many rooms ended with kind
func (s Summary) Count(kind OutcomeKind) int {
	return s.Counts[kind]
}

func (s Summary) String() string {
	if s.NothingToMonitor {
		return "nothing to monitor"
	}
	parts := make([]string, 0, len(AllOutcomeKinds))
	for _, k := range AllOutcomeKinds {
		if n := s.Counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	status := "completed"
	if s.Cancelled {
		status = "cancelled"
	}
	return fmt.Sprintf("%s: %d/%d rooms evaluated (%s)", status, s.Evaluated, s.Enabled, strings.Join(parts, ", "))
}

// Cycle evaluates every enabled room once, in order, pausing between rooms
type Cycle struct {
	evaluator RoomEvaluator
	pacing    time.Duration
	logger    *zap.Logger
	recorder  Recorder
	observer  CycleObserver
	now       func() time.Time
}

// NewCycle creates a cycle that waits pacing between consecutive rooms
func NewCycle(evaluator RoomEvaluator, pacing time.Duration, logger *zap.Logger) *Cycle {
	return &Cycle{
		evaluator: evaluator,
		pacing:    pacing,
		logger:    logger,
		now:       time.Now,
	}
}

// SetRecorder stores every outcome through r
func (c *Cycle) SetRecorder(r Recorder) {
	c.recorder = r
}

// SetObserver reports outcomes and cycle durations to o
func (c *Cycle) SetObserver(o CycleObserver) {
	c.observer = o
}

// Run evaluates the enabled rooms. Cancelling ctx stops the cycle before the
// next room; a query or notification already under way is allowed to finish.
func (c *Cycle) Run(ctx context.Context, rooms []models.Room) Summary {
	summary := Summary{
		CycleID:   uuid.NewString(),
		StartedAt: c.now(),
		Counts:    make(map[OutcomeKind]int),
	}
	log := c.logger.With(zap.String("cycle_id", summary.CycleID))

	enabled := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Enabled {
			enabled = append(enabled, room)
		}
	}
	summary.Enabled = len(enabled)

	if len(enabled) == 0 {
		log.Warn("no rooms configured for monitoring")
		summary.NothingToMonitor = true
		summary.FinishedAt = c.now()
		return summary
	}

	log.Info("monitoring cycle started", zap.Int("rooms", len(enabled)))

	// In-flight calls must outlive a stop request
	evalCtx := context.WithoutCancel(ctx)

	for i, room := range enabled {
		if i > 0 {
			c.pause(ctx)
		}
		if ctx.Err() != nil {
			log.Info("monitoring cycle cancelled", zap.Int("remaining", len(enabled)-i))
			summary.Cancelled = true
			break
		}

		out := c.evaluator.Evaluate(evalCtx, room)
		summary.Evaluated++
		summary.Counts[out.Kind]++
		summary.Outcomes = append(summary.Outcomes, out)
		c.record(evalCtx, summary.CycleID, out, log)
	}

	summary.FinishedAt = c.now()
	if c.observer != nil {
		c.observer.Cycle(summary.FinishedAt.Sub(summary.StartedAt), summary.Cancelled)
	}

	log.Info("monitoring cycle finished", zap.Stringer("summary", summary))
	return summary
}

// pause sleeps for the pacing delay or until ctx is cancelled
func (c *Cycle) pause(ctx context.Context) {
	if c.pacing <= 0 {
		return
	}
	timer := time.NewTimer(c.pacing)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (c *Cycle) record(ctx context.Context, cycleID string, out Outcome, log *zap.Logger) {
	if c.observer != nil {
		c.observer.Outcome(out.Kind.String())
		if out.HasValue() {
			c.observer.Power(out.Room.ID, out.Value)
		}
	}

	if c.recorder == nil {
		return
	}

	rec := models.ReadingRecord{
		RoomID:    out.Room.ID,
		RoomName:  out.Room.Name,
		Threshold: out.Threshold,
		Outcome:   out.Kind.String(),
		CycleID:   cycleID,
		CheckedAt: c.now(),
	}
	if out.HasValue() {
		v := out.Value
		rec.Value = &v
	}

	if err := c.recorder.RecordReading(ctx, rec); err != nil {
		log.Warn("could not record reading", zap.String("room_id", out.Room.ID), zap.Error(err))
	}
}
