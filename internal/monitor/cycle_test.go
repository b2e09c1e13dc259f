package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// funcEvaluator implements RoomEvaluator with a function field
type funcEvaluator struct {
	mu           sync.Mutex
	evaluateFunc func(ctx context.Context, room models.Room) Outcome
	seen         []string
}

func (f *funcEvaluator) Evaluate(ctx context.Context, room models.Room) Outcome {
	f.mu.Lock()
	f.seen = append(f.seen, room.ID)
	f.mu.Unlock()
	if f.evaluateFunc != nil {
		return f.evaluateFunc(ctx, room)
	}
	return Outcome{Room: room, Kind: Sufficient, Value: 50, Threshold: 10}
}

func (f *funcEvaluator) Seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func TestCycle_EvaluatesEnabledRoomsInOrder(t *testing.T) {
	ev := &funcEvaluator{}
	c := NewCycle(ev, 0, zap.NewNop())

	disabled := room("R2")
	disabled.Enabled = false
	rooms := []models.Room{room("R3"), disabled, room("R1"), room("R4")}

	s := c.Run(context.Background(), rooms)
	assert.Equal(t, []string{"R3", "R1", "R4"}, ev.Seen())
	assert.Equal(t, 3, s.Enabled)
	assert.Equal(t, 3, s.Evaluated)
	assert.Equal(t, 3, s.Count(Sufficient))
	assert.False(t, s.Cancelled)
	assert.NotEmpty(t, s.CycleID)
	assert.Len(t, s.Outcomes, 3)
}

func TestCycle_NothingToMonitor(t *testing.T) {
	ev := &funcEvaluator{}
	c := NewCycle(ev, time.Second, zap.NewNop())

	r := room("R1")
	r.Enabled = false

	for _, rooms := range [][]models.Room{nil, {r}} {
		s := c.Run(context.Background(), rooms)
		assert.True(t, s.NothingToMonitor)
		assert.Equal(t, 0, s.Evaluated)
		assert.Equal(t, "nothing to monitor", s.String())
	}
	assert.Empty(t, ev.Seen())
}

func TestCycle_PacingOnlyBetweenRooms(t *testing.T) {
	pacing := 40 * time.Millisecond
	c := NewCycle(&funcEvaluator{}, pacing, zap.NewNop())

	start := time.Now()
	c.Run(context.Background(), []models.Room{room("R1")})
	assert.Less(t, time.Since(start), pacing, "no trailing delay after the last room")

	start = time.Now()
	c.Run(context.Background(), []models.Room{room("R1"), room("R2"), room("R3")})
	assert.GreaterOrEqual(t, time.Since(start), 2*pacing)
}

func TestCycle_CancelAfterRoomK(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ev := &funcEvaluator{}
	ev.evaluateFunc = func(evalCtx context.Context, r models.Room) Outcome {
		if r.ID == "R2" {
			cancel()
			// The in-flight evaluation is not aborted
			assert.NoError(t, evalCtx.Err())
		}
		return Outcome{Room: r, Kind: Sufficient}
	}

	c := NewCycle(ev, 10*time.Millisecond, zap.NewNop())
	s := c.Run(ctx, []models.Room{room("R1"), room("R2"), room("R3"), room("R4")})

	assert.Equal(t, []string{"R1", "R2"}, ev.Seen())
	assert.True(t, s.Cancelled)
	assert.Equal(t, 2, s.Evaluated)
	assert.Contains(t, s.String(), "cancelled")
}

func TestCycle_CancelDuringPacingStopsPromptly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ev := &funcEvaluator{}
	ev.evaluateFunc = func(_ context.Context, r models.Room) Outcome {
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		return Outcome{Room: r, Kind: Sufficient}
	}

	c := NewCycle(ev, time.Hour, zap.NewNop())
	start := time.Now()
	s := c.Run(ctx, []models.Room{room("R1"), room("R2")})

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, s.Cancelled)
	assert.Equal(t, []string{"R1"}, ev.Seen())
}

func TestCycle_RecordsAndObservesOutcomes(t *testing.T) {
	ev := &funcEvaluator{}
	ev.evaluateFunc = func(_ context.Context, r models.Room) Outcome {
		switch r.ID {
		case "R1":
			return Outcome{Room: r, Kind: Notified, Value: 8.5, Threshold: 10}
		default:
			return Outcome{Room: r, Kind: QueryFailed, Threshold: 10, Err: models.ErrUnsupported}
		}
	}

	rec := &fakeRecorder{err: errors.New("disk full")}
	obs := newCountingObserver()

	c := NewCycle(ev, 0, zap.NewNop())
	c.SetRecorder(rec)
	c.SetObserver(obs)

	s := c.Run(context.Background(), []models.Room{room("R1"), room("R3")})
	assert.Equal(t, 2, s.Evaluated, "recorder errors never abort the cycle")

	require.Len(t, rec.records, 2)
	assert.Equal(t, "notified", rec.records[0].Outcome)
	require.NotNil(t, rec.records[0].Value)
	assert.Equal(t, 8.5, *rec.records[0].Value)
	assert.Equal(t, s.CycleID, rec.records[0].CycleID)
	assert.Equal(t, "query_failed", rec.records[1].Outcome)
	assert.Nil(t, rec.records[1].Value)

	assert.Equal(t, 1, obs.outcomes["notified"])
	assert.Equal(t, 1, obs.outcomes["query_failed"])
	assert.Equal(t, 8.5, obs.power["R1"])
	_, hasR3 := obs.power["R3"]
	assert.False(t, hasR3)
	assert.Equal(t, 1, obs.cycles)
}

// End to end through the real evaluator: scenarios A, C and D in one cycle.
func TestCycle_WithEvaluator(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	defer tracker.Close()

	reader := &fakeReader{readFunc: func(_ context.Context, r models.Room) (float64, error) {
		switch r.ID {
		case "R1":
			return 8.5, nil
		case "R3":
			return 0, models.ErrUnsupported
		default:
			return 30, nil
		}
	}}
	n := &fakeNotifier{name: "a"}
	e := newTestEvaluator(reader, tracker, n)

	r2 := room("R2")
	r2.Enabled = false

	s := NewCycle(e, 0, zap.NewNop()).Run(context.Background(),
		[]models.Room{room("R1"), r2, room("R3"), room("R5")})

	assert.Equal(t, []string{"R1", "R3", "R5"}, reader.Calls())
	assert.Equal(t, 1, s.Count(Notified))
	assert.Equal(t, 1, s.Count(QueryFailed))
	assert.Equal(t, 1, s.Count(Sufficient))
	assert.Equal(t, []string{"R1"}, tracker.Muted())
	assert.Equal(t, 1, n.Count())
}
