package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// State is the scheduler lifecycle state
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// CycleRunner runs one monitoring cycle
type CycleRunner interface {
	Run(ctx context.Context, rooms []models.Room) Summary
}

// SchedulerConfig holds the daily trigger and loop timing
type SchedulerConfig struct {
	Hour, Minute int           // Local wall-clock trigger time
	PollInterval time.Duration // How often the loop checks for a due trigger
	StopTimeout  time.Duration // How long Stop waits for the loop to exit
	Now          func() time.Time
}

// Scheduler runs the cycle once a day at a fixed local time
type Scheduler struct {
	cycle  CycleRunner
	rooms  []models.Room
	cfg    SchedulerConfig
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	nextRun time.Time
}

// NewScheduler creates a stopped scheduler
func NewScheduler(cycle CycleRunner, rooms []models.Room, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	return &Scheduler{
		cycle:  cycle,
		rooms:  rooms,
		cfg:    cfg,
		logger: logger,
	}
}

// NextDaily returns the first hour:minute on or after now in now's location.
// A time equal to now counts as due.
func NextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if next.Before(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns when the next scheduled cycle is due, or the zero time
// when stopped
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return time.Time{}
	}
	return s.nextRun
}

// Start registers the daily trigger and starts the background loop.
// Starting a running scheduler does nothing, and so does starting one whose
// previous loop has not exited yet.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		s.logger.Warn("scheduler already running")
		return
	}
	if s.done != nil && !isClosed(s.done) {
		// A loop abandoned by a timed-out Stop may still be evaluating a room
		s.logger.Warn("previous scheduler loop still running, not starting")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.state = Running
	s.cancel = cancel
	s.done = make(chan struct{})
	s.nextRun = s.firstRun()

	go s.loop(ctx, s.done)

	s.logger.Info("scheduler started",
		zap.String("schedule_time", time.Date(0, 1, 1, s.cfg.Hour, s.cfg.Minute, 0, 0, time.Local).Format("15:04")),
		zap.Time("next_run", s.nextRun),
	)
}

// Stop cancels the loop, letting an in-flight cycle halt before its next room,
// and waits up to StopTimeout for it. Stopping a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	s.state = Stopped
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()

	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-timer.C:
		s.logger.Warn("scheduler loop did not exit in time", zap.Duration("timeout", s.cfg.StopTimeout))
	}
}

// RunOnce runs one cycle now, independent of the schedule and state
func (s *Scheduler) RunOnce(ctx context.Context) Summary {
	s.logger.Info("running monitoring cycle on demand")
	return s.cycle.Run(ctx, s.rooms)
}

// missGrace is how late a trigger may be noticed and still run
func (s *Scheduler) missGrace() time.Duration {
	if grace := 2 * s.cfg.PollInterval; grace > time.Minute {
		return grace
	}
	return time.Minute
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (s *Scheduler) firstRun() time.Time {
	return NextDaily(s.cfg.Now(), s.cfg.Hour, s.cfg.Minute)
}

// loop polls for a due trigger until ctx is cancelled. The next trigger is
// computed after each cycle from the current time. A trigger noticed long
// after it was due (suspend, clock jump) is skipped, not run late.
func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		next := s.nextRun
		s.mu.Unlock()

		now := s.cfg.Now()
		if now.Before(next) {
			continue
		}

		if now.Sub(next) > s.missGrace() {
			following := NextDaily(now, s.cfg.Hour, s.cfg.Minute)
			s.mu.Lock()
			s.nextRun = following
			s.mu.Unlock()
			s.logger.Warn("missed scheduled cycle",
				zap.Time("due", next),
				zap.Time("next_run", following),
			)
			continue
		}

		s.logger.Info("running scheduled monitoring cycle", zap.Time("due", next))
		s.cycle.Run(ctx, s.rooms)

		if ctx.Err() != nil {
			return
		}

		after := s.cfg.Now()
		following := NextDaily(after, s.cfg.Hour, s.cfg.Minute)
		// A cycle finishing inside the trigger minute must not fire again today
		if !following.After(next) {
			following = NextDaily(after.Add(time.Minute), s.cfg.Hour, s.cfg.Minute)
		}

		s.mu.Lock()
		s.nextRun = following
		s.mu.Unlock()

		s.logger.Info("next monitoring cycle scheduled", zap.Time("next_run", following))
	}
}
