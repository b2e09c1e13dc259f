// Package monitor runs the daily power check: per-room evaluation, the
// cycle over all rooms, the cooldown tracker and the scheduler loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/internal/notifier"
	"github.com/jgoulah/dormwatch/pkg/models"
)

// PowerReader resolves a room's remaining power. It must apply its own
// timeout; models.ErrUnsupported marks rooms that cannot be queried.
type PowerReader interface {
	Read(ctx context.Context, room models.Room) (float64, error)
}

// EvaluatorConfig holds the decision parameters
type EvaluatorConfig struct {
	DefaultThreshold float64
	Cooldown         time.Duration
	Now              func() time.Time // Defaults to time.Now
}

// Evaluator decides, for one room, whether to notify
type Evaluator struct {
	reader    PowerReader
	notifiers []notifier.Notifier
	tracker   *Tracker
	cfg       EvaluatorConfig
	logger    *zap.Logger
	observer  NotifyObserver
}

// NotifyObserver is told about every notifier attempt
type NotifyObserver interface {
	Notification(channel string, success bool)
}

// NewEvaluator creates an evaluator
func NewEvaluator(reader PowerReader, notifiers []notifier.Notifier, tracker *Tracker, cfg EvaluatorConfig, logger *zap.Logger) *Evaluator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Evaluator{
		reader:    reader,
		notifiers: notifiers,
		tracker:   tracker,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetObserver registers an observer for notifier attempts
func (e *Evaluator) SetObserver(o NotifyObserver) {
	e.observer = o
}

// Evaluate checks one room. It never returns an error: every fault is folded
// into the outcome.
func (e *Evaluator) Evaluate(ctx context.Context, room models.Room) Outcome {
	log := e.logger.With(zap.String("room_id", room.ID), zap.String("room", room.Name))

	if !room.Enabled {
		log.Debug("skipping disabled room")
		return Outcome{Room: room, Kind: Skipped}
	}

	threshold := room.EffectiveThreshold(e.cfg.DefaultThreshold)

	value, err := e.read(ctx, room)
	if err != nil {
		if errors.Is(err, models.ErrUnsupported) {
			log.Warn("room does not support power queries")
		} else {
			log.Error("power query failed", zap.Error(err))
		}
		return Outcome{Room: room, Kind: QueryFailed, Threshold: threshold, Err: err}
	}

	out := Outcome{Room: room, Value: value, Threshold: threshold}
	log = log.With(zap.Float64("power", value), zap.Float64("threshold", threshold))

	if value >= threshold {
		log.Info("power sufficient")
		out.Kind = Sufficient
		return out
	}

	log.Warn("power below threshold")

	if e.tracker.IsMuted(room.ID) {
		log.Info("room in cooldown, skipping notification")
		out.Kind = SuppressedByCooldown
		return out
	}

	alert := models.Alert{Room: room, Value: value, Threshold: threshold, Timestamp: e.cfg.Now()}

	var errs []error
	for _, n := range e.notifiers {
		if err := e.send(ctx, n, alert); err != nil {
			log.Error("notification failed", zap.String("channel", n.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			e.observe(n.Name(), false)
			continue
		}
		log.Info("notification sent", zap.String("channel", n.Name()))
		out.Delivered = append(out.Delivered, n.Name())
		e.observe(n.Name(), true)
	}

	if len(out.Delivered) == 0 {
		if len(e.notifiers) == 0 {
			errs = append(errs, errors.New("no notifiers configured"))
		}
		out.Kind = NotifyFailed
		out.Err = errors.Join(errs...)
		return out
	}

	e.tracker.Mute(room.ID, e.cfg.Cooldown)
	out.Kind = Notified
	out.Err = errors.Join(errs...)
	return out
}

// read calls the reader, turning a panic into an error
func (e *Evaluator) read(ctx context.Context, room models.Room) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("power reader panicked: %v", r)
		}
	}()
	return e.reader.Read(ctx, room)
}

// send calls one notifier, turning a panic into an error
func (e *Evaluator) send(ctx context.Context, n notifier.Notifier, alert models.Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return n.Send(ctx, alert)
}

func (e *Evaluator) observe(channel string, success bool) {
	if e.observer != nil {
		e.observer.Notification(channel, success)
	}
}
