package monitor

import (
	"fmt"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// OutcomeKind is the terminal result of evaluating one room
type OutcomeKind int

const (
	Skipped OutcomeKind = iota
	QueryFailed
	Sufficient
	SuppressedByCooldown
	Notified
	NotifyFailed
)

// AllOutcomeKinds lists every kind in declaration order
var AllOutcomeKinds = []OutcomeKind{Skipped, QueryFailed, Sufficient, SuppressedByCooldown, Notified, NotifyFailed}

func (k OutcomeKind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case QueryFailed:
		return "query_failed"
	case Sufficient:
		return "sufficient"
	case SuppressedByCooldown:
		return "suppressed_by_cooldown"
	case Notified:
		return "notified"
	case NotifyFailed:
		return "notify_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is what happened to one room in one cycle
type Outcome struct {
	Room      models.Room
	Kind      OutcomeKind
	Value     float64  // Valid for Sufficient and every below-threshold kind
	Threshold float64  // Effective threshold, set whenever the room was queried
	Delivered []string // Notifier names that succeeded
	Err       error    // Query error, or joined notifier errors
}

// HasValue reports whether a power value was measured
func (o Outcome) HasValue() bool {
	switch o.Kind {
	case Sufficient, SuppressedByCooldown, Notified, NotifyFailed:
		return true
	default:
		return false
	}
}
