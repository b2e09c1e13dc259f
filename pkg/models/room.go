package models

import (
	"errors"
	"time"
)

// ErrUnsupported is returned by power readers for rooms the billing page
// cannot report on.
var ErrUnsupported = errors.New("power query not supported for room")

// Room represents a monitored dormitory unit
type Room struct {
	ID        string   `json:"room_id"`             // External billing identifier (xid)
	Name      string   `json:"display_name"`        // Building + room number
	Type      string   `json:"room_type"`           // Passed to the billing page as "type"
	Enabled   bool     `json:"enabled"`
	Threshold *float64 `json:"threshold,omitempty"` // Per-room override, nil means global default
}

// EffectiveThreshold returns the room's own threshold or the given default
func (r Room) EffectiveThreshold(def float64) float64 {
	if r.Threshold != nil {
		return *r.Threshold
	}
	return def
}

// Alert is the payload handed to every notifier for one low-power event
type Alert struct {
	Room      Room      `json:"room"`
	Value     float64   `json:"power"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadingRecord is one stored evaluation result
type ReadingRecord struct {
	ID        int       `json:"id"`
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	Value     *float64  `json:"value,omitempty"` // nil when the query failed
	Threshold float64   `json:"threshold"`
	Outcome   string    `json:"outcome"`
	CycleID   string    `json:"cycle_id"`
	CheckedAt time.Time `json:"checked_at"`
}
