package shared

import "time"

// History entry types written by the lifecycle engine.
const (
	HistoryActive   = "ACTIVE"
	HistoryInactive = "INACTIVE"
)

// DateLayout is the ISO date format used by history entries.
const DateLayout = "2006-01-02"

// HistoryEntry is an append-only audit record.
type HistoryEntry struct {
	Type        string `json:"type"`
	Date        string `json:"date"`
	Information string `json:"information,omitempty"`
}

// NewHistoryEntry stamps an entry with the date of at.
func NewHistoryEntry(kind string, at time.Time, information string) HistoryEntry {
	return HistoryEntry{Type: kind, Date: at.Format(DateLayout), Information: information}
}
