package periods

import (
	"time"

	"github.com/servicereports/servicereports/internal/activity"
)

// Status enumerates service month lifecycle stages.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusDone   Status = "DONE"
)

// DefaultAttendanceGroup names the single attendance entry used when no language groups are configured.
const DefaultAttendanceGroup = "default"

// Attendance captures meeting attendance figures for one language group.
type Attendance struct {
	Group   string `json:"group"`
	Name    string `json:"name,omitempty"`
	Midweek []int  `json:"midweek"`
	Weekend []int  `json:"weekend"`
}

// Stats is the roster snapshot taken when the period is closed.
type Stats struct {
	ActivePublishers    int `json:"activePublishers"`
	RegularPublishers   int `json:"regularPublishers"`
	IrregularPublishers int `json:"irregularPublishers"`
	InactivePublishers  int `json:"inactivePublishers"`
	Deaf                int `json:"deaf"`
	Blind               int `json:"blind"`
}

// Period is a reporting period (service month).
type Period struct {
	ID          string
	Key         string
	ServiceYear int
	SortOrder   int
	Status      Status
	Reports     []activity.Record
	Attendance  []Attendance
	Stats       Stats
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

// FindReport returns the index of the record with identifier.
func (p Period) FindReport(identifier string) (int, bool) {
	for i, r := range p.Reports {
		if r.Identifier == identifier {
			return i, true
		}
	}
	return -1, false
}

// FindAttendance returns the index of the attendance entry for group.
func (p Period) FindAttendance(group string) (int, bool) {
	for i, a := range p.Attendance {
		if a.Group == group {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy.
func (p Period) Clone() Period {
	out := p
	out.Reports = make([]activity.Record, len(p.Reports))
	for i, r := range p.Reports {
		out.Reports[i] = r.Clone()
	}
	out.Attendance = make([]Attendance, len(p.Attendance))
	for i, a := range p.Attendance {
		a.Midweek = cloneInts(a.Midweek)
		a.Weekend = cloneInts(a.Weekend)
		out.Attendance[i] = a
	}
	if p.ClosedAt != nil {
		at := *p.ClosedAt
		out.ClosedAt = &at
	}
	return out
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append(make([]int, 0, len(s)), s...)
}
