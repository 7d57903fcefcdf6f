package lifecycle

import (
	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/fiscal"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/settings"
)

// CarryForwardPolicy selects the period whose unfiled records roll into a newly opened one.
type CarryForwardPolicy string

const (
	// CarryLatestClosed uses the period closed during the open, or the most recently closed one.
	CarryLatestClosed CarryForwardPolicy = "latest_closed"
	// CarryTwoMonthsBack uses the period two calendar months before now.
	CarryTwoMonthsBack CarryForwardPolicy = "two_months"
)

// Valid reports whether the policy is known.
func (p CarryForwardPolicy) Valid() bool {
	return p == CarryLatestClosed || p == CarryTwoMonthsBack
}

var kindPriority = []struct {
	appointment publishers.Appointment
	kind        activity.Kind
}{
	{publishers.AppointmentPioneer, activity.KindPioneer},
	{publishers.AppointmentSpecialPioneer, activity.KindSpecialPioneer},
	{publishers.AppointmentAuxiliary, activity.KindAuxiliary},
	{publishers.AppointmentMissionary, activity.KindMissionary},
}

func kindFor(p publishers.Publisher) activity.Kind {
	for _, candidate := range kindPriority {
		if p.HasAppointment(candidate.appointment) {
			return candidate.kind
		}
	}
	return activity.KindPublisher
}

func seedRecords(key fiscal.Key, roster []publishers.Publisher, enrolled []string) []activity.Record {
	aux := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		aux[id] = struct{}{}
	}
	out := make([]activity.Record, 0, len(roster))
	for _, p := range roster {
		kind := kindFor(p)
		_, onRoster := aux[p.ID]
		out = append(out, activity.Record{
			Report: activity.Report{
				Identifier:       activity.NewIdentifier(),
				ServiceYear:      key.ServiceYear(),
				PeriodKey:        key.String(),
				SortOrder:        key.SortOrder(),
				Kind:             kind,
				HasNotBeenActive: p.Status == publishers.StatusInactive,
				Auxiliary:        kind == activity.KindAuxiliary || onRoster,
			},
			PublisherID: p.ID,
			Publisher:   p.Ref(),
		})
	}
	return out
}

func seedAttendance(groups []settings.LanguageGroup) []periods.Attendance {
	if len(groups) == 0 {
		return []periods.Attendance{{Group: periods.DefaultAttendanceGroup, Midweek: []int{}, Weekend: []int{}}}
	}
	out := make([]periods.Attendance, 0, len(groups))
	for _, g := range groups {
		out = append(out, periods.Attendance{Group: g.ID, Name: g.Name, Midweek: []int{}, Weekend: []int{}})
	}
	return out
}

// carryForward returns the unfiled records native to source that are not yet present in existing.
// Records carried into source from an older period stay behind so each rolls forward once.
func carryForward(source periods.Period, existing []activity.Record) []activity.Record {
	have := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		have[r.Identifier] = struct{}{}
	}
	var out []activity.Record
	for _, r := range source.Reports {
		if r.Filed() || r.PeriodKey != source.Key {
			continue
		}
		if _, dup := have[r.Identifier]; dup {
			continue
		}
		have[r.Identifier] = struct{}{}
		out = append(out, r.Clone())
	}
	return out
}
