package lifecycle

import (
	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/shared"
)

// TrailingWindow is the number of archived reports consulted when reconciling a status.
const TrailingWindow = 5

// Decision is the outcome of reconciling one report against a publisher status.
// Event is empty unless the change must be recorded in the histories.
type Decision struct {
	Status publishers.Status
	Event  string
}

// Reconcile derives the next publisher status from the report being archived and the
// publisher's trailing archived reports (oldest first). Unfiled reports leave the status alone.
func Reconcile(current publishers.Status, report activity.Report, trailing []activity.Report) Decision {
	if len(trailing) > TrailingWindow {
		trailing = trailing[len(trailing)-TrailingWindow:]
	}
	switch {
	case report.HasBeenActive:
		switch current {
		case publishers.StatusActive:
			return Decision{Status: publishers.StatusActive}
		case publishers.StatusIrregular:
			if anyReport(trailing, func(r activity.Report) bool { return r.HasNotBeenActive }) {
				return Decision{Status: publishers.StatusIrregular}
			}
			return Decision{Status: publishers.StatusActive}
		case publishers.StatusInactive:
			return Decision{Status: publishers.StatusIrregular, Event: shared.HistoryActive}
		}
	case report.HasNotBeenActive:
		switch current {
		case publishers.StatusActive:
			return Decision{Status: publishers.StatusIrregular}
		case publishers.StatusIrregular:
			if anyReport(trailing, func(r activity.Report) bool { return r.HasBeenActive }) {
				return Decision{Status: publishers.StatusIrregular}
			}
			return Decision{Status: publishers.StatusInactive, Event: shared.HistoryInactive}
		case publishers.StatusInactive:
			return Decision{Status: publishers.StatusInactive}
		}
	}
	return Decision{Status: current}
}

func anyReport(list []activity.Report, match func(activity.Report) bool) bool {
	for _, r := range list {
		if match(r) {
			return true
		}
	}
	return false
}
