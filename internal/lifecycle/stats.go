package lifecycle

import (
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
)

// ComputeStats snapshots the roster. Active publishers include irregular ones.
func ComputeStats(roster []publishers.Publisher) periods.Stats {
	var st periods.Stats
	for _, p := range roster {
		switch p.Status {
		case publishers.StatusActive:
			st.ActivePublishers++
			st.RegularPublishers++
		case publishers.StatusIrregular:
			st.ActivePublishers++
			st.IrregularPublishers++
		case publishers.StatusInactive:
			st.InactivePublishers++
		}
		if p.Deaf {
			st.Deaf++
		}
		if p.Blind {
			st.Blind++
		}
	}
	return st
}
