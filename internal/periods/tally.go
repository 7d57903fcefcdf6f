package periods

import "github.com/servicereports/servicereports/internal/activity"

// KindTally sums the filed reports of one kind.
type KindTally struct {
	Kind    activity.Kind `json:"kind"`
	Reports int           `json:"reports"`
	Hours   int           `json:"hours"`
	Studies int           `json:"studies"`
}

// Tally sums the active reports of the period per kind, in activity.Kinds order.
// Publishers enrolled as auxiliary pioneers for the month count as auxiliaries.
func (p Period) Tally() []KindTally {
	totals := make(map[activity.Kind]*KindTally, len(activity.Kinds))
	for _, k := range activity.Kinds {
		totals[k] = &KindTally{Kind: k}
	}
	for _, r := range p.Reports {
		if !r.HasBeenActive {
			continue
		}
		kind := r.Kind
		if kind == activity.KindPublisher && r.Auxiliary {
			kind = activity.KindAuxiliary
		}
		t, ok := totals[kind]
		if !ok {
			continue
		}
		t.Reports++
		if r.Hours != nil {
			t.Hours += *r.Hours
		}
		if r.StudyCount != nil {
			t.Studies += *r.StudyCount
		}
	}
	out := make([]KindTally, 0, len(activity.Kinds))
	for _, k := range activity.Kinds {
		out = append(out, *totals[k])
	}
	return out
}

// Unfiled counts records with no report in either direction.
func (p Period) Unfiled() int {
	n := 0
	for _, r := range p.Reports {
		if !r.Filed() {
			n++
		}
	}
	return n
}
