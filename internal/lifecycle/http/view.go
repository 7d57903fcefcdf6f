package lifecyclehttp

import (
	"time"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/periods"
)

type periodView struct {
	ID          string               `json:"id"`
	Key         string               `json:"key"`
	ServiceYear int                  `json:"serviceYear"`
	SortOrder   int                  `json:"sortOrder"`
	Status      periods.Status       `json:"status"`
	Reports     []activity.Record    `json:"reports"`
	Attendance  []periods.Attendance `json:"attendance"`
	Stats       periods.Stats        `json:"stats"`
	Unfiled     int                  `json:"unfiled"`
	CreatedAt   time.Time            `json:"createdAt"`
	ClosedAt    *time.Time           `json:"closedAt,omitempty"`
}

func newPeriodView(p periods.Period) periodView {
	reports := p.Reports
	if reports == nil {
		reports = []activity.Record{}
	}
	return periodView{
		ID:          p.ID,
		Key:         p.Key,
		ServiceYear: p.ServiceYear,
		SortOrder:   p.SortOrder,
		Status:      p.Status,
		Reports:     reports,
		Attendance:  p.Attendance,
		Stats:       p.Stats,
		Unfiled:     p.Unfiled(),
		CreatedAt:   p.CreatedAt,
		ClosedAt:    p.ClosedAt,
	}
}

type openView struct {
	Result    string `json:"result"`
	Key       string `json:"key"`
	ClosedKey string `json:"closedKey,omitempty"`
	Carried   int    `json:"carried"`
}

type closeView struct {
	Result   string         `json:"result"`
	Key      string         `json:"key,omitempty"`
	Archived int            `json:"archived"`
	Stats    *periods.Stats `json:"stats,omitempty"`
}
