package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/message"

	"github.com/servicereports/servicereports/internal/fiscal"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/settings"
)

var labelIDs = []string{
	"stats_heading", "active_publishers", "regular_publishers", "irregular_publishers",
	"inactive_publishers", "deaf", "blind", "totals_heading", "column_reports",
	"column_hours", "column_studies", "attendance_heading", "midweek_average",
	"weekend_average", "unfiled_heading",
}

// TotalRow is one line of the per-kind totals table.
type TotalRow struct {
	Label   string
	Reports int
	Hours   int
	Studies int
}

// AttendanceRow holds formatted attendance averages for one language group.
type AttendanceRow struct {
	Name    string
	Midweek string
	Weekend string
}

// Summary is the view model of the printable period summary.
type Summary struct {
	Lang         string
	Title        string
	Congregation string
	Month        string
	ServiceYear  string
	Labels       map[string]string
	Stats        periods.Stats
	Totals       []TotalRow
	Attendance   []AttendanceRow
	Unfiled      []string
	Generated    string
}

type translator struct {
	loc     *i18n.Localizer
	printer *message.Printer
}

func (t translator) msg(id string, data map[string]any) string {
	out, err := t.loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return out
}

// buildSummary assembles the view model. Names of publishers who did not report come from
// the roster because closed periods no longer carry publisher details.
func buildSummary(tr translator, lang string, cfg settings.Settings, p periods.Period, roster []publishers.Publisher, now time.Time) Summary {
	s := Summary{
		Lang:         lang,
		Title:        tr.msg("title", nil),
		Congregation: cfg.CongregationName,
		ServiceYear:  tr.msg("service_year", map[string]any{"Year": p.ServiceYear}),
		Labels:       make(map[string]string, len(labelIDs)),
		Stats:        p.Stats,
		Generated:    tr.msg("generated", map[string]any{"Date": now.Format("2006-01-02")}),
	}
	s.Month = p.Key
	if key, err := fiscal.ParseKey(p.Key); err == nil {
		s.Month = tr.msg("month_heading", map[string]any{
			"Month": tr.msg("month_"+strconv.Itoa(int(key.Month)), nil),
			"Year":  key.Year,
		})
	}
	for _, id := range labelIDs {
		s.Labels[id] = tr.msg(id, nil)
	}
	for _, tally := range p.Tally() {
		s.Totals = append(s.Totals, TotalRow{
			Label:   tr.msg("kind_"+string(tally.Kind), nil),
			Reports: tally.Reports,
			Hours:   tally.Hours,
			Studies: tally.Studies,
		})
	}
	groupNames := map[string]string{}
	for _, g := range cfg.LanguageGroups {
		groupNames[g.ID] = g.Name
	}
	for _, a := range p.Attendance {
		name := a.Name
		if name == "" {
			name = groupNames[a.Group]
		}
		if name == "" {
			name = cfg.CongregationName
		}
		s.Attendance = append(s.Attendance, AttendanceRow{
			Name:    name,
			Midweek: tr.printer.Sprintf("%.1f", average(a.Midweek)),
			Weekend: tr.printer.Sprintf("%.1f", average(a.Weekend)),
		})
	}
	names := make(map[string]string, len(roster))
	for _, pub := range roster {
		names[pub.ID] = pub.DisplayName()
	}
	for _, r := range p.Reports {
		if r.Filed() {
			continue
		}
		name := names[r.PublisherID]
		if name == "" && r.Publisher != nil {
			name = r.Publisher.Name
		}
		if strings.TrimSpace(name) != "" {
			s.Unfiled = append(s.Unfiled, name)
		}
	}
	return s
}

func average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
