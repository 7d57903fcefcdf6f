package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/memstore"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/settings"
	"github.com/servicereports/servicereports/report"
)

type stubRenderer struct {
	html []byte
	err  error
}

func (r *stubRenderer) RenderHTML(_ context.Context, html []byte, page report.Page) ([]byte, error) {
	r.html = html
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-stub"), nil
}

func intPtr(v int) *int { return &v }

func closedPeriod(aliceID, bobID string) periods.Period {
	return periods.Period{
		Key:         "2024-9",
		ServiceYear: 2025,
		Status:      periods.StatusDone,
		Stats:       periods.Stats{ActivePublishers: 2, RegularPublishers: 2},
		Reports: []activity.Record{
			{Report: activity.Report{PeriodKey: "2024-9", Kind: activity.KindPioneer, HasBeenActive: true, Hours: intPtr(50), StudyCount: intPtr(2)}, PublisherID: aliceID},
			{Report: activity.Report{PeriodKey: "2024-9", Kind: activity.KindPublisher}, PublisherID: bobID},
		},
		Attendance: []periods.Attendance{{Group: periods.DefaultAttendanceGroup, Midweek: []int{40, 45}, Weekend: []int{60}}},
	}
}

func newExporter(t *testing.T, cfg settings.Settings, r Renderer, dir string) *Exporter {
	t.Helper()
	e, err := New(Config{Renderer: r, Dir: dir, Settings: settings.Static(cfg)})
	require.NoError(t, err)
	e.now = func() time.Time { return time.Date(2024, time.October, 20, 0, 0, 0, 0, time.UTC) }
	return e
}

var roster = []publishers.Publisher{
	{ID: "p1", FirstName: "Alice", LastName: "Brown"},
	{ID: "p2", FirstName: "Bob", LastName: "Chen"},
}

func TestHTMLInEnglish(t *testing.T) {
	e := newExporter(t, settings.Settings{CongregationName: "Riverside"}, &stubRenderer{}, "")

	html, err := e.HTML(closedPeriod("p1", "p2"), roster)
	require.NoError(t, err)
	doc := string(html)
	require.Contains(t, doc, `lang="en"`)
	require.Contains(t, doc, "September 2024")
	require.Contains(t, doc, "Service year 2025")
	require.Contains(t, doc, "Regular pioneers")
	require.Contains(t, doc, "<td class=\"num\">50</td>")
	require.Contains(t, doc, "42.5")
	require.Contains(t, doc, "<li>Bob Chen</li>")
	require.NotContains(t, doc, "<li>Alice Brown</li>")
	require.Contains(t, doc, "Generated 2024-10-20")
}

func TestHTMLInSpanish(t *testing.T) {
	e := newExporter(t, settings.Settings{Language: "es"}, &stubRenderer{}, "")

	html, err := e.HTML(closedPeriod("p1", "p2"), roster)
	require.NoError(t, err)
	doc := string(html)
	require.Contains(t, doc, `lang="es"`)
	require.Contains(t, doc, "septiembre de 2024")
	require.Contains(t, doc, "Sin informe")
}

func TestHTMLFallsBackToEnglish(t *testing.T) {
	e := newExporter(t, settings.Settings{Language: "fi"}, &stubRenderer{}, "")

	html, err := e.HTML(closedPeriod("p1", "p2"), roster)
	require.NoError(t, err)
	require.Contains(t, string(html), "September 2024")
}

func TestExportSummaryWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	r := &stubRenderer{}
	e := newExporter(t, settings.Settings{}, r, dir)

	require.NoError(t, e.ExportSummary(context.Background(), closedPeriod("p1", "p2"), roster))
	data, err := os.ReadFile(filepath.Join(dir, "service-report-2024-9.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-stub", string(data))
	require.NotEmpty(t, r.html)
}

func TestExportSummaryPropagatesRenderFailure(t *testing.T) {
	boom := errors.New("gotenberg down")
	e := newExporter(t, settings.Settings{}, &stubRenderer{err: boom}, t.TempDir())

	err := e.ExportSummary(context.Background(), closedPeriod("p1", "p2"), roster)
	require.ErrorIs(t, err, boom)
}

func TestRenderPeriodLoadsFromStores(t *testing.T) {
	store := memstore.New()
	people := store.Publishers.Add(roster[0], roster[1])
	_, err := store.Periods.Create(context.Background(), closedPeriod(people[0].ID, people[1].ID))
	require.NoError(t, err)

	r := &stubRenderer{}
	e, err := New(Config{Renderer: r, Settings: settings.Static(settings.Settings{}), Periods: store.Periods, Roster: store.Publishers})
	require.NoError(t, err)

	pdf, err := e.RenderPeriod(context.Background(), "2024-9")
	require.NoError(t, err)
	require.Equal(t, "%PDF-stub", string(pdf))
	require.Contains(t, string(r.html), "Bob Chen")

	_, err = e.RenderPeriod(context.Background(), "2023-1")
	require.Error(t, err)
}
