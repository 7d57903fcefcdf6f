package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/memstore"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/settings"
	"github.com/servicereports/servicereports/internal/shared"
)

type recordingGateway struct {
	mu       sync.Mutex
	pushed   []string
	deleted  []string
	contacts map[string]int
}

func (g *recordingGateway) PushPeriod(_ context.Context, p periods.Period) {
	g.mu.Lock()
	g.pushed = append(g.pushed, p.Key)
	g.mu.Unlock()
}

func (g *recordingGateway) DeletePeriod(_ context.Context, key string) {
	g.mu.Lock()
	g.deleted = append(g.deleted, key)
	g.mu.Unlock()
}

func (g *recordingGateway) PushContacts(_ context.Context, groupID string, members []publishers.Publisher) {
	g.mu.Lock()
	if g.contacts == nil {
		g.contacts = map[string]int{}
	}
	g.contacts[groupID] = len(members)
	g.mu.Unlock()
}

type stubExporter struct {
	calls []periods.Period
	err   error
}

func (e *stubExporter) ExportSummary(_ context.Context, p periods.Period, _ []publishers.Publisher) error {
	e.calls = append(e.calls, p)
	return e.err
}

type harness struct {
	store    *memstore.Store
	svc      *Service
	gateway  *recordingGateway
	exporter *stubExporter
	now      time.Time
}

func newHarness(t *testing.T, cfg settings.Settings, policy CarryForwardPolicy) *harness {
	t.Helper()
	h := &harness{
		store:    memstore.New(),
		gateway:  &recordingGateway{},
		exporter: &stubExporter{},
	}
	svc, err := NewService(Config{
		Periods:      h.store.Periods,
		Publishers:   h.store.Publishers,
		ServiceYears: h.store.ServiceYears,
		Auxiliary:    h.store.Auxiliary,
		Settings:     settings.Static(cfg),
		Sync:         h.gateway,
		Exporter:     h.exporter,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		CarryForward: policy,
	})
	require.NoError(t, err)
	svc.WithNow(func() time.Time { return h.now })
	h.svc = svc
	h.at(2024, time.October, 5)
	return h
}

func (h *harness) at(year int, month time.Month, day int) {
	h.now = time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func (h *harness) roster(list ...publishers.Publisher) []publishers.Publisher {
	return h.store.Publishers.Add(list...)
}

func (h *harness) publisher(t *testing.T, id string) publishers.Publisher {
	t.Helper()
	p, err := h.store.Publishers.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (h *harness) period(t *testing.T, key string) periods.Period {
	t.Helper()
	p, err := h.store.Periods.FindByKey(context.Background(), key)
	require.NoError(t, err)
	return p
}

func recordOf(t *testing.T, p periods.Period, publisherID, periodKey string) activity.Record {
	t.Helper()
	for _, r := range p.Reports {
		if r.PublisherID == publisherID && r.PeriodKey == periodKey {
			return r
		}
	}
	t.Fatalf("no %s record for publisher %s in %s", periodKey, publisherID, p.Key)
	return activity.Record{}
}

func (h *harness) file(t *testing.T, key, identifier string, in RecordInput) {
	t.Helper()
	_, err := h.svc.UpdateRecord(context.Background(), key, identifier, in)
	require.NoError(t, err)
}

func TestOpenSeedsPreviousMonthFromRoster(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	people := h.roster(
		publishers.Publisher{FirstName: "Alice", LastName: "Brown", Status: publishers.StatusActive,
			Appointments: []publishers.Appointment{publishers.AppointmentElder, publishers.AppointmentPioneer}},
		publishers.Publisher{FirstName: "Bob", LastName: "Chen", Status: publishers.StatusActive},
		publishers.Publisher{FirstName: "Carol", LastName: "Diaz", Status: publishers.StatusInactive},
	)
	require.NoError(t, h.store.Auxiliary.Enroll(ctx, "2024-9", people[1].ID))

	out, err := h.svc.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultActivated, out.Result)
	require.Equal(t, "2024-9", out.Key)
	require.Empty(t, out.ClosedKey)

	p := h.period(t, "2024-9")
	require.Equal(t, periods.StatusActive, p.Status)
	require.Equal(t, 2025, p.ServiceYear)
	require.Equal(t, 0, p.SortOrder)
	require.Len(t, p.Reports, 3)

	alice := recordOf(t, p, people[0].ID, "2024-9")
	require.Equal(t, activity.KindPioneer, alice.Kind)
	require.False(t, alice.Auxiliary)
	require.NotNil(t, alice.Publisher)
	require.Equal(t, "Alice Brown", alice.Publisher.Name)

	bob := recordOf(t, p, people[1].ID, "2024-9")
	require.Equal(t, activity.KindPublisher, bob.Kind)
	require.True(t, bob.Auxiliary)

	carol := recordOf(t, p, people[2].ID, "2024-9")
	require.True(t, carol.HasNotBeenActive)

	require.Equal(t, []periods.Attendance{{Group: periods.DefaultAttendanceGroup, Midweek: []int{}, Weekend: []int{}}}, p.Attendance)

	year, err := h.store.ServiceYears.FindByYear(ctx, 2025)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-9"}, year.ServiceMonths)
}

func TestOpenIsIdempotentWithinMonth(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	h.roster(publishers.Publisher{FirstName: "Alice", Status: publishers.StatusActive})
	ctx := context.Background()

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	h.at(2024, time.October, 28)
	out, err := h.svc.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultOngoing, out.Result)
	require.Len(t, h.store.Periods.All(), 1)

	year, err := h.store.ServiceYears.FindByYear(ctx, 2025)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-9"}, year.ServiceMonths)
}

func TestOpenSeedsAttendancePerLanguageGroup(t *testing.T) {
	h := newHarness(t, settings.Settings{LanguageGroups: []settings.LanguageGroup{
		{ID: "en", Name: "English"},
		{ID: "sgn", Name: "Sign Language"},
	}}, CarryLatestClosed)

	_, err := h.svc.Open(context.Background())
	require.NoError(t, err)
	p := h.period(t, "2024-9")
	require.Len(t, p.Attendance, 2)
	require.Equal(t, "sgn", p.Attendance[1].Group)
	require.Equal(t, "Sign Language", p.Attendance[1].Name)
}

func TestOpenClosesPreviousMonthAndCarriesUnfiledRecords(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	people := h.roster(
		publishers.Publisher{FirstName: "Alice", LastName: "Brown", Status: publishers.StatusActive},
		publishers.Publisher{FirstName: "Bob", LastName: "Chen", Status: publishers.StatusActive},
	)
	alice, bob := people[0], people[1]

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	sept := h.period(t, "2024-9")
	h.file(t, "2024-9", recordOf(t, sept, alice.ID, "2024-9").Identifier, RecordInput{HasBeenActive: true, StudyCount: intPtr(2)})
	bobSept := recordOf(t, sept, bob.ID, "2024-9")

	h.at(2024, time.November, 3)
	out, err := h.svc.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultActivated, out.Result)
	require.Equal(t, "2024-10", out.Key)
	require.Equal(t, "2024-9", out.ClosedKey)
	require.Equal(t, 1, out.Carried)

	closed := h.period(t, "2024-9")
	require.Equal(t, periods.StatusDone, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	for _, r := range closed.Reports {
		require.Nil(t, r.Publisher)
		require.NotEmpty(t, r.PublisherID)
	}

	oct := h.period(t, "2024-10")
	require.Len(t, oct.Reports, 3)
	carried := recordOf(t, oct, bob.ID, "2024-9")
	require.Equal(t, bobSept.Identifier, carried.Identifier)

	archived := h.publisher(t, alice.ID)
	require.Len(t, archived.Reports, 1)
	require.Equal(t, "2024-9", archived.Reports[0].PeriodKey)
	require.Equal(t, 2, *archived.Reports[0].StudyCount)
	require.Empty(t, h.publisher(t, bob.ID).Reports)

	h.at(2024, time.December, 2)
	out, err = h.svc.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, out.Carried)
	nov := h.period(t, "2024-11")
	require.Len(t, nov.Reports, 4)
	for _, r := range nov.Reports {
		require.NotEqual(t, "2024-9", r.PeriodKey)
	}

	active := 0
	for _, p := range h.store.Periods.All() {
		if p.Status == periods.StatusActive {
			active++
		}
	}
	require.Equal(t, 1, active)
}

func TestCarryForwardPolicies(t *testing.T) {
	run := func(t *testing.T, policy CarryForwardPolicy) OpenOutcome {
		h := newHarness(t, settings.Settings{}, policy)
		ctx := context.Background()
		h.roster(publishers.Publisher{FirstName: "Bob", Status: publishers.StatusActive})
		_, err := h.svc.Open(ctx)
		require.NoError(t, err)

		h.at(2025, time.January, 10)
		out, err := h.svc.Open(ctx)
		require.NoError(t, err)
		require.Equal(t, "2024-12", out.Key)
		require.Equal(t, "2024-9", out.ClosedKey)
		return out
	}

	t.Run("latest closed", func(t *testing.T) {
		require.Equal(t, 1, run(t, CarryLatestClosed).Carried)
	})
	t.Run("two months back", func(t *testing.T) {
		require.Equal(t, 0, run(t, CarryTwoMonthsBack).Carried)
	})
}

func TestCloseReconcilesStatusesAndWritesHistories(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	people := h.roster(
		publishers.Publisher{FirstName: "Carol", LastName: "Diaz", Status: publishers.StatusInactive},
		publishers.Publisher{FirstName: "Dan", LastName: "Evans", Status: publishers.StatusActive},
		publishers.Publisher{FirstName: "Eve", LastName: "Ford", Status: publishers.StatusIrregular},
	)
	carol, dan, eve := people[0], people[1], people[2]

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	p := h.period(t, "2024-9")
	h.file(t, "2024-9", recordOf(t, p, carol.ID, "2024-9").Identifier, RecordInput{HasBeenActive: true})
	h.file(t, "2024-9", recordOf(t, p, dan.ID, "2024-9").Identifier, RecordInput{HasNotBeenActive: true})
	h.file(t, "2024-9", recordOf(t, p, eve.ID, "2024-9").Identifier, RecordInput{HasNotBeenActive: true})

	h.at(2024, time.October, 20)
	out, err := h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultClosed, out.Result)
	require.Equal(t, 3, out.Archived)

	c := h.publisher(t, carol.ID)
	require.Equal(t, publishers.StatusIrregular, c.Status)
	require.Equal(t, []shared.HistoryEntry{{Type: shared.HistoryActive, Date: "2024-10-20", Information: "2024-9"}}, c.Histories)

	require.Equal(t, publishers.StatusIrregular, h.publisher(t, dan.ID).Status)
	require.Empty(t, h.publisher(t, dan.ID).Histories)

	e := h.publisher(t, eve.ID)
	require.Equal(t, publishers.StatusInactive, e.Status)
	require.Len(t, e.Histories, 1)

	year, err := h.store.ServiceYears.FindByYear(ctx, 2025)
	require.NoError(t, err)
	require.ElementsMatch(t, []shared.HistoryEntry{
		{Type: shared.HistoryActive, Date: "2024-10-20", Information: "Carol Diaz"},
		{Type: shared.HistoryInactive, Date: "2024-10-20", Information: "Eve Ford"},
	}, year.History)

	require.Equal(t, periods.Stats{ActivePublishers: 2, IrregularPublishers: 2, InactivePublishers: 1}, out.Stats)
	require.Len(t, h.exporter.calls, 1)
	require.Equal(t, periods.StatusDone, h.exporter.calls[0].Status)
}

func TestCloseSkipsRecordsArchivedByEarlierRun(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	alice := h.roster(publishers.Publisher{FirstName: "Alice", Status: publishers.StatusInactive})[0]

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	rec := recordOf(t, h.period(t, "2024-9"), alice.ID, "2024-9")
	h.file(t, "2024-9", rec.Identifier, RecordInput{HasBeenActive: true})

	partial := h.publisher(t, alice.ID)
	rec.HasBeenActive, rec.HasNotBeenActive = true, false
	partial.Reports = append(partial.Reports, rec.Archive())
	_, err = h.store.Publishers.Update(ctx, alice.ID, partial)
	require.NoError(t, err)

	out, err := h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, out.Archived)

	after := h.publisher(t, alice.ID)
	require.Len(t, after.Reports, 1)
	require.Equal(t, publishers.StatusInactive, after.Status)
}

type flakyYears struct {
	*memstore.ServiceYears
	failures int
}

func (y *flakyYears) AppendHistory(ctx context.Context, n int, entry shared.HistoryEntry) error {
	if y.failures > 0 {
		y.failures--
		return errors.New("disk full")
	}
	return y.ServiceYears.AppendHistory(ctx, n, entry)
}

func TestCloseRetryRestoresServiceYearHistory(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	years := &flakyYears{ServiceYears: h.store.ServiceYears, failures: 1}
	svc, err := NewService(Config{
		Periods:      h.store.Periods,
		Publishers:   h.store.Publishers,
		ServiceYears: years,
		Auxiliary:    h.store.Auxiliary,
		Settings:     settings.Static(settings.Settings{}),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		CarryForward: CarryLatestClosed,
	})
	require.NoError(t, err)
	svc.WithNow(func() time.Time { return h.now })
	h.svc = svc

	carol := h.roster(publishers.Publisher{FirstName: "Carol", LastName: "Diaz", Status: publishers.StatusInactive})[0]
	_, err = h.svc.Open(ctx)
	require.NoError(t, err)
	h.file(t, "2024-9", recordOf(t, h.period(t, "2024-9"), carol.ID, "2024-9").Identifier, RecordInput{HasBeenActive: true})

	h.at(2024, time.October, 20)
	_, err = h.svc.Close(ctx)
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, publishers.StatusIrregular, h.publisher(t, carol.ID).Status)

	h.at(2024, time.October, 21)
	out, err := h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultClosed, out.Result)
	require.Equal(t, 0, out.Archived)

	c := h.publisher(t, carol.ID)
	require.Len(t, c.Histories, 1)
	require.Len(t, c.Reports, 1)

	year, err := h.store.ServiceYears.FindByYear(ctx, 2025)
	require.NoError(t, err)
	require.Equal(t, []shared.HistoryEntry{
		{Type: shared.HistoryActive, Date: "2024-10-20", Information: "Carol Diaz"},
	}, year.History)
}

func TestCloseHaltsOnMissingPublisher(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	bob := h.roster(publishers.Publisher{FirstName: "Bob", Status: publishers.StatusActive})[0]

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	h.file(t, "2024-9", recordOf(t, h.period(t, "2024-9"), bob.ID, "2024-9").Identifier, RecordInput{HasBeenActive: true})
	h.store.Publishers.Delete(bob.ID)

	_, err = h.svc.Close(ctx)
	require.ErrorIs(t, err, ErrPublisherMissing)

	active, err := h.svc.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-9", active.Key)
}

func TestCloseWithoutActivePeriod(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()

	out, err := h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultNoActive, out.Result)

	_, err = h.svc.Open(ctx)
	require.NoError(t, err)
	out, err = h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultClosed, out.Result)
	out, err = h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultNoActive, out.Result)
}

func TestCloseClearsAuxiliaryRosterAndIgnoresExportFailure(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	bob := h.roster(publishers.Publisher{FirstName: "Bob", Status: publishers.StatusActive})[0]
	require.NoError(t, h.store.Auxiliary.Enroll(ctx, "2024-9", bob.ID))
	h.exporter.err = errors.New("gotenberg unavailable")

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	out, err := h.svc.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultClosed, out.Result)

	enrolled, err := h.store.Auxiliary.FindByPeriod(ctx, "2024-9")
	require.NoError(t, err)
	require.Empty(t, enrolled)
}

func TestRemoteSyncFollowsSettings(t *testing.T) {
	h := newHarness(t, settings.Settings{
		CongregationID:  "cong-1",
		OnlineReporting: settings.OnlineReporting{Enabled: true, GroupReporting: true},
	}, CarryLatestClosed)
	ctx := context.Background()
	h.roster(
		publishers.Publisher{FirstName: "Alice", GroupID: "g1", Status: publishers.StatusActive},
		publishers.Publisher{FirstName: "Bob", GroupID: "g1", Status: publishers.StatusActive},
		publishers.Publisher{FirstName: "Carol", GroupID: "g2", Status: publishers.StatusActive},
	)

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	h.at(2024, time.November, 2)
	_, err = h.svc.Open(ctx)
	require.NoError(t, err)

	require.Equal(t, []string{"2024-9", "2024-10"}, h.gateway.pushed)
	require.Equal(t, []string{"2024-9"}, h.gateway.deleted)

	require.NoError(t, h.svc.ForceSync(ctx))
	require.Equal(t, "2024-10", h.gateway.pushed[2])

	n, err := h.svc.SyncGroupContacts(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, h.gateway.contacts["g1"])
}

func TestRemoteSyncDisabled(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()

	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	require.Empty(t, h.gateway.pushed)
	require.ErrorIs(t, h.svc.ForceSync(ctx), ErrSyncDisabled)
	_, err = h.svc.SyncGroupContacts(ctx, "g1")
	require.ErrorIs(t, err, ErrSyncDisabled)
}

func TestUpdateRecordRules(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	alice := h.roster(publishers.Publisher{FirstName: "Alice", Status: publishers.StatusActive})[0]
	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	id := recordOf(t, h.period(t, "2024-9"), alice.ID, "2024-9").Identifier

	_, err = h.svc.UpdateRecord(ctx, "2024-9", id, RecordInput{HasBeenActive: true, HasNotBeenActive: true})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.svc.UpdateRecord(ctx, "2024-9", id, RecordInput{HasBeenActive: true, Hours: intPtr(-1)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.svc.UpdateRecord(ctx, "2024-9", "missing", RecordInput{HasBeenActive: true})
	require.ErrorIs(t, err, ErrRecordNotFound)
	_, err = h.svc.UpdateRecord(ctx, "2023-1", id, RecordInput{HasBeenActive: true})
	require.ErrorIs(t, err, ErrPeriodNotFound)

	aux := true
	rec, err := h.svc.UpdateRecord(ctx, "2024-9", id, RecordInput{HasBeenActive: true, Hours: intPtr(12), Remarks: "  visited  ", Auxiliary: &aux})
	require.NoError(t, err)
	require.True(t, rec.Auxiliary)
	require.Equal(t, "visited", rec.Remarks)
	require.Equal(t, 12, *recordOf(t, h.period(t, "2024-9"), alice.ID, "2024-9").Hours)

	_, err = h.svc.Close(ctx)
	require.NoError(t, err)
	_, err = h.svc.UpdateRecord(ctx, "2024-9", id, RecordInput{HasNotBeenActive: true})
	require.ErrorIs(t, err, ErrPeriodClosed)
}

func TestUpdateAttendance(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	_, err := h.svc.Open(ctx)
	require.NoError(t, err)

	got, err := h.svc.UpdateAttendance(ctx, "2024-9", periods.DefaultAttendanceGroup, AttendanceInput{Midweek: []int{40, 42}, Weekend: []int{55}})
	require.NoError(t, err)
	require.Equal(t, []int{40, 42}, got.Midweek)
	require.Equal(t, []int{55}, h.period(t, "2024-9").Attendance[0].Weekend)

	_, err = h.svc.UpdateAttendance(ctx, "2024-9", "fr", AttendanceInput{})
	require.ErrorIs(t, err, ErrAttendanceNotFound)
	_, err = h.svc.UpdateAttendance(ctx, "2024-9", periods.DefaultAttendanceGroup, AttendanceInput{Weekend: []int{-3}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceYearSummary(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	ctx := context.Background()
	h.roster(publishers.Publisher{FirstName: "Alice", Status: publishers.StatusActive})
	_, err := h.svc.Open(ctx)
	require.NoError(t, err)
	h.at(2024, time.November, 1)
	_, err = h.svc.Open(ctx)
	require.NoError(t, err)

	sum, err := h.svc.ServiceYearSummary(ctx, 2025)
	require.NoError(t, err)
	require.NotNil(t, sum.Months[0])
	require.Equal(t, periods.StatusDone, sum.Months[0].Status)
	require.Equal(t, 1, sum.Months[0].Stats.ActivePublishers)
	require.NotNil(t, sum.Months[1])
	require.Equal(t, periods.StatusActive, sum.Months[1].Status)
	require.Nil(t, sum.Months[2])

	empty, err := h.svc.ServiceYearSummary(ctx, 1990)
	require.NoError(t, err)
	require.Equal(t, 1990, empty.Year)
	require.Nil(t, empty.Months[0])
}

func TestConcurrentOpenKeepsSingleActivePeriod(t *testing.T) {
	h := newHarness(t, settings.Settings{}, CarryLatestClosed)
	h.roster(publishers.Publisher{FirstName: "Alice", Status: publishers.StatusActive})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Open(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, h.store.Periods.All(), 1)
}

func TestNewServiceRejectsUnknownPolicy(t *testing.T) {
	store := memstore.New()
	_, err := NewService(Config{
		Periods:      store.Periods,
		Publishers:   store.Publishers,
		ServiceYears: store.ServiceYears,
		Auxiliary:    store.Auxiliary,
		Settings:     settings.Static(settings.Settings{}),
		CarryForward: "yearly",
	})
	require.Error(t, err)
}

func intPtr(v int) *int { return &v }
