package lifecycle

import (
	"context"

	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/serviceyears"
	"github.com/servicereports/servicereports/internal/settings"
	"github.com/servicereports/servicereports/internal/shared"
)

// PeriodStore persists reporting periods.
type PeriodStore interface {
	FindActive(ctx context.Context) (periods.Period, error)
	FindByKey(ctx context.Context, key string) (periods.Period, error)
	FindByKeys(ctx context.Context, keys []string) ([]periods.Period, error)
	FindLatestDone(ctx context.Context) (periods.Period, error)
	Create(ctx context.Context, p periods.Period) (periods.Period, error)
	Update(ctx context.Context, id string, p periods.Period) (int64, error)
}

// PublisherStore persists the congregation roster.
type PublisherStore interface {
	FindAll(ctx context.Context, filter publishers.Filter) ([]publishers.Publisher, error)
	FindByID(ctx context.Context, id string) (publishers.Publisher, error)
	FindByIDs(ctx context.Context, ids []string) ([]publishers.Publisher, error)
	Update(ctx context.Context, id string, p publishers.Publisher) (int64, error)
}

// ServiceYearStore persists service year diaries.
type ServiceYearStore interface {
	FindByYear(ctx context.Context, n int) (serviceyears.ServiceYear, error)
	FindOrCreate(ctx context.Context, n int) (serviceyears.ServiceYear, error)
	Update(ctx context.Context, n int, y serviceyears.ServiceYear) (int64, error)
	AppendHistory(ctx context.Context, n int, entry shared.HistoryEntry) error
}

// AuxiliaryStore holds the auxiliary pioneer enrollments of each month.
type AuxiliaryStore interface {
	FindByPeriod(ctx context.Context, key string) ([]string, error)
	DeleteByPeriod(ctx context.Context, key string) error
}

// SyncGateway forwards changes to the remote reporting server. Calls must not block
// on the network and never report failures to the caller.
type SyncGateway interface {
	PushPeriod(ctx context.Context, p periods.Period)
	DeletePeriod(ctx context.Context, key string)
	PushContacts(ctx context.Context, groupID string, members []publishers.Publisher)
}

// Exporter renders the printable summary of a closed period.
type Exporter interface {
	ExportSummary(ctx context.Context, p periods.Period, roster []publishers.Publisher) error
}

// SettingsSource exposes the current congregation settings.
type SettingsSource interface {
	Current() settings.Settings
}

// Locker serialises lifecycle runs across processes.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Recorder receives lifecycle metrics.
type Recorder interface {
	ObserveOperation(op, result string)
	ObserveTransition(from, to string)
}

type noopGateway struct{}

func (noopGateway) PushPeriod(context.Context, periods.Period)                   {}
func (noopGateway) DeletePeriod(context.Context, string)                         {}
func (noopGateway) PushContacts(context.Context, string, []publishers.Publisher) {}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, string)  {}
func (noopRecorder) ObserveTransition(string, string) {}
