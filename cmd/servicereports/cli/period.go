package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/servicereports/servicereports/internal/lifecycle"
	"github.com/servicereports/servicereports/internal/periods"
)

// ExitNothingToDo is returned when a command found no active period to act on.
const ExitNothingToDo = 10

type periodService interface {
	Active(ctx context.Context) (periods.Period, error)
	Open(ctx context.Context) (lifecycle.OpenOutcome, error)
	Close(ctx context.Context) (lifecycle.CloseOutcome, error)
	ServiceYearSummary(ctx context.Context, year int) (lifecycle.YearSummary, error)
}

// PeriodOpsCLI runs lifecycle operations from the terminal.
type PeriodOpsCLI struct {
	service periodService
}

// NewPeriodOpsCLI constructs the helper around the lifecycle service.
func NewPeriodOpsCLI(service periodService) (*PeriodOpsCLI, error) {
	if service == nil {
		return nil, errors.New("period cli: service not configured")
	}
	return &PeriodOpsCLI{service: service}, nil
}

// Options holds the output settings shared by the period commands.
type Options struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *Options) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// PeriodStatus is the JSON shape of the status command.
type PeriodStatus struct {
	Key         string        `json:"key"`
	ServiceYear int           `json:"service_year"`
	Status      string        `json:"status"`
	Records     int           `json:"records"`
	Unfiled     int           `json:"unfiled"`
	Stats       periods.Stats `json:"stats"`
}

// StatusCommand prints the active period.
func (c *PeriodOpsCLI) StatusCommand(ctx context.Context, opts Options) int {
	opts.defaults()
	p, err := c.service.Active(ctx)
	if errors.Is(err, lifecycle.ErrNoActivePeriod) {
		_, _ = fmt.Fprintln(opts.Stderr, "period status: no active period")
		return ExitNothingToDo
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "period status: %v\n", err)
		return 1
	}
	status := PeriodStatus{
		Key:         p.Key,
		ServiceYear: p.ServiceYear,
		Status:      string(p.Status),
		Records:     len(p.Reports),
		Unfiled:     p.Unfiled(),
		Stats:       p.Stats,
	}
	if opts.JSONOutput {
		return encode(opts, "period status", status)
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Period\t%s\n", status.Key)
	_, _ = fmt.Fprintf(tw, "Service year\t%d\n", status.ServiceYear)
	_, _ = fmt.Fprintf(tw, "Status\t%s\n", status.Status)
	_, _ = fmt.Fprintf(tw, "Records\t%d\n", status.Records)
	_, _ = fmt.Fprintf(tw, "Unfiled\t%d\n", status.Unfiled)
	_ = tw.Flush()
	return 0
}

// OpenCommand runs the open operation.
func (c *PeriodOpsCLI) OpenCommand(ctx context.Context, opts Options) int {
	opts.defaults()
	out, err := c.service.Open(ctx)
	if err != nil {
		return fail(opts, "period open", err)
	}
	if opts.JSONOutput {
		return encode(opts, "period open", map[string]any{
			"result":     out.Result,
			"key":        out.Key,
			"closed_key": out.ClosedKey,
			"carried":    out.Carried,
		})
	}
	switch out.Result {
	case lifecycle.ResultOngoing:
		_, _ = fmt.Fprintf(opts.Stdout, "period %s is already open\n", out.Key)
	default:
		if out.ClosedKey != "" {
			_, _ = fmt.Fprintf(opts.Stdout, "closed %s\n", out.ClosedKey)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "opened %s (%d unfiled records carried)\n", out.Key, out.Carried)
	}
	return 0
}

// CloseCommand runs the close operation.
func (c *PeriodOpsCLI) CloseCommand(ctx context.Context, opts Options) int {
	opts.defaults()
	out, err := c.service.Close(ctx)
	if err != nil {
		return fail(opts, "period close", err)
	}
	if out.Result == lifecycle.ResultNoActive {
		_, _ = fmt.Fprintln(opts.Stderr, "period close: no active period")
		return ExitNothingToDo
	}
	if opts.JSONOutput {
		return encode(opts, "period close", map[string]any{
			"result":   out.Result,
			"key":      out.Key,
			"archived": out.Archived,
			"stats":    out.Stats,
		})
	}
	_, _ = fmt.Fprintf(opts.Stdout, "closed %s, archived %d records\n", out.Key, out.Archived)
	tw := tabwriter.NewWriter(opts.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Active\t%d\n", out.Stats.ActivePublishers)
	_, _ = fmt.Fprintf(tw, "Regular\t%d\n", out.Stats.RegularPublishers)
	_, _ = fmt.Fprintf(tw, "Irregular\t%d\n", out.Stats.IrregularPublishers)
	_, _ = fmt.Fprintf(tw, "Inactive\t%d\n", out.Stats.InactivePublishers)
	_ = tw.Flush()
	return 0
}

// YearCommand prints the twelve months of a service year.
func (c *PeriodOpsCLI) YearCommand(ctx context.Context, year int, opts Options) int {
	opts.defaults()
	if year < 1900 {
		_, _ = fmt.Fprintf(opts.Stderr, "service year: invalid year %d\n", year)
		return 1
	}
	sum, err := c.service.ServiceYearSummary(ctx, year)
	if err != nil {
		return fail(opts, "service year", err)
	}
	if opts.JSONOutput {
		return encode(opts, "service year", sum)
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MONTH\tSTATUS\tACTIVE\tUNFILED")
	for _, m := range sum.Months {
		if m == nil {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.Key, m.Status, m.Stats.ActivePublishers, m.Unfiled)
	}
	_ = tw.Flush()
	return 0
}

func fail(opts Options, cmd string, err error) int {
	_, _ = fmt.Fprintf(opts.Stderr, "%s: %v\n", cmd, err)
	if errors.Is(err, lifecycle.ErrPublisherMissing) {
		_, _ = fmt.Fprintln(opts.Stderr, "a record references a publisher that no longer exists; restore it before retrying")
	}
	return 1
}

func encode(opts Options, cmd string, v any) int {
	if err := json.NewEncoder(opts.Stdout).Encode(v); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "%s: encode json: %v\n", cmd, err)
		return 1
	}
	return 0
}
