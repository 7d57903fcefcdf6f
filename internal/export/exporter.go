// Package export renders the printable summary of a service month and stores it as PDF.
package export

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/settings"
	"github.com/servicereports/servicereports/report"
)

//go:embed locales/*.yaml
var localeFS embed.FS

//go:embed templates/summary.html.tmpl
var templateFS embed.FS

// Renderer converts HTML to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html []byte, page report.Page) ([]byte, error)
}

// PeriodSource loads periods by key.
type PeriodSource interface {
	FindByKey(ctx context.Context, key string) (periods.Period, error)
}

// RosterSource loads the publishers referenced by a period.
type RosterSource interface {
	FindByIDs(ctx context.Context, ids []string) ([]publishers.Publisher, error)
}

// SettingsSource exposes the current congregation settings.
type SettingsSource interface {
	Current() settings.Settings
}

// Config wires the exporter.
type Config struct {
	Renderer Renderer
	Dir      string
	Settings SettingsSource
	Periods  PeriodSource
	Roster   RosterSource
	Logger   *slog.Logger
}

// Exporter renders period summaries.
type Exporter struct {
	renderer Renderer
	dir      string
	settings SettingsSource
	periods  PeriodSource
	roster   RosterSource
	logger   *slog.Logger
	bundle   *i18n.Bundle
	matcher  language.Matcher
	tmpl     *template.Template
	now      func() time.Time
}

// New loads the embedded locales and template.
func New(cfg Config) (*Exporter, error) {
	if cfg.Renderer == nil || cfg.Settings == nil {
		return nil, errors.New("export: renderer and settings are required")
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("export: read locales: %w", err)
	}
	for _, entry := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
			return nil, fmt.Errorf("export: load %s: %w", entry.Name(), err)
		}
	}
	tmpl, err := template.ParseFS(templateFS, "templates/summary.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("export: parse template: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		renderer: cfg.Renderer,
		dir:      cfg.Dir,
		settings: cfg.Settings,
		periods:  cfg.Periods,
		roster:   cfg.Roster,
		logger:   logger,
		bundle:   bundle,
		matcher:  language.NewMatcher(bundle.LanguageTags()),
		tmpl:     tmpl,
		now:      time.Now,
	}, nil
}

// FileName is the name of the stored summary for a period key.
func FileName(key string) string {
	return "service-report-" + key + ".pdf"
}

// HTML renders the summary document of p in the congregation language.
func (e *Exporter) HTML(p periods.Period, roster []publishers.Publisher) ([]byte, error) {
	cfg := e.settings.Current()
	tag, _, _ := e.matcher.Match(language.Make(cfg.Language))
	base, _ := tag.Base()
	tr := translator{
		loc:     i18n.NewLocalizer(e.bundle, cfg.Language, language.English.String()),
		printer: message.NewPrinter(tag),
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, buildSummary(tr, base.String(), cfg, p, roster, e.now())); err != nil {
		return nil, fmt.Errorf("export: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// Render produces the PDF summary of p.
func (e *Exporter) Render(ctx context.Context, p periods.Period, roster []publishers.Publisher) ([]byte, error) {
	html, err := e.HTML(p, roster)
	if err != nil {
		return nil, err
	}
	pdf, err := e.renderer.RenderHTML(ctx, html, report.A4)
	if err != nil {
		return nil, fmt.Errorf("export: render %s: %w", p.Key, err)
	}
	return pdf, nil
}

// RenderPeriod loads the period and roster before rendering.
func (e *Exporter) RenderPeriod(ctx context.Context, key string) ([]byte, error) {
	if e.periods == nil || e.roster == nil {
		return nil, errors.New("export: period and roster sources are not configured")
	}
	p, err := e.periods.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("export: load period %s: %w", key, err)
	}
	ids := make([]string, 0, len(p.Reports))
	for _, r := range p.Reports {
		ids = append(ids, r.PublisherID)
	}
	roster, err := e.roster.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("export: load roster: %w", err)
	}
	return e.Render(ctx, p, roster)
}

// ExportSummary renders p and writes it to the export directory.
func (e *Exporter) ExportSummary(ctx context.Context, p periods.Period, roster []publishers.Publisher) error {
	if strings.TrimSpace(e.dir) == "" {
		return errors.New("export: export directory is not configured")
	}
	pdf, err := e.Render(ctx, p, roster)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", e.dir, err)
	}
	path := filepath.Join(e.dir, FileName(p.Key))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	e.logger.Info("summary exported", slog.String("key", p.Key), slog.String("path", path), slog.Int("bytes", len(pdf)))
	return nil
}
