package lifecyclehttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/export"
	"github.com/servicereports/servicereports/internal/fiscal"
	"github.com/servicereports/servicereports/internal/lifecycle"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/platform/httpx"
)

type lifecycleService interface {
	Active(ctx context.Context) (periods.Period, error)
	Open(ctx context.Context) (lifecycle.OpenOutcome, error)
	Close(ctx context.Context) (lifecycle.CloseOutcome, error)
	UpdateRecord(ctx context.Context, key, identifier string, in lifecycle.RecordInput) (activity.Record, error)
	UpdateAttendance(ctx context.Context, key, group string, in lifecycle.AttendanceInput) (periods.Attendance, error)
	ForceSync(ctx context.Context) error
	SyncGroupContacts(ctx context.Context, groupID string) (int, error)
	ServiceYearSummary(ctx context.Context, year int) (lifecycle.YearSummary, error)
}

type summaryRenderer interface {
	RenderPeriod(ctx context.Context, key string) ([]byte, error)
}

// Handler wires the JSON endpoints of the period lifecycle.
type Handler struct {
	logger   *slog.Logger
	service  lifecycleService
	renderer summaryRenderer
}

// NewHandler builds a Handler. renderer may be nil when PDF export is not configured.
func NewHandler(logger *slog.Logger, service lifecycleService, renderer summaryRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, renderer: renderer}
}

// MountRoutes registers the lifecycle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.Get("/active", h.active)
		r.Post("/open", h.open)
		r.Post("/close", h.close)
		r.Post("/active/sync", h.forceSync)
		r.Patch("/{key}/reports/{identifier}", h.updateRecord)
		r.Put("/{key}/attendance/{group}", h.updateAttendance)
		r.Get("/{key}/summary.pdf", h.summaryPDF)
	})
	r.Post("/groups/{groupID}/sync", h.syncGroup)
	r.Get("/service-years/{year}", h.serviceYear)
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Active(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPeriodView(p))
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Open(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if out.Result == lifecycle.ResultActivated {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, openView{Result: string(out.Result), Key: out.Key, ClosedKey: out.ClosedKey, Carried: out.Carried})
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Close(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view := closeView{Result: string(out.Result), Key: out.Key, Archived: out.Archived}
	if out.Result == lifecycle.ResultClosed {
		view.Stats = &out.Stats
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.RecordInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	rec, err := h.service.UpdateRecord(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "identifier"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) updateAttendance(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.AttendanceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	att, err := h.service.UpdateAttendance(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "group"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, att)
}

func (h *Handler) forceSync(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ForceSync(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) syncGroup(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.SyncGroupContacts(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]int{"publishers": n})
}

func (h *Handler) serviceYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 {
		h.fail(w, r, fmt.Errorf("%w: invalid service year", httpx.ErrValidation))
		return
	}
	sum, err := h.service.ServiceYearSummary(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) summaryPDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		h.fail(w, r, fmt.Errorf("%w: pdf export is not configured", httpx.ErrUnavailable))
		return
	}
	key := chi.URLParam(r, "key")
	if _, err := fiscal.ParseKey(key); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	pdf, err := h.renderer.RenderPeriod(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+export.FileName(key))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidInput), errors.Is(err, httpx.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, lifecycle.ErrNoActivePeriod),
		errors.Is(err, lifecycle.ErrPeriodNotFound),
		errors.Is(err, lifecycle.ErrRecordNotFound),
		errors.Is(err, lifecycle.ErrAttendanceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, lifecycle.ErrPeriodClosed), errors.Is(err, lifecycle.ErrSyncDisabled):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, lifecycle.ErrPublisherMissing):
		h.logger.Error("lifecycle integrity violation", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusUnprocessableEntity, "Integrity Violation", err.Error())
	default:
		h.logger.Error("lifecycle request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
