/*
handlers.go - HTTP API handlers for the loan insights dashboard

PURPOSE:
  Exposes the filter engine and the aggregator over REST. Every read
  handler takes the current fact table, applies the filter from the query
  string, runs one or more aggregates and serializes the result. Nothing
  here mutates the fact table.

ENDPOINTS:
  GET  /api/health                     Liveness + load id
  GET  /api/diagnostics                Build diagnostics of the current base
  GET  /api/controls                   Date bounds + reason options
  GET  /api/dashboard                  All five aggregates
  GET  /api/aggregates/monthly         Loans issued per month
  GET  /api/aggregates/reasons         Mean amount per reason
  GET  /api/aggregates/delinquency     Late-status counts
  GET  /api/aggregates/employment      Amount distribution per emp length
  GET  /api/aggregates/states          Amount per state
  GET  /api/map                        Choropleth joined with boundaries
  GET  /api/facts                      Filtered rows, paged
  POST /api/reload                     Rebuild the fact table

FILTER PARAMETERS:
  start, end   YYYY-MM-DD, inclusive; omitted = observed bounds
  reason       repeatable; omitted = all reasons; "reason=" = none

ARCHITECTURE:
  Handler holds the current *pipeline.Base behind an atomic pointer. A
  reload builds a new base off to the side and swaps it in; requests in
  flight keep the base they started with.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid filter or paging parameters
  - 500: Reload failed (the previous base stays active)
  - 503: No base built yet, or boundary file missing for /api/map

SEE ALSO:
  - dto.go: Response data structures
  - query.go: Query-string parsing and validation
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/loan-insights/geo"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/pipeline"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// BuildFunc produces a new fact table from the configured sources.
type BuildFunc func(ctx context.Context) (*pipeline.Base, error)

// Options configures NewHandler.
type Options struct {
	Build       BuildFunc
	GeoJSONPath string
	Logger      *zap.Logger
	Metrics     *Metrics
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	build    BuildFunc
	geoPath  string
	logger   *zap.Logger
	metrics  *Metrics
	validate *validator.Validate

	base       atomic.Pointer[pipeline.Base]
	boundaries atomic.Pointer[geo.Boundaries]
	reloadMu   sync.Mutex
}

// NewHandler creates a handler. No base is loaded until Reload or SetBase.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{
		build:    opts.Build,
		geoPath:  opts.GeoJSONPath,
		logger:   logger,
		metrics:  metrics,
		validate: newValidator(),
	}
}

// Base returns the current fact table, or nil before the first build.
func (h *Handler) Base() *pipeline.Base { return h.base.Load() }

// SetBase installs base as the current fact table.
func (h *Handler) SetBase(base *pipeline.Base) { h.base.Store(base) }

// Reload builds a new fact table and swaps it in. Concurrent reloads are
// serialized; on failure the current base stays active.
func (h *Handler) Reload(ctx context.Context) (*pipeline.Base, error) {
	if h.build == nil {
		return nil, errors.New("no build function configured")
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	start := time.Now()
	base, err := h.build(ctx)
	if err == nil && base == nil {
		err = errors.New("build returned no fact table")
	}
	h.metrics.ObserveBuild(base, err, time.Since(start))
	if err != nil {
		h.logger.Error("Reload failed", zap.Error(err))
		return nil, err
	}

	h.base.Store(base)
	h.boundaries.Store(nil)
	h.logger.Info("Fact table swapped",
		zap.String("load_id", base.ID),
		zap.Int("facts", base.Len()))
	return base, nil
}

// loadBoundaries reads the boundary file once per base; failures are retried
// on the next request.
func (h *Handler) loadBoundaries() (*geo.Boundaries, error) {
	if b := h.boundaries.Load(); b != nil {
		return b, nil
	}
	b, err := geo.Load(h.geoPath)
	if err != nil {
		return nil, err
	}
	h.boundaries.Store(b)
	return b, nil
}

// =============================================================================
// STATUS HANDLERS
// =============================================================================

// Health reports liveness. It succeeds even before the first build.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthDTO{Status: "ok"}
	if base := h.Base(); base != nil {
		resp.LoadID = base.ID
		resp.Facts = base.Len()
	} else {
		resp.Status = "loading"
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// GetDiagnostics returns what the current build kept and dropped.
// GET /api/diagnostics
func (h *Handler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	base, ok := h.requireBase(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toDiagnosticsDTO(base))
}

// GetControls returns the date bounds and reason options.
// GET /api/controls
func (h *Handler) GetControls(w http.ResponseWriter, r *http.Request) {
	base, ok := h.requireBase(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toControlsDTO(base.Controls()))
}

// ReloadBase rebuilds the fact table.
// POST /api/reload
func (h *Handler) ReloadBase(w http.ResponseWriter, r *http.Request) {
	base, err := h.Reload(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to rebuild fact table", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDiagnosticsDTO(base))
}

// =============================================================================
// AGGREGATE HANDLERS
// =============================================================================

// GetDashboard returns all five aggregates for the filter.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toDashboardDTO(q.filter, pipeline.DashboardFor(q.rows)))
}

// GetMonthly returns the number of loans issued per month.
// GET /api/aggregates/monthly
func (h *Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, SeriesDTO[PointDTO]{
		Filter: q.filter,
		Data:   toPointDTOs(pipeline.MonthlyCounts(q.rows)),
	})
}

// GetReasons returns the mean loan amount per reason.
// GET /api/aggregates/reasons
func (h *Handler) GetReasons(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, SeriesDTO[BarDTO]{
		Filter: q.filter,
		Data:   toReasonDTOs(pipeline.MeanAmountByReason(q.rows)),
	})
}

// GetDelinquency returns the count of loans per late status.
// GET /api/aggregates/delinquency
func (h *Handler) GetDelinquency(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, SeriesDTO[BarDTO]{
		Filter: q.filter,
		Data:   toStatusDTOs(pipeline.DelinquencyCounts(q.rows)),
	})
}

// GetEmployment returns the amount distribution per employment length.
// GET /api/aggregates/employment
func (h *Handler) GetEmployment(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, SeriesDTO[BoxDTO]{
		Filter: q.filter,
		Data:   toBoxDTOs(pipeline.AmountDistributionByEmployment(q.rows)),
	})
}

// GetStates returns the summed amount per state.
// GET /api/aggregates/states
func (h *Handler) GetStates(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, SeriesDTO[RegionDTO]{
		Filter: q.filter,
		Data:   toRegionDTOs(pipeline.AmountByState(q.rows)),
	})
}

// GetMap returns the per-state sums joined with the region boundaries.
// GET /api/map
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	b, err := h.loadBoundaries()
	if err != nil {
		if errors.Is(err, loan.ErrGeoBoundaryNotFound) {
			writeError(w, r, http.StatusServiceUnavailable, "Region boundaries not available", err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to load region boundaries", err)
		return
	}
	c := geo.Join(b, pipeline.AmountByState(q.rows))
	if len(c.Unmatched) > 0 {
		h.logger.Debug("States without boundary", zap.Strings("states", c.Unmatched))
	}
	writeJSON(w, r, http.StatusOK, toMapDTO(q.filter, c))
}

// GetFacts returns one page of the filtered fact rows.
// GET /api/facts
func (h *Handler) GetFacts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid paging parameters", err)
		return
	}
	if err := h.validate.Struct(page); err != nil {
		writeErrorDetails(w, r, http.StatusBadRequest, "Invalid paging parameters", validationDetails(err))
		return
	}
	q, ok := h.query(w, r)
	if !ok {
		return
	}

	rows := make([]FactDTO, 0, page.Limit)
	for i := page.Offset; i < len(q.rows) && len(rows) < page.Limit; i++ {
		rows = append(rows, toFactDTO(q.rows[i]))
	}
	writeJSON(w, r, http.StatusOK, FactsPageDTO{
		Filter: q.filter,
		Total:  len(q.rows),
		Limit:  page.Limit,
		Offset: page.Offset,
		Rows:   rows,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// queryResult is a filtered working set plus the filter that produced it.
type queryResult struct {
	filter FilterDTO
	rows   []loan.FactRow
}

// query parses and validates the filter, then filters the current base.
// It writes the error response itself and returns false on failure.
func (h *Handler) query(w http.ResponseWriter, r *http.Request) (queryResult, bool) {
	base, ok := h.requireBase(w, r)
	if !ok {
		return queryResult{}, false
	}
	fq := parseFilterQuery(r)
	if err := h.validate.Struct(fq); err != nil {
		writeErrorDetails(w, r, http.StatusBadRequest, "Invalid filter", validationDetails(err))
		return queryResult{}, false
	}
	spec, err := fq.toSpec(base)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid filter", err)
		return queryResult{}, false
	}
	return queryResult{
		filter: toFilterDTO(spec, base.Range(spec)),
		rows:   base.Query(spec),
	}, true
}

func (h *Handler) requireBase(w http.ResponseWriter, r *http.Request) (*pipeline.Base, bool) {
	base := h.Base()
	if base == nil {
		writeError(w, r, http.StatusServiceUnavailable, "Fact table not built yet", nil)
		return nil, false
	}
	return base, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: http.StatusText(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, r, status, resp)
}

func writeErrorDetails(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	writeJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    http.StatusText(status),
		Details: details,
	})
}
