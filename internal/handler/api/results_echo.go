package api

import (
	"fmt"
	"time"

	models "CrossImpact/internal/domain/models"
	domrepo "CrossImpact/internal/domain/repository"
	"CrossImpact/internal/usecase"
	"CrossImpact/pkg/cache"
	xhttp "CrossImpact/pkg/http"
	xlogger "CrossImpact/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ResultsEchoHandler serves the output of the latest batch run over HTTP.
type ResultsEchoHandler struct {
	logger   *xlogger.Logger
	store    *usecase.ReportStore
	cache    cache.Service
	cacheTTL time.Duration
}

func NewResultsEchoHandler(logger *xlogger.Logger, store *usecase.ReportStore) *ResultsEchoHandler {
	return &ResultsEchoHandler{logger: logger, store: store, cacheTTL: 30 * time.Second}
}

// SetCache enables response caching for the regression endpoints.
func (h *ResultsEchoHandler) SetCache(c cache.Service, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

func (h *ResultsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/report", h.Report)
	g.GET("/regressions", h.Regressions)
	g.GET("/composite", h.Composite)
	g.GET("/returns", h.Returns)
	e.GET("/health", h.Health)
}

func (h *ResultsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Report returns the full batch report with per-symbol diagnostics.
func (h *ResultsEchoHandler) Report(c echo.Context) error {
	report := h.store.Latest()
	if report == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no completed run"))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"started_at":   report.StartedAt,
		"finished_at":  report.FinishedAt,
		"symbols":      report.Symbols,
		"units_total":  len(report.Regressions),
		"units_failed": len(report.FailedUnits()),
	})
}

// Regressions returns regression units, optionally filtered by target,
// horizon and mode.
func (h *ResultsEchoHandler) Regressions(c echo.Context) error {
	req := &models.RegressionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	report := h.store.Latest()
	if report == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no completed run"))
	}

	var horizon time.Duration
	if req.Horizon != "" {
		horizon = domrepo.NormalizeHorizon(req.Horizon).Duration()
	}
	mode := models.RegressionMode(req.Mode)

	cacheKey := fmt.Sprintf("regressions:%s:%s:%s", req.Target, req.Horizon, req.Mode)
	if h.cache != nil {
		var cached []models.RegressionResult
		if err := h.cache.Get(c.Request().Context(), cacheKey, &cached); err == nil {
			h.logger.Debug("regressions cache hit", xlogger.String("key", cacheKey))
			return xhttp.ListResponse(c, cached, int64(len(cached)))
		}
	}

	out := make([]models.RegressionResult, 0, len(report.Regressions))
	for _, r := range report.Regressions {
		if req.Target != "" && r.TargetSymbol != req.Target {
			continue
		}
		if horizon > 0 && r.Horizon != horizon {
			continue
		}
		if req.Mode != "" && r.Mode != mode {
			continue
		}
		out = append(out, r)
	}

	if h.cache != nil {
		if err := h.cache.Set(c.Request().Context(), cacheKey, out, h.cacheTTL); err != nil {
			h.logger.Warn("regressions cache set failed", xlogger.Error(err))
		}
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// Composite returns the last n composite OFI scores for one symbol.
func (h *ResultsEchoHandler) Composite(c echo.Context) error {
	req := &models.CompositeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	report := h.store.Latest()
	if report == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no completed run"))
	}
	records, ok := report.Composite[req.Symbol]
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no composite series for %s", req.Symbol).WithParam("symbol", req.Symbol))
	}
	return xhttp.ListResponse(c, tail(records, req.N), int64(len(records)))
}

// Returns returns the last n forward returns for one symbol and horizon.
func (h *ResultsEchoHandler) Returns(c echo.Context) error {
	req := &models.ReturnsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	report := h.store.Latest()
	if report == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no completed run"))
	}
	records, ok := report.Returns[req.Symbol]
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no return series for %s", req.Symbol).WithParam("symbol", req.Symbol))
	}
	horizon := domrepo.NormalizeHorizon(req.Horizon).Duration()
	filtered := make([]models.PriceChangeRecord, 0, len(records))
	for _, r := range records {
		if r.Horizon == horizon {
			filtered = append(filtered, r)
		}
	}
	return xhttp.ListResponse(c, tail(filtered, req.N), int64(len(filtered)))
}

func tail[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
