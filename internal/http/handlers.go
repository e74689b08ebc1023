package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/insights"
	applog "fintrack/internal/log"
	"fintrack/internal/series"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ready == nil {
		checks["store"] = "ok"
	} else if err := s.ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"year_entries":    s.yearCache.Size(),
		"history_entries": s.historyCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}
	checks["read_only"] = s.svc.ReadOnly()

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	var b strings.Builder
	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_response_time_avg_microseconds", "Running mean response time", "gauge", traceMetrics.AverageResponseTime)
	metric("snapshot_mutations_total", "Total number of applied snapshot mutations", "counter", atomic.LoadInt64(&s.appMetrics.mutations))
	metric("snapshot_imports_total", "Total number of confirmed imports", "counter", atomic.LoadInt64(&s.appMetrics.imports))
	metric("cache_hits_total", "Total view cache hits", "counter", atomic.LoadInt64(&s.appMetrics.cacheHits))
	metric("cache_misses_total", "Total view cache misses", "counter", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	fmt.Fprintf(&b, "# HELP cache_entries Current cache entries\n# TYPE cache_entries gauge\n")
	fmt.Fprintf(&b, "cache_entries{type=\"year\"} %d\n", s.yearCache.Size())
	fmt.Fprintf(&b, "cache_entries{type=\"history\"} %d\n\n", s.historyCache.Size())
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))

	NewJSONResponse().Raw("text/plain; charset=utf-8", []byte(b.String())).Write(w)
}

// writeError answers err, logging anything that is not a client error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	resp, known := ErrorFor(err)
	if !known {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation, nil)
	}
	resp.Write(w)
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	month := r.PathValue("month")
	view, err := s.svc.MonthView(r.Context(), month, insights.ParseVisible(r.URL.Query().Get("visible")))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleSaveMonth(w http.ResponseWriter, r *http.Request) {
	month := r.PathValue("month")
	if _, _, err := core.ParseMonthKey(month); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	amounts, err := ParseAmounts(NewRequestBodyParser(w, r))
	if err != nil {
		BadRequestError(ErrKindBadRequest, err.Error()).Write(w)
		return
	}

	snap, err := s.svc.SaveAmounts(r.Context(), month, amounts.Income, amounts.Expense, amounts.Balance)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogMutation(r.Context(), applog.OpUpdate, month, "")
	NewJSONResponse().Body(core.PointFromSnapshot(snap)).Write(w)
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	month := r.PathValue("month")
	if err := s.svc.DeleteMonth(r.Context(), month); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogMutation(r.Context(), applog.OpDelete, month, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetYear(w http.ResponseWriter, r *http.Request) {
	params, err := ParseViewParams(r.URL.Query(), series.Asc)
	if err != nil {
		BadRequestError(ErrKindInvalidSort, err.Error()).Write(w)
		return
	}
	view, err := s.yearView(r.Context(), r.PathValue("year"), params)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDeleteYear(w http.ResponseWriter, r *http.Request) {
	year := r.PathValue("year")
	if err := s.svc.DeleteYear(r.Context(), year); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogMutation(r.Context(), applog.OpDelete, "", year)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	params, err := ParseViewParams(r.URL.Query(), series.Asc)
	if err != nil {
		BadRequestError(ErrKindInvalidSort, err.Error()).Write(w)
		return
	}
	view, err := s.historyView(r.Context(), params)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteAll(r.Context()); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogMutation(r.Context(), applog.OpDelete, "", "")
	w.WriteHeader(http.StatusNoContent)
}

// handleImport parses the raw body for the requested scope. Without
// confirm=true the parsed records are returned and nothing is stored.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseImportParams(r.URL.Query())
	if err != nil {
		BadRequestError(ErrKindInvalidScope, err.Error()).Write(w)
		return
	}
	body, err := ReadBody(w, r)
	if err != nil {
		BadRequestError(ErrKindBadRequest, "request body too large or unreadable").Write(w)
		return
	}

	res, err := s.svc.Import(r.Context(), params.Scope, string(body), params.Target, params.Confirm)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	status := http.StatusOK
	if res.Applied {
		atomic.AddInt64(&s.appMetrics.imports, 1)
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Body(res).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.Snapshots(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	locale := sanitizeInput(r.URL.Query().Get("locale"))
	if locale == "" {
		locale = "es"
	}
	NewJSONResponse().
		Raw("text/csv; charset=utf-8", []byte(export.CSV(snaps, locale))).
		Attachment(export.FileName("csv")).
		Write(w)
}

func (s *Server) handleExportSQL(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.Snapshots(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	NewJSONResponse().
		Raw("application/sql; charset=utf-8", []byte(export.SQLDump(snaps))).
		Attachment(export.FileName("sql")).
		Write(w)
}
