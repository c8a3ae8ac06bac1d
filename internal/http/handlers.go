package http

import (
	"context"
	"net/http"
	"time"

	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
)

// handleHealth reports liveness along with the middleware counters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	traffic := s.trace.Counters()
	stats := map[string]any{
		"requests":      traffic.Requests,
		"server_errors": traffic.ServerErrors,
		"suspicious":    s.detector.Flagged(),
	}
	if s.limiter != nil {
		ls := s.limiter.Stats()
		stats["rate_limited"] = ls.Rejected
		stats["rate_limit_clients"] = ls.Clients
	}
	NewJSONResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"stats":     stats,
	}).Write(w)
}

// handleReady pings the store and reports 503 until it answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"templates": "ok", "store": "ok"}
	status, code := "ready", http.StatusOK
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.entries.Store().Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Store ping failed", applog.FieldError, err)
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	NewJSONResponse().Status(code).JSON(map[string]any{"status": status, "checks": checks}).Write(w)
}

// indexData feeds dashboard.html. Dashboard is nil when the first render
// could not load the current month; the page then fills itself from the API.
type indexData struct {
	Period       core.Period
	Persons      []core.Person
	Responsibles []core.Responsible
	Categories   []core.Category
	Dashboard    *core.Dashboard
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	period, err := ParseMonthParams(r.URL.Query(), "mes", "anio", s.analysis.CurrentPeriod())
	if err != nil {
		period = s.analysis.CurrentPeriod()
	}
	data := indexData{
		Period:       period,
		Persons:      core.Persons(),
		Responsibles: core.Responsibles(),
		Categories:   core.Categories(),
	}
	if d, err := s.analysis.Dashboard(r.Context(), period); err != nil {
		logger.ErrorContext(r.Context(), "Dashboard load failed", applog.FieldError, err)
	} else {
		data.Dashboard = &d
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Dashboard template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
