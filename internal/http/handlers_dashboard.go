package http

import (
	"fmt"
	"net/http"

	applog "presupuesto/internal/log"
)

// handleMonthlyAnalysis serves totals, category sums and the entries of one
// month (mes, anio; defaults to the current month).
func (s *Server) handleMonthlyAnalysis(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), "mes", "anio", s.analysis.CurrentPeriod())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	a, err := s.analysis.Monthly(r.Context(), period)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	NewJSONResponse().JSON(newAnalysisJSON(a, s.loc)).Write(w)
}

// handleCompareMonths compares mes1/anio1 (default: current month) with
// mes2/anio2 (default: the month before).
func (s *Server) handleCompareMonths(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	current := s.analysis.CurrentPeriod()
	first, err := ParseMonthParams(query, "mes1", "anio1", current)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	second, err := ParseMonthParams(query, "mes2", "anio2", previousPeriod(current))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	c, err := s.analysis.Compare(r.Context(), first, second)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	NewJSONResponse().JSON(newComparisonJSON(c)).Write(w)
}

// handleExport serves the month report as a JSON download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), "mes", "anio", s.analysis.CurrentPeriod())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	a, err := s.analysis.Monthly(r.Context(), period)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		applog.NewFields().WithOperation(applog.OpExport).WithPeriod(period.Year, int(period.Month)).ToSlice()...)
	NewJSONResponse().
		Attachment(fmt.Sprintf("reporte_presupuesto_%d_%d.json", period.Year, int(period.Month))).
		JSON(newExportJSON(a)).
		Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), "mes", "anio", s.analysis.CurrentPeriod())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	d, err := s.analysis.Dashboard(r.Context(), period)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	NewJSONResponse().JSON(newDashboardJSON(d)).Write(w)
}
