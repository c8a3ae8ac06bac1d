package http

import (
	"net/http"

	applog "presupuesto/internal/log"
)

// handleListIncomes lists incomes, newest first, optionally bounded by
// fecha_inicio and fecha_fin.
func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	rng, err := s.parser.ParseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	list, err := s.entries.ListIncomes(r.Context(), rng)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	NewJSONResponse().JSON(newIncomeList(list, s.loc)).Write(w)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, msgIncomeNotFound)
		return
	}
	in, err := s.entries.GetIncome(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgIncomeNotFound)
		return
	}
	NewJSONResponse().JSON(newIncomeJSON(in, s.loc)).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := s.parser.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	in, err := req.toIncome(s.parser)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	created, err := s.entries.CreateIncome(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Income stored", applog.FieldEntryID, created.ID)
	NewJSONResponse().Status(http.StatusCreated).JSON(newIncomeJSON(created, s.loc)).Write(w)
}

// handleUpdateIncome applies the fields present in the body and returns the
// stored entry.
func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, msgIncomeNotFound)
		return
	}
	var req incomePatchRequest
	if err := s.parser.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	patch, err := req.toPatch(s.parser)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	updated, err := s.entries.UpdateIncome(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, msgIncomeNotFound)
		return
	}
	NewJSONResponse().JSON(newIncomeJSON(updated, s.loc)).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, msgIncomeNotFound)
		return
	}
	if err := s.entries.DeleteIncome(r.Context(), id); err != nil {
		writeError(w, r, err, msgIncomeNotFound)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}
