package http

import (
	"net/http"

	applog "presupuesto/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := s.parser.ParseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	list, err := s.entries.ListExpenses(r.Context(), rng)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	NewJSONResponse().JSON(newExpenseList(list, s.loc)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	e, err := s.entries.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	NewJSONResponse().JSON(newExpenseJSON(e, s.loc)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.parser.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	e, err := req.toExpense(s.parser)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	created, err := s.entries.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Expense stored", applog.FieldEntryID, created.ID)
	NewJSONResponse().Status(http.StatusCreated).JSON(newExpenseJSON(created, s.loc)).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	var req expensePatchRequest
	if err := s.parser.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	patch, err := req.toPatch(s.parser)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	updated, err := s.entries.UpdateExpense(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	NewJSONResponse().JSON(newExpenseJSON(updated, s.loc)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	if err := s.entries.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}
