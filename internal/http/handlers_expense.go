package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in services.CreateExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := userIDFromContext(r.Context())
	created, err := s.expenses.Create(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateAdvice(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	var upd core.ExpenseUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := userIDFromContext(r.Context())
	updated, err := s.expenses.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateAdvice(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	userID := userIDFromContext(r.Context())
	removed, err := s.expenses.Delete(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateAdvice(userID)
	writeJSON(w, http.StatusOK, removed)
}
