package http

import (
	"net/http"

	"famfin/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.ListBudgets(r.Context(), userID(r), queryString(r, "month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.Category = sanitizeInput(b.Category)
	created, err := s.svc.CreateBudget(r.Context(), userID(r), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = id
	b.Category = sanitizeInput(b.Category)
	updated, err := s.svc.UpdateBudget(r.Context(), userID(r), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteBudget)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, r, err)
		return
	}
	g.Name = sanitizeInput(g.Name)
	created, err := s.svc.CreateGoal(r.Context(), userID(r), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type contributionRequest struct {
	Amount core.Money `json:"amount"`
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.svc.ContributeGoal(r.Context(), userID(r), id, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteGoal)
}

func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.ListFixedExpenses(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	var fe core.FixedExpense
	if err := decodeJSON(w, r, &fe); err != nil {
		writeError(w, r, err)
		return
	}
	fe.Name = sanitizeInput(fe.Name)
	fe.Category = sanitizeInput(fe.Category)
	created, err := s.svc.CreateFixedExpense(r.Context(), userID(r), fe)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type payFixedExpenseRequest struct {
	Date core.Date `json:"date"`
}

// handlePayFixedExpense posts the expense for the current period. The body
// is optional; an absent date means today.
func (s *Server) handlePayFixedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req payFixedExpenseRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.PayFixedExpense(r.Context(), userID(r), id, req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteFixedExpense)
}
