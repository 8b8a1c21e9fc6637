package http

import (
	"net/http"

	"famfin/internal/core"
	"famfin/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.ListAccounts(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.Name = sanitizeInput(a.Name)
	created, err := s.svc.CreateAccount(r.Context(), userID(r), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var a core.Account
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = id
	a.Name = sanitizeInput(a.Name)
	updated, err := s.svc.UpdateAccount(r.Context(), userID(r), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteAccount)
}

// handleListTransactions supports the month (YYYY-MM), type and category
// filters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := services.TransactionQuery{
		Month:    queryString(r, "month"),
		Type:     core.TransactionType(queryString(r, "type")),
		Category: queryString(r, "category"),
	}
	txs, err := s.svc.ListTransactions(r.Context(), userID(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.Description = sanitizeInput(t.Description)
	t.Category = sanitizeInput(t.Category)
	created, err := s.svc.CreateTransaction(r.Context(), userID(r), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteTransaction)
}

func (s *Server) handleListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.ListFamilyMembers(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateFamilyMember(w http.ResponseWriter, r *http.Request) {
	var m core.FamilyMember
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	m.Name = sanitizeInput(m.Name)
	m.Relationship = sanitizeInput(m.Relationship)
	created, err := s.svc.CreateFamilyMember(r.Context(), userID(r), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteFamilyMember(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteFamilyMember)
}
