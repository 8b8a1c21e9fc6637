package http

import (
	"net/http"

	"famfin/internal/core"
	"famfin/internal/services"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.ListCards(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var c core.CreditCard
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.Name = sanitizeInput(c.Name)
	created, err := s.svc.CreateCard(r.Context(), userID(r), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	card, err := s.svc.GetCard(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteCard)
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	purchases, err := s.svc.ListPurchases(r.Context(), userID(r), cardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p core.CardPurchase
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.Description = sanitizeInput(p.Description)
	created, err := s.svc.CreatePurchase(r.Context(), userID(r), cardID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	purchaseID, err := pathID(r, "pid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	purchase, err := s.svc.PayInstallment(r.Context(), userID(r), cardID, purchaseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.svc.ListLoans(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if err := decodeJSON(w, r, &l); err != nil {
		writeError(w, r, err)
		return
	}
	l.Name = sanitizeInput(l.Name)
	created, err := s.svc.CreateLoan(r.Context(), userID(r), l)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetLoan returns the loan and the first ?months=N rows of its
// amortization schedule.
func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := queryInt(r, "months", services.ScheduleDisplayMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.svc.GetLoan(r.Context(), userID(r), id, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteLoan)
}

func (s *Server) handlePayLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.LoanPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := s.svc.PayLoan(r.Context(), userID(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) handleListThirdPartyLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.svc.ListThirdPartyLoans(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) handleCreateThirdPartyLoan(w http.ResponseWriter, r *http.Request) {
	var l core.ThirdPartyLoan
	if err := decodeJSON(w, r, &l); err != nil {
		writeError(w, r, err)
		return
	}
	l.Lender = sanitizeInput(l.Lender)
	l.Notes = sanitizeInput(l.Notes)
	created, err := s.svc.CreateThirdPartyLoan(r.Context(), userID(r), l)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetThirdPartyLoan returns the loan with its ledger accrued up to today.
func (s *Server) handleGetThirdPartyLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.svc.GetThirdPartyLoan(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteThirdPartyLoan(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.DeleteThirdPartyLoan)
}

func (s *Server) handleAddThirdPartyPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p core.ThirdPartyPayment
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.Note = sanitizeInput(p.Note)
	detail, err := s.svc.AddThirdPartyPayment(r.Context(), userID(r), loanID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// handleDeleteThirdPartyPayment answers with the recomputed loan.
func (s *Server) handleDeleteThirdPartyPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	paymentID, err := pathID(r, "pid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.svc.DeleteThirdPartyPayment(r.Context(), userID(r), loanID, paymentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
