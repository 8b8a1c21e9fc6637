package http

import (
	"net/http"

	"famfin/internal/services"
)

func (s *Server) handleAmortization(w http.ResponseWriter, r *http.Request) {
	var req services.AmortizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	am, err := s.svc.CalculateAmortization(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, am)
}

// handlePayoff simulates paying a stored debt ({debt: {kind, id}}) or a raw
// balance with a fixed monthly payment. A payment that cannot cover the
// interest answers 200 with success=false and the minimum payment.
func (s *Server) handlePayoff(w http.ResponseWriter, r *http.Request) {
	var req services.PayoffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.svc.SimulatePayoff(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealthReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Health(r.Context(), userID(r), queryString(r, "month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Summary(r.Context(), userID(r), queryString(r, "month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDebtReport(w http.ResponseWriter, r *http.Request) {
	debts, err := s.svc.Debts(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), userID(r), queryString(r, "month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
