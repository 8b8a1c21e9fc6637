package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"famfin/internal/auth"
	"famfin/internal/log"
	"famfin/internal/services"
	"famfin/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, perMinute int) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "famfin.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := services.New(repo, services.WithClock(func() time.Time { return testNow }))
	srv, err := NewServer(Config{Addr: ":0", RateLimitPerMinute: perMinute}, svc,
		auth.NewTokenIssuer(testSecret, time.Hour), log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

// do sends a request with an optional bearer token and JSON body.
func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func register(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test", "email": email, "password": "correct-horse",
	})
	expectStatus(t, rr, http.StatusCreated)
	return decode[tokenResponse](t, rr).Token
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", nil)
		expectStatus(t, rr, http.StatusOK)
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing request id", path)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, 60)

	token := register(t, srv, "ana@example.com")
	if token == "" {
		t.Fatal("register should return a token")
	}

	rr := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "correct-horse",
	})
	expectStatus(t, rr, http.StatusConflict)

	rr = do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Bo", "email": "bo@example.com", "password": "short",
	})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	})
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "correct-horse",
	})
	expectStatus(t, rr, http.StatusOK)
	login := decode[tokenResponse](t, rr)
	if login.User.Email != "ana@example.com" || login.Token == "" {
		t.Errorf("unexpected login response %+v", login)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + login.Token},
		{"garbage", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)
			expectStatus(t, rr, http.StatusUnauthorized)
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 should ask for a bearer token")
			}
		})
	}

	rr = do(t, srv, http.MethodGet, "/api/accounts", login.Token, nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestAccountsAndTransactions(t *testing.T) {
	srv := newTestServer(t, 600)
	token := register(t, srv, "tx@example.com")
	other := register(t, srv, "other@example.com")

	rr := do(t, srv, http.MethodPost, "/api/accounts", token, map[string]any{
		"name": "Checking", "type": "checking", "balance": 1000,
	})
	expectStatus(t, rr, http.StatusCreated)
	account := decode[map[string]any](t, rr)
	accountID := int64(account["id"].(float64))

	rr = do(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "expense", "category": "food", "description": "Groceries",
		"amount": "45.50", "date": "2025-03-10", "paymentMethod": "debit", "accountId": accountID,
	})
	expectStatus(t, rr, http.StatusCreated)
	tx := decode[map[string]any](t, rr)

	rr = do(t, srv, http.MethodGet, "/api/accounts", token, nil)
	accounts := decode[[]map[string]any](t, rr)
	if len(accounts) != 1 || accounts[0]["balance"].(float64) != 954.5 {
		t.Fatalf("expense should lower the balance: %v", accounts)
	}

	rr = do(t, srv, http.MethodPut, fmt.Sprintf("/api/accounts/%d", accountID), token, map[string]any{
		"name": "Main", "type": "checking", "balance": 1,
	})
	expectStatus(t, rr, http.StatusOK)
	if got := decode[map[string]any](t, rr); got["name"] != "Main" || got["balance"].(float64) != 954.5 {
		t.Errorf("update must rename without touching the balance: %v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?month=2025-03&category=food", token, nil)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]map[string]any](t, rr); len(list) != 1 {
		t.Errorf("expected one transaction, got %v", list)
	}
	rr = do(t, srv, http.MethodGet, "/api/transactions?month=2025-02", token, nil)
	if list := decode[[]map[string]any](t, rr); len(list) != 0 {
		t.Errorf("february should be empty, got %v", list)
	}
	rr = do(t, srv, http.MethodGet, "/api/transactions?month=2025-13", token, nil)
	expectStatus(t, rr, http.StatusBadRequest)

	txPath := fmt.Sprintf("/api/transactions/%d", int64(tx["id"].(float64)))
	expectStatus(t, do(t, srv, http.MethodDelete, txPath, other, nil), http.StatusNotFound)
	rr = do(t, srv, http.MethodDelete, txPath, token, nil)
	expectStatus(t, rr, http.StatusNoContent)
	if rr.Body.Len() != 0 {
		t.Errorf("204 must have no body, got %q", rr.Body.String())
	}
	expectStatus(t, do(t, srv, http.MethodDelete, txPath, token, nil), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/transactions/abc", token, nil), http.StatusBadRequest)
}

func TestLoanScheduleAndCalculators(t *testing.T) {
	srv := newTestServer(t, 600)
	token := register(t, srv, "loan@example.com")

	rr := do(t, srv, http.MethodPost, "/api/loans", token, map[string]any{
		"name": "Car", "principal": 12000, "annualRate": 12, "termMonths": 12,
	})
	expectStatus(t, rr, http.StatusCreated)
	loan := decode[map[string]any](t, rr)
	if loan["monthlyPayment"].(float64) != 1066.19 {
		t.Errorf("monthlyPayment = %v, want 1066.19", loan["monthlyPayment"])
	}
	path := fmt.Sprintf("/api/loans/%d", int64(loan["id"].(float64)))

	rr = do(t, srv, http.MethodGet, path+"?months=3", token, nil)
	expectStatus(t, rr, http.StatusOK)
	detail := decode[services.LoanDetail](t, rr)
	if len(detail.Amortization.Schedule) != 3 || detail.Amortization.TotalInterest != 794.23 {
		t.Errorf("unexpected schedule: %+v", detail.Amortization)
	}
	expectStatus(t, do(t, srv, http.MethodGet, path+"?months=abc", token, nil), http.StatusBadRequest)

	rr = do(t, srv, http.MethodPost, path+"/pay", token, map[string]any{"amount": 1066.19})
	expectStatus(t, rr, http.StatusOK)
	if paid := decode[map[string]any](t, rr); paid["applied"].(float64) != 1066.19 {
		t.Errorf("unexpected payment %v", paid)
	}

	rr = do(t, srv, http.MethodPost, "/api/calculators/amortization", token, map[string]any{
		"principal": 12000, "annualRate": 12, "termMonths": 12,
	})
	expectStatus(t, rr, http.StatusOK)
	if am := decode[map[string]any](t, rr); am["totalInterest"].(float64) != 794.23 {
		t.Errorf("totalInterest = %v", am["totalInterest"])
	}

	rr = do(t, srv, http.MethodPost, "/api/calculators/amortization", token, map[string]any{
		"principal": 12000, "annualRate": 12, "termMonths": 0,
	})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestPayoffCalculator(t *testing.T) {
	srv := newTestServer(t, 600)
	token := register(t, srv, "payoff@example.com")

	rr := do(t, srv, http.MethodPost, "/api/calculators/payoff", token, map[string]any{
		"balance": 10000, "monthlyRate": 2, "monthlyPayment": 150,
	})
	expectStatus(t, rr, http.StatusOK)
	body := decode[map[string]any](t, rr)
	if body["success"] != false || body["minimumPayment"].(float64) != 220 || body["error"] == "" {
		t.Errorf("insufficient payment should report the minimum: %v", body)
	}

	rr = do(t, srv, http.MethodPost, "/api/calculators/payoff", token, map[string]any{
		"balance": 1000, "monthlyRate": 0, "monthlyPayment": 250,
	})
	expectStatus(t, rr, http.StatusOK)
	if res := decode[map[string]any](t, rr); res["totalMonths"].(float64) != 4 || res["paidOff"] != true {
		t.Errorf("unexpected payoff %v", res)
	}

	rr = do(t, srv, http.MethodPost, "/api/calculators/payoff", token, map[string]any{
		"debt": map[string]any{"kind": "loan", "id": 999}, "monthlyPayment": 100,
	})
	expectStatus(t, rr, http.StatusNotFound)

	rr = do(t, srv, http.MethodPost, "/api/calculators/payoff", token, map[string]any{
		"debt": map[string]any{"kind": "mortgage", "id": 1}, "monthlyPayment": 100,
	})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestFixedExpensePayOncePerPeriod(t *testing.T) {
	srv := newTestServer(t, 600)
	token := register(t, srv, "fixed@example.com")

	rr := do(t, srv, http.MethodPost, "/api/fixed-expenses", token, map[string]any{
		"name": "Rent", "category": "housing", "amount": 800, "dueDay": 5,
		"frequency": "monthly", "paymentMethod": "transfer",
	})
	expectStatus(t, rr, http.StatusCreated)
	fe := decode[map[string]any](t, rr)
	if fe["overdue"] != true {
		t.Errorf("rent due on the 5th should be overdue on the 15th: %v", fe)
	}
	path := fmt.Sprintf("/api/fixed-expenses/%d/pay", int64(fe["id"].(float64)))

	rr = do(t, srv, http.MethodPost, path, token, nil)
	expectStatus(t, rr, http.StatusCreated)
	if tx := decode[map[string]any](t, rr); tx["date"] != "2025-03-15" || tx["amount"].(float64) != 800 {
		t.Errorf("unexpected transaction %v", tx)
	}
	expectStatus(t, do(t, srv, http.MethodPost, path, token, nil), http.StatusConflict)
	expectStatus(t, do(t, srv, http.MethodPost, path, token, map[string]any{"date": "2025-04-01"}), http.StatusCreated)
}

func TestReportsAndDashboard(t *testing.T) {
	srv := newTestServer(t, 600)
	token := register(t, srv, "reports@example.com")

	for _, tx := range []map[string]any{
		{"type": "income", "category": "salary", "description": "Pay", "amount": 5000, "paymentMethod": "transfer"},
		{"type": "expense", "category": "food", "description": "Market", "amount": 1000, "paymentMethod": "debit"},
	} {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions", token, tx), http.StatusCreated)
	}

	rr := do(t, srv, http.MethodGet, "/api/reports/health?month=2025-03", token, nil)
	expectStatus(t, rr, http.StatusOK)
	health := decode[services.HealthReport](t, rr)
	if health.Income != 5000 || health.Expenses != 1000 || health.Score.Band != "excellent" {
		t.Errorf("unexpected health report %+v", health)
	}

	rr = do(t, srv, http.MethodGet, "/api/reports/summary", token, nil)
	expectStatus(t, rr, http.StatusOK)
	if summary := decode[map[string]any](t, rr); summary["expensesByMonth"] == nil {
		t.Errorf("summary should carry the expense trend: %v", summary)
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/reports/debts", token, nil), http.StatusOK)

	rr = do(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	expectStatus(t, rr, http.StatusOK)
	d := decode[services.Dashboard](t, rr)
	if d.Month != "2025-03" || len(d.RecentTransactions) != 2 {
		t.Errorf("unexpected dashboard %+v", d)
	}
	expectStatus(t, do(t, srv, http.MethodGet, "/api/dashboard?month=march", token, nil), http.StatusBadRequest)
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t, 600)
	token := register(t, srv, "routing@example.com")

	rr := do(t, srv, http.MethodGet, "/api/nope", token, nil)
	expectStatus(t, rr, http.StatusNotFound)
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Errorf("404 should be JSON, got %q", rr.Header().Get("Content-Type"))
	}

	rr = do(t, srv, http.MethodPatch, "/api/accounts", token, nil)
	expectStatus(t, rr, http.StatusMethodNotAllowed)
	if got := rr.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q, want %q", got, "GET, POST")
	}
	expectStatus(t, do(t, srv, http.MethodPatch, "/api/accounts/1", token, nil), http.StatusMethodNotAllowed)
	expectStatus(t, do(t, srv, http.MethodPost, "/healthz", "", nil), http.StatusMethodNotAllowed)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/accounts", token, "{not json"), http.StatusBadRequest)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/accounts", token, nil), http.StatusBadRequest)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)
	body := map[string]string{"email": "nobody@example.com", "password": "whatever-pass"}

	for i := 0; i < 2; i++ {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/auth/login", "", body), http.StatusUnauthorized)
	}
	rr := do(t, srv, http.MethodPost, "/api/auth/login", "", body)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/healthz", "", nil), http.StatusOK)
}
