// Package services holds the owner-scoped use cases of famfin. It loads rows
// from the store, hands plain numbers to the finance package, and publishes
// transaction events once a write has been committed.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"famfin/internal/amqp"
	"famfin/internal/cache"
	"famfin/internal/core"
	"famfin/internal/log"
	"famfin/internal/storage"
)

// Store is the persistence surface the services depend on.
type Store interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	CreateFamilyMember(ctx context.Context, m core.FamilyMember) (core.FamilyMember, error)
	ListFamilyMembers(ctx context.Context, userID int64) ([]core.FamilyMember, error)
	DeleteFamilyMember(ctx context.Context, userID, id int64) error

	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, userID, id int64) (core.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
	DeleteAccount(ctx context.Context, userID, id int64) error

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)

	CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error)
	GetCard(ctx context.Context, userID, id int64) (core.CreditCard, error)
	ListCards(ctx context.Context, userID int64) ([]core.CreditCard, error)
	DeleteCard(ctx context.Context, userID, id int64) error
	CreatePurchase(ctx context.Context, userID int64, p core.CardPurchase) (core.CardPurchase, error)
	ListPurchases(ctx context.Context, userID, cardID int64) ([]core.CardPurchase, error)
	PayInstallment(ctx context.Context, userID, cardID, purchaseID int64) (core.CardPurchase, error)

	CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error)
	GetLoan(ctx context.Context, userID, id int64) (core.Loan, error)
	ListLoans(ctx context.Context, userID int64) ([]core.Loan, error)
	DeleteLoan(ctx context.Context, userID, id int64) error
	ApplyLoanPayment(ctx context.Context, userID, loanID int64, amount core.Money, post *core.Transaction) (storage.LoanPayment, error)

	CreateThirdPartyLoan(ctx context.Context, l core.ThirdPartyLoan) (core.ThirdPartyLoan, error)
	GetThirdPartyLoan(ctx context.Context, userID, id int64) (core.ThirdPartyLoan, error)
	ListThirdPartyLoans(ctx context.Context, userID int64) ([]core.ThirdPartyLoan, error)
	DeleteThirdPartyLoan(ctx context.Context, userID, id int64) error
	ListThirdPartyPayments(ctx context.Context, userID, loanID int64) ([]core.ThirdPartyPayment, error)
	AddThirdPartyPayment(ctx context.Context, userID, loanID int64, p core.ThirdPartyPayment, ledger storage.LedgerFunc) (core.ThirdPartyLoan, core.ThirdPartyPayment, error)
	DeleteThirdPartyPayment(ctx context.Context, userID, loanID, paymentID int64, ledger storage.LedgerFunc) (core.ThirdPartyLoan, error)

	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id int64) error
	ListBudgets(ctx context.Context, userID int64, month string) ([]storage.BudgetSpent, error)

	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
	ContributeGoal(ctx context.Context, userID, id int64, amount core.Money) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id int64) error

	CreateFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error)
	GetFixedExpense(ctx context.Context, userID, id int64) (core.FixedExpense, error)
	ListFixedExpenses(ctx context.Context, userID int64) ([]core.FixedExpense, error)
	ListAllFixedExpenses(ctx context.Context) ([]core.FixedExpense, error)
	DeleteFixedExpense(ctx context.Context, userID, id int64) error
	PayFixedExpense(ctx context.Context, userID, id int64, t core.Transaction) (core.Transaction, error)

	Ping(ctx context.Context) error
}

var _ Store = (*storage.SQLiteRepository)(nil)

// EventPublisher delivers transaction events to the export pipeline.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// Service orchestrates famfin use cases across the store, the event
// publisher and the report cache.
type Service struct {
	store   Store
	events  EventPublisher
	reports cache.Cache[any]
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes transaction events through p. Without it writes are
// only stored locally.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithReportCache caches health, summary and dashboard reads.
func WithReportCache(c cache.Cache[any]) Option {
	return func(s *Service) { s.reports = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether the store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

func (s *Service) today() core.Date {
	return core.DateOf(s.now().UTC())
}

func reportKey(userID int64, report, month string) string {
	return fmt.Sprintf("u%d:%s:%s", userID, report, month)
}

// invalidate drops every cached report of userID.
func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.reports == nil {
		return
	}
	prefix := fmt.Sprintf("u%d:", userID)
	n := s.reports.DeleteFunc(func(key string) bool { return strings.HasPrefix(key, prefix) })
	if n > 0 {
		log.FromContext(ctx).WithComponent(log.ComponentCache).DebugContext(ctx, "Report cache invalidated",
			log.NewFields().WithUser(userID).With("entries", n).ToSlice()...)
	}
}

func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	if s.reports != nil {
		if v, ok := s.reports.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s.reports != nil {
		s.reports.Set(key, v)
	}
	return v, nil
}

// publish sends an event for a committed transaction. Failures are logged
// and never fail the request: the row is already stored.
func (s *Service) publish(ctx context.Context, kind amqp.EventKind, t core.Transaction) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAMQP)
	if s.events == nil {
		logger.DebugContext(ctx, "No event publisher configured, skipping transaction event",
			log.FieldEntityID, t.ID)
		return
	}

	ev := amqp.NewTransactionEvent(kind, t, s.now())
	if err := s.events.PublishTransactionEvent(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.NewFields().
				WithUser(t.UserID).
				WithEntity("transaction", t.ID).
				With("event", string(kind)).
				WithError(err).
				ToSlice()...)
	}
}

// posted finishes a stored transaction: it logs it, drops stale reports and
// publishes the created event.
func (s *Service) posted(ctx context.Context, t core.Transaction) {
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionPosted(ctx, t.UserID, t.ID, string(t.Type), t.Category, t.Amount.Cents)
	s.invalidate(ctx, t.UserID)
	s.publish(ctx, amqp.EventTransactionCreated, t)
}
