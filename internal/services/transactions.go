package services

import (
	"context"
	"strings"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/finance"
	"famfin/internal/storage"
)

// TransactionQuery filters ListTransactions. Month is YYYY-MM; empty fields
// match everything.
type TransactionQuery struct {
	Month    string
	Type     core.TransactionType
	Category string
}

func (q TransactionQuery) filter() (storage.TransactionFilter, error) {
	f := storage.TransactionFilter{
		Type:     q.Type,
		Category: strings.TrimSpace(q.Category),
	}
	switch q.Type {
	case "", core.Income, core.Expense:
	default:
		return storage.TransactionFilter{}, core.ErrInvalidType
	}
	if q.Month != "" {
		first, err := finance.ParseMonthKey(q.Month)
		if err != nil {
			return storage.TransactionFilter{}, err
		}
		start, end := finance.MonthBounds(first)
		f.From, f.To = core.DateOf(start), core.DateOf(end)
	}
	return f, nil
}

// ListTransactions returns the user's transactions in chronological order.
func (s *Service) ListTransactions(ctx context.Context, userID int64, q TransactionQuery) ([]core.Transaction, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, userID, f)
}

// CreateTransaction stores t for userID, applying it to the linked account
// or card.
func (s *Service) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.ID = 0
	if t.Date.IsEmpty() {
		t.Date = s.today()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.posted(ctx, t)
	return t, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id int64) error {
	t, err := s.store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	s.publish(ctx, amqp.EventTransactionDeleted, t)
	return nil
}
