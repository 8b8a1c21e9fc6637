package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"famfin/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	From     core.Date // inclusive
	To       core.Date // exclusive
	Type     core.TransactionType
	Category string
	Limit    int
}

const transactionColumns = `id, user_id, type, category, description, amount_cents, date,
	payment_method, account_id, credit_card_id, member_id, created_at`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                         core.Transaction
		typ, date, method, create string
		account, card, member     sql.NullInt64
	)
	if err := s.Scan(&t.ID, &t.UserID, &typ, &t.Category, &t.Description, &t.Amount.Cents, &date,
		&method, &account, &card, &member, &create); err != nil {
		return core.Transaction{}, mapErr(err)
	}
	d, err := parseDateText(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Method = core.PaymentMethod(method)
	t.Date = d
	t.AccountID = idPtr(account)
	t.CardID = idPtr(card)
	t.MemberID = idPtr(member)
	t.CreatedAt, _ = parseTimestamp(create)
	return t, nil
}

// CreateTransaction stores t and applies it to the linked account or card
// in the same database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = postTransaction(ctx, tx, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func postTransaction(ctx context.Context, q querier, t core.Transaction) (core.Transaction, error) {
	if err := memberOwned(ctx, q, t.UserID, t.MemberID); err != nil {
		return core.Transaction{}, err
	}
	if t.AccountID != nil {
		if err := adjustAccount(ctx, q, t.UserID, *t.AccountID, t.SignedAmount()); err != nil {
			return core.Transaction{}, err
		}
	}
	if t.CardID != nil {
		// Card balances are debt: spending raises them, refunds lower them.
		delta := core.Money{Cents: -t.SignedAmount().Cents}
		if err := adjustCard(ctx, q, t.UserID, *t.CardID, delta); err != nil {
			return core.Transaction{}, err
		}
	}

	res, err := q.ExecContext(ctx, `INSERT INTO transactions
		(user_id, type, category, description, amount_cents, date, payment_method, account_id, credit_card_id, member_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Category, t.Description, t.Amount.Cents, dateText(t.Date),
		string(t.Method), nullID(t.AccountID), nullID(t.CardID), nullID(t.MemberID))
	if err != nil {
		return core.Transaction{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, err
	}
	return scanTransaction(q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// It returns the deleted row.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	var deleted core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
		if err != nil {
			return err
		}
		if t.AccountID != nil {
			// The account may have been deleted since; nothing to reverse then.
			if err := adjustAccount(ctx, tx, userID, *t.AccountID, core.Money{Cents: -t.SignedAmount().Cents}); err != nil && !isNotFound(err) {
				return err
			}
		}
		if t.CardID != nil {
			if err := adjustCard(ctx, tx, userID, *t.CardID, t.SignedAmount()); err != nil && !isNotFound(err) {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return err
		}
		deleted = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return deleted, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !f.From.IsEmpty() {
		where = append(where, "date >= ?")
		args = append(args, dateText(f.From))
	}
	if !f.To.IsEmpty() {
		where = append(where, "date < ?")
		args = append(args, dateText(f.To))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
