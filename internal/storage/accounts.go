package storage

import (
	"context"
	"fmt"

	"famfin/internal/core"
)

const accountColumns = `id, user_id, name, type, balance_cents`

func scanAccount(s scanner) (core.Account, error) {
	var a core.Account
	var typ string
	if err := s.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Balance.Cents); err != nil {
		return core.Account{}, mapErr(err)
	}
	a.Type = core.AccountType(typ)
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, balance_cents) VALUES (?, ?, ?, ?)`,
		a.UserID, a.Name, string(a.Type), a.Balance.Cents)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", mapErr(err))
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account id: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]core.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAccount renames or retypes an account. The balance is only ever
// changed by posting transactions.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	err := requireAffected(r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ? WHERE id = ? AND user_id = ?`,
		a.Name, string(a.Type), a.ID, a.UserID))
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return r.GetAccount(ctx, a.UserID, a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

// adjustAccount adds delta to the balance with an increment update so
// concurrent posts cannot overwrite each other.
func adjustAccount(ctx context.Context, q querier, userID, id int64, delta core.Money) error {
	err := requireAffected(q.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ? AND user_id = ?`,
		delta.Cents, id, userID))
	if err != nil {
		return fmt.Errorf("account %d: %w", id, err)
	}
	return nil
}
