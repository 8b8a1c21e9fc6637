package storage

import (
	"context"
	"database/sql"
	"fmt"

	"famfin/internal/core"
)

// LedgerFunc recomputes the balance snapshot of a third-party loan from its
// complete payment history.
type LedgerFunc func(loan core.ThirdPartyLoan, payments []core.ThirdPartyPayment) (balance core.Money, paid bool, err error)

const thirdPartyColumns = `id, user_id, lender, principal_cents, monthly_rate, start_date, notes,
	current_balance_cents, is_paid`

func scanThirdParty(s scanner) (core.ThirdPartyLoan, error) {
	var (
		l     core.ThirdPartyLoan
		start string
		paid  int
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.Lender, &l.Principal.Cents, &l.MonthlyRate, &start, &l.Notes,
		&l.CurrentBalance.Cents, &paid); err != nil {
		return core.ThirdPartyLoan{}, mapErr(err)
	}
	d, err := parseDateText(start)
	if err != nil {
		return core.ThirdPartyLoan{}, err
	}
	l.StartDate = d
	l.IsPaid = paid != 0
	return l, nil
}

func (r *SQLiteRepository) CreateThirdPartyLoan(ctx context.Context, l core.ThirdPartyLoan) (core.ThirdPartyLoan, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO third_party_loans
		(user_id, lender, principal_cents, monthly_rate, start_date, notes, current_balance_cents, is_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.Lender, l.Principal.Cents, l.MonthlyRate, dateText(l.StartDate), l.Notes,
		l.CurrentBalance.Cents, boolInt(l.IsPaid))
	if err != nil {
		return core.ThirdPartyLoan{}, fmt.Errorf("create third-party loan: %w", mapErr(err))
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return core.ThirdPartyLoan{}, fmt.Errorf("create third-party loan id: %w", err)
	}
	return l, nil
}

func getThirdParty(ctx context.Context, q querier, userID, id int64) (core.ThirdPartyLoan, error) {
	return scanThirdParty(q.QueryRowContext(ctx,
		`SELECT `+thirdPartyColumns+` FROM third_party_loans WHERE id = ? AND user_id = ?`, id, userID))
}

func (r *SQLiteRepository) GetThirdPartyLoan(ctx context.Context, userID, id int64) (core.ThirdPartyLoan, error) {
	l, err := getThirdParty(ctx, r.db, userID, id)
	if err != nil {
		return core.ThirdPartyLoan{}, fmt.Errorf("get third-party loan %d: %w", id, err)
	}
	return l, nil
}

func (r *SQLiteRepository) ListThirdPartyLoans(ctx context.Context, userID int64) ([]core.ThirdPartyLoan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+thirdPartyColumns+` FROM third_party_loans WHERE user_id = ? ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list third-party loans: %w", err)
	}
	defer rows.Close()

	out := make([]core.ThirdPartyLoan, 0)
	for rows.Next() {
		l, err := scanThirdParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan third-party loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteThirdPartyLoan(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM third_party_loans WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete third-party loan %d: %w", id, err)
	}
	return nil
}

func listPayments(ctx context.Context, q querier, loanID int64) ([]core.ThirdPartyPayment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, loan_id, amount_cents, date, note FROM third_party_payments WHERE loan_id = ? ORDER BY date, id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.ThirdPartyPayment, 0)
	for rows.Next() {
		var (
			p    core.ThirdPartyPayment
			date string
		)
		if err := rows.Scan(&p.ID, &p.LoanID, &p.Amount.Cents, &date, &p.Note); err != nil {
			return nil, err
		}
		if p.Date, err = parseDateText(date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListThirdPartyPayments returns the payment history of a loan owned by userID.
func (r *SQLiteRepository) ListThirdPartyPayments(ctx context.Context, userID, loanID int64) ([]core.ThirdPartyPayment, error) {
	if _, err := getThirdParty(ctx, r.db, userID, loanID); err != nil {
		return nil, fmt.Errorf("list payments of loan %d: %w", loanID, err)
	}
	out, err := listPayments(ctx, r.db, loanID)
	if err != nil {
		return nil, fmt.Errorf("list payments of loan %d: %w", loanID, err)
	}
	return out, nil
}

// AddThirdPartyPayment stores a payment and refreshes the loan snapshot
// from the full history inside one database transaction.
func (r *SQLiteRepository) AddThirdPartyPayment(ctx context.Context, userID, loanID int64, p core.ThirdPartyPayment, ledger LedgerFunc) (core.ThirdPartyLoan, core.ThirdPartyPayment, error) {
	var out core.ThirdPartyLoan
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getThirdParty(ctx, tx, userID, loanID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO third_party_payments (loan_id, amount_cents, date, note) VALUES (?, ?, ?, ?)`,
			loanID, p.Amount.Cents, dateText(p.Date), p.Note)
		if err != nil {
			return mapErr(err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		p.LoanID = loanID
		out, err = refreshSnapshot(ctx, tx, userID, loanID, ledger)
		return err
	})
	if err != nil {
		return core.ThirdPartyLoan{}, core.ThirdPartyPayment{}, fmt.Errorf("add third-party payment: %w", err)
	}
	return out, p, nil
}

// DeleteThirdPartyPayment removes a payment and refreshes the loan snapshot.
func (r *SQLiteRepository) DeleteThirdPartyPayment(ctx context.Context, userID, loanID, paymentID int64, ledger LedgerFunc) (core.ThirdPartyLoan, error) {
	var out core.ThirdPartyLoan
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getThirdParty(ctx, tx, userID, loanID); err != nil {
			return err
		}
		if err := requireAffected(tx.ExecContext(ctx,
			`DELETE FROM third_party_payments WHERE id = ? AND loan_id = ?`, paymentID, loanID)); err != nil {
			return err
		}
		var err error
		out, err = refreshSnapshot(ctx, tx, userID, loanID, ledger)
		return err
	})
	if err != nil {
		return core.ThirdPartyLoan{}, fmt.Errorf("delete third-party payment %d: %w", paymentID, err)
	}
	return out, nil
}

func refreshSnapshot(ctx context.Context, q querier, userID, loanID int64, ledger LedgerFunc) (core.ThirdPartyLoan, error) {
	l, err := getThirdParty(ctx, q, userID, loanID)
	if err != nil {
		return core.ThirdPartyLoan{}, err
	}
	payments, err := listPayments(ctx, q, loanID)
	if err != nil {
		return core.ThirdPartyLoan{}, err
	}
	balance, paid, err := ledger(l, payments)
	if err != nil {
		return core.ThirdPartyLoan{}, err
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE third_party_loans SET current_balance_cents = ?, is_paid = ? WHERE id = ?`,
		balance.Cents, boolInt(paid), loanID); err != nil {
		return core.ThirdPartyLoan{}, err
	}
	l.CurrentBalance = balance
	l.IsPaid = paid
	return l, nil
}
