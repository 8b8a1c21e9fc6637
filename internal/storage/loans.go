package storage

import (
	"context"
	"database/sql"
	"fmt"

	"famfin/internal/core"
)

const loanColumns = `id, user_id, name, principal_cents, annual_rate, term_months, monthly_payment_cents,
	remaining_balance_cents, start_date, end_date, status`

func scanLoan(s scanner) (core.Loan, error) {
	var (
		l                  core.Loan
		start, end, status string
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.Name, &l.Principal.Cents, &l.AnnualRate, &l.TermMonths,
		&l.MonthlyPayment.Cents, &l.RemainingBalance.Cents, &start, &end, &status); err != nil {
		return core.Loan{}, mapErr(err)
	}
	var err error
	if l.StartDate, err = parseDateText(start); err != nil {
		return core.Loan{}, err
	}
	if l.EndDate, err = parseDateText(end); err != nil {
		return core.Loan{}, err
	}
	l.Status = core.Status(status)
	return l, nil
}

func (r *SQLiteRepository) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO loans
		(user_id, name, principal_cents, annual_rate, term_months, monthly_payment_cents,
		 remaining_balance_cents, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.Name, l.Principal.Cents, l.AnnualRate, l.TermMonths, l.MonthlyPayment.Cents,
		l.RemainingBalance.Cents, dateText(l.StartDate), dateText(l.EndDate), string(l.Status))
	if err != nil {
		return core.Loan{}, fmt.Errorf("create loan: %w", mapErr(err))
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return core.Loan{}, fmt.Errorf("create loan id: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) GetLoan(ctx context.Context, userID, id int64) (core.Loan, error) {
	l, err := scanLoan(r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Loan{}, fmt.Errorf("get loan %d: %w", id, err)
	}
	return l, nil
}

func (r *SQLiteRepository) ListLoans(ctx context.Context, userID int64) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE user_id = ? ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	out := make([]core.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteLoan(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM loans WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete loan %d: %w", id, err)
	}
	return nil
}

// LoanPayment is the outcome of ApplyLoanPayment.
type LoanPayment struct {
	Loan    core.Loan  `json:"loan"`
	Applied core.Money `json:"applied"`
	// Posted is the stored transaction, nil when none was requested.
	Posted *core.Transaction `json:"transaction,omitempty"`
}

// ApplyLoanPayment lowers the remaining balance by amount, capped at what is
// left, and marks the loan paid when it reaches zero. When post is non-nil
// it is stored as a transaction for the applied amount in the same database
// transaction.
func (r *SQLiteRepository) ApplyLoanPayment(ctx context.Context, userID, loanID int64, amount core.Money, post *core.Transaction) (LoanPayment, error) {
	var out LoanPayment
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		l, err := scanLoan(tx.QueryRowContext(ctx,
			`SELECT `+loanColumns+` FROM loans WHERE id = ? AND user_id = ?`, loanID, userID))
		if err != nil {
			return err
		}
		if l.Status == core.StatusPaid || l.RemainingBalance.Cents == 0 {
			return fmt.Errorf("%w: loan %d is already paid", ErrConflict, loanID)
		}

		applied := amount
		if applied.Cents > l.RemainingBalance.Cents {
			applied = l.RemainingBalance
		}
		l.RemainingBalance = l.RemainingBalance.Sub(applied)
		if l.RemainingBalance.Cents == 0 {
			l.Status = core.StatusPaid
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE loans SET remaining_balance_cents = ?, status = ? WHERE id = ?`,
			l.RemainingBalance.Cents, string(l.Status), l.ID); err != nil {
			return err
		}
		if post != nil {
			t := *post
			t.Amount = applied
			stored, err := postTransaction(ctx, tx, t)
			if err != nil {
				return err
			}
			out.Posted = &stored
		}
		out.Loan, out.Applied = l, applied
		return nil
	})
	if err != nil {
		return LoanPayment{}, fmt.Errorf("apply loan payment: %w", err)
	}
	return out, nil
}
