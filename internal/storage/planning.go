package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"famfin/internal/core"
)

// BudgetSpent is a budget plus the expenses booked against it that month.
type BudgetSpent struct {
	Budget core.Budget
	Spent  core.Money
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, month, limit_cents) VALUES (?, ?, ?, ?)`,
		b.UserID, b.Category, b.Month, b.Limit.Cents)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", mapErr(err))
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := requireAffected(r.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, month = ?, limit_cents = ? WHERE id = ? AND user_id = ?`,
		b.Category, b.Month, b.Limit.Cents, b.ID, b.UserID))
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

// ListBudgets returns the budgets of month (YYYY-MM) with the sum of the
// month's expenses in each budget category.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, month string) ([]BudgetSpent, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", core.ErrInvalidMonth)
	}
	from := first.Format(time.DateOnly)
	to := first.AddDate(0, 1, 0).Format(time.DateOnly)

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.category, b.month, b.limit_cents,
		       COALESCE((SELECT SUM(t.amount_cents) FROM transactions t
		                 WHERE t.user_id = b.user_id AND t.type = 'expense'
		                   AND t.category = b.category AND t.date >= ? AND t.date < ?), 0)
		FROM budgets b
		WHERE b.user_id = ? AND b.month = ?
		ORDER BY b.category`, from, to, userID, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]BudgetSpent, 0)
	for rows.Next() {
		var bs BudgetSpent
		if err := rows.Scan(&bs.Budget.ID, &bs.Budget.UserID, &bs.Budget.Category, &bs.Budget.Month,
			&bs.Budget.Limit.Cents, &bs.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}

const goalColumns = `id, user_id, name, target_cents, current_cents, deadline, status`

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g                core.Goal
		deadline, status string
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Current.Cents, &deadline, &status); err != nil {
		return core.Goal{}, mapErr(err)
	}
	d, err := parseDateText(deadline)
	if err != nil {
		return core.Goal{}, err
	}
	g.Deadline = d
	g.Status = core.Status(status)
	return g, nil
}

func goalStatus(g core.Goal) core.Status {
	if g.Current.Cents >= g.Target.Cents {
		return core.StatusCompleted
	}
	return core.StatusActive
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Status = goalStatus(g)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target_cents, current_cents, deadline, status) VALUES (?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target.Cents, g.Current.Cents, dateText(g.Deadline), string(g.Status))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", mapErr(err))
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal id: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY status, deadline, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ContributeGoal adds amount to the goal and completes it once the target is reached.
func (r *SQLiteRepository) ContributeGoal(ctx context.Context, userID, id int64, amount core.Money) (core.Goal, error) {
	var out core.Goal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := requireAffected(tx.ExecContext(ctx, `UPDATE goals
			SET current_cents = current_cents + ?,
			    status = CASE WHEN current_cents + ? >= target_cents THEN 'completed' ELSE 'active' END
			WHERE id = ? AND user_id = ?`, amount.Cents, amount.Cents, id, userID))
		if err != nil {
			return err
		}
		out, err = scanGoal(tx.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("contribute to goal %d: %w", id, err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

const fixedExpenseColumns = `id, user_id, name, category, amount_cents, due_day, due_month, frequency,
	payment_method, auto_pay, account_id, last_paid`

func scanFixedExpense(s scanner) (core.FixedExpense, error) {
	var (
		fe                     core.FixedExpense
		freq, method, lastPaid string
		autoPay                int
		account                sql.NullInt64
	)
	if err := s.Scan(&fe.ID, &fe.UserID, &fe.Name, &fe.Category, &fe.Amount.Cents, &fe.DueDay, &fe.DueMonth,
		&freq, &method, &autoPay, &account, &lastPaid); err != nil {
		return core.FixedExpense{}, mapErr(err)
	}
	d, err := parseDateText(lastPaid)
	if err != nil {
		return core.FixedExpense{}, err
	}
	fe.Frequency = core.Frequency(freq)
	fe.Method = core.PaymentMethod(method)
	fe.AutoPay = autoPay != 0
	fe.AccountID = idPtr(account)
	fe.LastPaid = d
	return fe, nil
}

func (r *SQLiteRepository) CreateFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error) {
	if fe.AccountID != nil {
		if _, err := r.GetAccount(ctx, fe.UserID, *fe.AccountID); err != nil {
			return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
		}
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO fixed_expenses
		(user_id, name, category, amount_cents, due_day, due_month, frequency, payment_method, auto_pay, account_id, last_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fe.UserID, fe.Name, fe.Category, fe.Amount.Cents, fe.DueDay, fe.DueMonth, string(fe.Frequency),
		string(fe.Method), boolInt(fe.AutoPay), nullID(fe.AccountID), dateText(fe.LastPaid))
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", mapErr(err))
	}
	fe.ID, err = res.LastInsertId()
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense id: %w", err)
	}
	return fe, nil
}

func (r *SQLiteRepository) GetFixedExpense(ctx context.Context, userID, id int64) (core.FixedExpense, error) {
	fe, err := scanFixedExpense(r.db.QueryRowContext(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("get fixed expense %d: %w", id, err)
	}
	return fe, nil
}

func (r *SQLiteRepository) queryFixedExpenses(ctx context.Context, query string, args ...any) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.FixedExpense, 0)
	for rows.Next() {
		fe, err := scanFixedExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		out = append(out, fe)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListFixedExpenses(ctx context.Context, userID int64) ([]core.FixedExpense, error) {
	return r.queryFixedExpenses(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE user_id = ? ORDER BY due_day, id`, userID)
}

// ListAllFixedExpenses returns fixed expenses of every user, for the recurring worker.
func (r *SQLiteRepository) ListAllFixedExpenses(ctx context.Context) ([]core.FixedExpense, error) {
	return r.queryFixedExpenses(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses ORDER BY user_id, due_day, id`)
}

func (r *SQLiteRepository) DeleteFixedExpense(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM fixed_expenses WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete fixed expense %d: %w", id, err)
	}
	return nil
}

// PayFixedExpense posts t and stamps the expense as paid on t's date, both
// in one database transaction. It fails with ErrConflict when the expense
// was already stamped on or after that date.
func (r *SQLiteRepository) PayFixedExpense(ctx context.Context, userID, id int64, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		paidOn := dateText(t.Date)
		res, err := tx.ExecContext(ctx,
			`UPDATE fixed_expenses SET last_paid = ? WHERE id = ? AND user_id = ? AND last_paid < ?`,
			paidOn, id, userID, paidOn)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := scanFixedExpense(tx.QueryRowContext(ctx,
				`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE id = ? AND user_id = ?`, id, userID)); err != nil {
				return err
			}
			return fmt.Errorf("%w: fixed expense %d already paid on %s", ErrConflict, id, paidOn)
		}
		out, err = postTransaction(ctx, tx, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("pay fixed expense %d: %w", id, err)
	}
	return out, nil
}
