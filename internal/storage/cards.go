package storage

import (
	"context"
	"database/sql"
	"fmt"

	"famfin/internal/core"
	"famfin/internal/finance"
)

const cardColumns = `id, user_id, name, limit_cents, current_balance_cents, closing_day, due_day, monthly_rate`

func scanCard(s scanner) (core.CreditCard, error) {
	var c core.CreditCard
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Limit.Cents, &c.CurrentBalance.Cents,
		&c.ClosingDay, &c.DueDay, &c.MonthlyRate); err != nil {
		return core.CreditCard{}, mapErr(err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO credit_cards
		(user_id, name, limit_cents, current_balance_cents, closing_day, due_day, monthly_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, c.Limit.Cents, c.CurrentBalance.Cents, c.ClosingDay, c.DueDay, c.MonthlyRate)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("create card: %w", mapErr(err))
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("create card id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, userID, id int64) (core.CreditCard, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get card %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context, userID int64) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	out := make([]core.CreditCard, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, userID, id int64) error {
	err := requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM credit_cards WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	return nil
}

func adjustCard(ctx context.Context, q querier, userID, id int64, delta core.Money) error {
	err := requireAffected(q.ExecContext(ctx,
		`UPDATE credit_cards SET current_balance_cents = current_balance_cents + ? WHERE id = ? AND user_id = ?`,
		delta.Cents, id, userID))
	if err != nil {
		return fmt.Errorf("card %d: %w", id, err)
	}
	return nil
}

const purchaseColumns = `p.id, p.card_id, p.description, p.total_cents, p.installments,
	p.paid_installments, p.purchase_date, p.member_id, p.status`

func scanPurchase(s scanner) (core.CardPurchase, error) {
	var (
		p            core.CardPurchase
		date, status string
		member       sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.CardID, &p.Description, &p.Total.Cents, &p.Installments,
		&p.PaidInstallments, &date, &member, &status); err != nil {
		return core.CardPurchase{}, mapErr(err)
	}
	d, err := parseDateText(date)
	if err != nil {
		return core.CardPurchase{}, err
	}
	p.PurchaseDate = d
	p.MemberID = idPtr(member)
	p.Status = core.Status(status)
	return p, nil
}

// CreatePurchase stores an installment purchase and charges its unpaid part
// to the card.
func (r *SQLiteRepository) CreatePurchase(ctx context.Context, userID int64, p core.CardPurchase) (core.CardPurchase, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := memberOwned(ctx, tx, userID, p.MemberID); err != nil {
			return err
		}
		outstanding := p.Total.Cents - p.Total.Cents*int64(p.PaidInstallments)/int64(p.Installments)
		if err := adjustCard(ctx, tx, userID, p.CardID, core.Money{Cents: outstanding}); err != nil {
			return err
		}
		status := core.StatusActive
		if p.PaidInstallments >= p.Installments {
			status = core.StatusPaid
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO card_purchases
			(card_id, description, total_cents, installments, paid_installments, purchase_date, member_id, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.CardID, p.Description, p.Total.Cents, p.Installments, p.PaidInstallments,
			dateText(p.PurchaseDate), nullID(p.MemberID), string(status))
		if err != nil {
			return mapErr(err)
		}
		p.ID, err = res.LastInsertId()
		p.Status = status
		return err
	})
	if err != nil {
		return core.CardPurchase{}, fmt.Errorf("create purchase: %w", err)
	}
	return p, nil
}

// ListPurchases returns the purchases of one card, or of every card of the
// user when cardID is 0.
func (r *SQLiteRepository) ListPurchases(ctx context.Context, userID, cardID int64) ([]core.CardPurchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM card_purchases p
		JOIN credit_cards c ON c.id = p.card_id
		WHERE c.user_id = ?`
	args := []any{userID}
	if cardID != 0 {
		query += ` AND p.card_id = ?`
		args = append(args, cardID)
	}
	query += ` ORDER BY p.purchase_date, p.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	out := make([]core.CardPurchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PayInstallment marks the next installment of a purchase as paid and
// releases that amount from the card balance. The last installment absorbs
// any rounding remainder so the total is released exactly.
func (r *SQLiteRepository) PayInstallment(ctx context.Context, userID, cardID, purchaseID int64) (core.CardPurchase, error) {
	var out core.CardPurchase
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPurchase(tx.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM card_purchases p
			JOIN credit_cards c ON c.id = p.card_id
			WHERE p.id = ? AND p.card_id = ? AND c.user_id = ?`, purchaseID, cardID, userID))
		if err != nil {
			return err
		}
		if p.PaidInstallments >= p.Installments {
			return fmt.Errorf("%w: purchase %d is already paid", ErrConflict, purchaseID)
		}

		amount := finance.InstallmentCents(p.Total.Cents, p.Installments, p.PaidInstallments+1)
		if err := adjustCard(ctx, tx, userID, cardID, core.Money{Cents: -amount}); err != nil {
			return err
		}

		p.PaidInstallments++
		if p.PaidInstallments == p.Installments {
			p.Status = core.StatusPaid
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE card_purchases SET paid_installments = ?, status = ? WHERE id = ?`,
			p.PaidInstallments, string(p.Status), p.ID); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return core.CardPurchase{}, fmt.Errorf("pay installment: %w", err)
	}
	return out, nil
}
