package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"famfin/internal/core"
	"famfin/internal/log"
	"famfin/internal/storage"
)

// Reminder notifies a user about an unpaid fixed expense.
type Reminder interface {
	SendOverdueReminder(ctx context.Context, user core.User, fe core.FixedExpense, due core.Date) error
}

// ProcessResult counts what one processing run did.
type ProcessResult struct {
	Checked  int
	Paid     int
	Reminded int
	Failed   int
}

// RecurringProcessor pays due auto-pay fixed expenses and reminds users of
// overdue ones.
type RecurringProcessor struct {
	service  *Service
	reminder Reminder
}

// NewRecurringProcessor creates a processor. reminder may be nil, in which
// case overdue expenses are only logged.
func NewRecurringProcessor(service *Service, reminder Reminder) *RecurringProcessor {
	return &RecurringProcessor{
		service:  service,
		reminder: reminder,
	}
}

// ProcessDueExpenses checks every fixed expense of every user against now.
// A failure on one expense is logged and does not stop the run.
func (p *RecurringProcessor) ProcessDueExpenses(ctx context.Context, now time.Time) (ProcessResult, error) {
	if p.service == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentRecurring)

	expenses, err := p.service.store.ListAllFixedExpenses(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list fixed expenses: %w", err)
	}

	logger.InfoContext(ctx, "Processing fixed expenses",
		"total", len(expenses),
		"processing_date", now.Format(time.DateOnly))

	var res ProcessResult
	users := make(map[int64]core.User)
	for _, fe := range expenses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		d, err := FixedExpenseDueness(fe, now)
		if err != nil {
			res.Failed++
			logger.ErrorContext(ctx, "Failed to check fixed expense dueness",
				log.NewFields().WithEntity("fixed_expense", fe.ID).WithError(err).ToSlice()...)
			continue
		}
		if d.Paid || !d.Due {
			continue
		}

		if fe.AutoPay {
			t, err := p.service.payFixedExpense(ctx, fe, core.DateOf(now.UTC()))
			if err != nil {
				if errors.Is(err, storage.ErrConflict) {
					continue
				}
				res.Failed++
				logger.ErrorContext(ctx, "Failed to auto-pay fixed expense",
					log.NewFields().WithUser(fe.UserID).WithEntity("fixed_expense", fe.ID).
						WithOperation(log.OpPay).WithError(err).ToSlice()...)
				continue
			}
			res.Paid++
			logger.InfoContext(ctx, "Auto-paid fixed expense",
				log.NewFields().WithUser(fe.UserID).WithEntity("fixed_expense", fe.ID).
					WithOperation(log.OpPay).
					With("transaction_id", t.ID).
					With(log.FieldAmountCents, fe.Amount.Cents).ToSlice()...)
			continue
		}

		if !d.Overdue {
			continue
		}
		if p.reminder == nil {
			logger.WarnContext(ctx, "Fixed expense overdue",
				log.NewFields().WithUser(fe.UserID).WithEntity("fixed_expense", fe.ID).
					With("due_date", d.DueDate.String()).ToSlice()...)
			continue
		}

		user, ok := users[fe.UserID]
		if !ok {
			user, err = p.service.store.GetUser(ctx, fe.UserID)
			if err != nil {
				res.Failed++
				logger.ErrorContext(ctx, "Failed to load user for reminder",
					log.NewFields().WithUser(fe.UserID).WithError(err).ToSlice()...)
				continue
			}
			users[fe.UserID] = user
		}
		if err := p.reminder.SendOverdueReminder(ctx, user, fe, d.DueDate); err != nil {
			res.Failed++
			logger.ErrorContext(ctx, "Failed to send overdue reminder",
				log.NewFields().WithUser(fe.UserID).WithEntity("fixed_expense", fe.ID).
					WithOperation(log.OpRemind).WithError(err).ToSlice()...)
			continue
		}
		res.Reminded++
	}

	logger.InfoContext(ctx, "Fixed expense processing complete",
		"checked", res.Checked,
		"paid", res.Paid,
		"reminded", res.Reminded,
		"failed", res.Failed)

	return res, nil
}
