// Package notify sends reminder mails over SMTP.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"famfin/internal/core"
	"famfin/internal/log"
)

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends fixed-expense reminders.
type Mailer struct {
	cfg  SMTPConfig
	send func(e *email.Email, addr string, a smtp.Auth) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{
		cfg: cfg,
		send: func(e *email.Email, addr string, a smtp.Auth) error {
			return e.Send(addr, a)
		},
	}
}

// SendOverdueReminder mails user about a fixed expense whose due date has passed.
func (m *Mailer) SendOverdueReminder(ctx context.Context, user core.User, fe core.FixedExpense, due core.Date) error {
	e := overdueMessage(m.cfg.From, user, fe, due)

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	var a smtp.Auth
	if m.cfg.Username != "" {
		a = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentMail)
	if err := m.send(e, addr, a); err != nil {
		logger.ErrorContext(ctx, "Failed to send reminder",
			log.NewFields().WithUser(user.ID).WithEntity("fixed_expense", fe.ID).WithError(err).ToSlice()...)
		return fmt.Errorf("send reminder to %s: %w", user.Email, err)
	}
	logger.InfoContext(ctx, "Reminder sent",
		log.NewFields().WithUser(user.ID).WithEntity("fixed_expense", fe.ID).WithOperation(log.OpRemind).ToSlice()...)
	return nil
}

func overdueMessage(from string, user core.User, fe core.FixedExpense, due core.Date) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{user.Email}
	e.Subject = fmt.Sprintf("Overdue: %s", fe.Name)
	e.Text = []byte(fmt.Sprintf(
		"Hi %s,\n\n"+
			"%s (%s) of %s was due on %s and has not been paid yet.\n",
		user.Name, fe.Name, fe.Category, fe.Amount.String(), due.Format(time.DateOnly)))
	if fe.AutoPay {
		e.Text = append(e.Text, []byte("Automatic payment is enabled but did not go through.\n")...)
	}
	e.Text = append(e.Text, []byte("\nfamfin\n")...)
	return e
}
