package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	MethodCash     PaymentMethod = "cash"
	MethodDebit    PaymentMethod = "debit"
	MethodCredit   PaymentMethod = "credit"
	MethodTransfer PaymentMethod = "transfer"
	MethodPix      PaymentMethod = "pix"
	MethodOther    PaymentMethod = "other"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Cash       AccountType = "cash"
	Investment AccountType = "investment"
)

const (
	StatusActive    Status = "active"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
)

type (
	Frequency       string
	TransactionType string
	PaymentMethod   string
	AccountType     string
	Status          string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	FamilyMember struct {
		ID           int64  `json:"id"`
		UserID       int64  `json:"userId"`
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
	}

	Account struct {
		ID      int64       `json:"id"`
		UserID  int64       `json:"userId"`
		Name    string      `json:"name"`
		Type    AccountType `json:"type"`
		Balance Money       `json:"balance"` // may be negative (overdraft)
	}

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		Method      PaymentMethod   `json:"paymentMethod"`
		AccountID   *int64          `json:"accountId,omitempty"`
		CardID      *int64          `json:"creditCardId,omitempty"`
		MemberID    *int64          `json:"familyMemberId,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	CreditCard struct {
		ID             int64   `json:"id"`
		UserID         int64   `json:"userId"`
		Name           string  `json:"name"`
		Limit          Money   `json:"limit"`
		CurrentBalance Money   `json:"currentBalance"`
		ClosingDay     int     `json:"closingDay"`
		DueDay         int     `json:"dueDay"`
		MonthlyRate    float64 `json:"monthlyRate"` // percent
	}

	CardPurchase struct {
		ID               int64  `json:"id"`
		CardID           int64  `json:"creditCardId"`
		Description      string `json:"description"`
		Total            Money  `json:"totalAmount"`
		Installments     int    `json:"installments"`
		PaidInstallments int    `json:"paidInstallments"`
		PurchaseDate     Date   `json:"purchaseDate"`
		MemberID         *int64 `json:"familyMemberId,omitempty"`
		Status           Status `json:"status"`
	}

	Loan struct {
		ID               int64   `json:"id"`
		UserID           int64   `json:"userId"`
		Name             string  `json:"name"`
		Principal        Money   `json:"principal"`
		AnnualRate       float64 `json:"annualRate"` // percent
		TermMonths       int     `json:"termMonths"`
		MonthlyPayment   Money   `json:"monthlyPayment"`
		RemainingBalance Money   `json:"remainingBalance"`
		StartDate        Date    `json:"startDate"`
		EndDate          Date    `json:"endDate"`
		Status           Status  `json:"status"`
	}

	ThirdPartyLoan struct {
		ID             int64   `json:"id"`
		UserID         int64   `json:"userId"`
		Lender         string  `json:"lender"`
		Principal      Money   `json:"principal"`
		MonthlyRate    float64 `json:"monthlyRate"` // percent
		StartDate      Date    `json:"startDate"`
		Notes          string  `json:"notes"`
		CurrentBalance Money   `json:"currentBalance"`
		IsPaid         bool    `json:"isPaid"`
	}

	ThirdPartyPayment struct {
		ID     int64  `json:"id"`
		LoanID int64  `json:"loanId"`
		Amount Money  `json:"amount"`
		Date   Date   `json:"date"`
		Note   string `json:"note"`
	}

	Budget struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"userId"`
		Category string `json:"category"`
		Month    string `json:"month"` // YYYY-MM
		Limit    Money  `json:"limit"`
	}

	Goal struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"userId"`
		Name     string `json:"name"`
		Target   Money  `json:"targetAmount"`
		Current  Money  `json:"currentAmount"`
		Deadline Date   `json:"deadline"` // optional
		Status   Status `json:"status"`
	}

	FixedExpense struct {
		ID        int64         `json:"id"`
		UserID    int64         `json:"userId"`
		Name      string        `json:"name"`
		Category  string        `json:"category"`
		Amount    Money         `json:"amount"`
		DueDay    int           `json:"dueDay"`
		DueMonth  int           `json:"dueMonth"` // only for yearly
		Frequency Frequency     `json:"frequency"`
		Method    PaymentMethod `json:"paymentMethod"`
		AutoPay   bool          `json:"autoPay"`
		AccountID *int64        `json:"accountId,omitempty"`
		LastPaid  Date          `json:"lastPaidDate"` // optional
	}
)

// ErrValidation is wrapped by every entity validation error.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidDay       = fmt.Errorf("%w: invalid day", ErrValidation)
	ErrInvalidMonth     = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidRate      = fmt.Errorf("%w: invalid rate", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidType      = fmt.Errorf("%w: invalid type", ErrValidation)
	ErrInvalidMethod    = fmt.Errorf("%w: invalid payment method", ErrValidation)
	ErrInvalidFrequency = fmt.Errorf("%w: invalid frequency", ErrValidation)
	ErrInvalidTerm      = fmt.Errorf("%w: invalid term", ErrValidation)
	ErrZeroDate         = fmt.Errorf("%w: date cannot be zero", ErrValidation)
)

const maxTextLen = 200

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func requireText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > maxTextLen {
		return fmt.Errorf("%w: text too long (max %d characters)", ErrValidation, maxTextLen)
	}
	return nil
}

func validDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (u User) Validate() error {
	if err := requireText(u.Name, ErrEmptyName); err != nil {
		return err
	}
	email := strings.TrimSpace(u.Email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	return nil
}

func (m FamilyMember) Validate() error {
	return requireText(m.Name, ErrEmptyName)
}

func (a Account) Validate() error {
	if err := requireText(a.Name, ErrEmptyName); err != nil {
		return err
	}
	switch a.Type {
	case Checking, Savings, Cash, Investment:
	default:
		return ErrInvalidType
	}
	return nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodDebit, MethodCredit, MethodTransfer, MethodPix, MethodOther:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if err := requireText(t.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if len(t.Description) > maxTextLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, maxTextLen)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}

// SignedAmount is the effect of the transaction on an account balance.
func (t Transaction) SignedAmount() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (c CreditCard) Validate() error {
	if err := requireText(c.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	if err := validDay(c.ClosingDay); err != nil {
		return err
	}
	if err := validDay(c.DueDay); err != nil {
		return err
	}
	if c.MonthlyRate < 0 {
		return ErrInvalidRate
	}
	return nil
}

// AvailableCredit is the unused part of the card limit.
func (c CreditCard) AvailableCredit() Money {
	return Money{Cents: c.Limit.Cents - c.CurrentBalance.Cents}
}

func (p CardPurchase) Validate() error {
	if err := requireText(p.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := p.Total.Validate(); err != nil {
		return err
	}
	if p.Installments < 1 || p.Installments > 72 {
		return fmt.Errorf("%w: installments must be between 1 and 72", ErrValidation)
	}
	if p.PaidInstallments < 0 || p.PaidInstallments > p.Installments {
		return fmt.Errorf("%w: paid installments out of range", ErrValidation)
	}
	return p.PurchaseDate.Validate()
}

func (l Loan) Validate() error {
	if err := requireText(l.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := l.Principal.Validate(); err != nil {
		return err
	}
	if l.AnnualRate < 0 {
		return ErrInvalidRate
	}
	if l.TermMonths < 1 {
		return ErrInvalidTerm
	}
	return l.StartDate.Validate()
}

func (l ThirdPartyLoan) Validate() error {
	if err := requireText(l.Lender, ErrEmptyName); err != nil {
		return err
	}
	if err := l.Principal.Validate(); err != nil {
		return err
	}
	if l.MonthlyRate < 0 {
		return ErrInvalidRate
	}
	return l.StartDate.Validate()
}

func (p ThirdPartyPayment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return p.Date.Validate()
}

func (b Budget) Validate() error {
	if err := requireText(b.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01", b.Month); err != nil {
		return ErrInvalidMonth
	}
	return b.Limit.Validate()
}

func (g Goal) Validate() error {
	if err := requireText(g.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (fe FixedExpense) Validate() error {
	if err := requireText(fe.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := requireText(fe.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if err := fe.Amount.Validate(); err != nil {
		return err
	}
	if err := validDay(fe.DueDay); err != nil {
		return err
	}
	switch fe.Frequency {
	case Monthly:
	case Yearly:
		if fe.DueMonth < 1 || fe.DueMonth > 12 {
			return ErrInvalidMonth
		}
	default:
		return ErrInvalidFrequency
	}
	if !fe.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}
