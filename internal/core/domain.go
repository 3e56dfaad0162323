package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Paid    Status = "paid"
	Pending Status = "pending"

	Monthly Recurrence = "monthly"
	Weekly  Recurrence = "weekly"
	Yearly  Recurrence = "yearly"
	Once    Recurrence = "once"

	Cash     PaymentMethod = "cash"
	Debit    PaymentMethod = "debit"
	Credit   PaymentMethod = "credit"
	Transfer PaymentMethod = "transfer"

	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"
	KindBoth    CategoryKind = "both"

	Light Theme = "light"
	Dark  Theme = "dark"

	// DefaultAlertPercent is the near-limit threshold used when a budget has none.
	DefaultAlertPercent = 80
)

type (
	TransactionType string
	Status          string
	Recurrence      string
	PaymentMethod   string
	CategoryKind    string
	Theme           string

	Money struct {
		Cents int64
	}

	Installments struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	}

	Transaction struct {
		ID            string          `json:"id"`
		Type          TransactionType `json:"type"`
		Value         Money           `json:"value_cents"`
		Date          time.Time       `json:"date"`
		CategoryID    string          `json:"category_id"`
		AccountID     string          `json:"account_id"`
		Description   string          `json:"description"`
		Recurring     bool            `json:"recurring"`
		Recurrence    Recurrence      `json:"recurrence"`
		Status        Status          `json:"status"`
		DueDate       *time.Time      `json:"due_date,omitempty"`
		PaidAt        *time.Time      `json:"paid_at,omitempty"`
		CreatedBy     Person          `json:"created_by"`
		PaidBy        Person          `json:"paid_by"`
		AssignedTo    Person          `json:"assigned_to"`
		Installments  *Installments   `json:"installments,omitempty"`
		PaymentMethod PaymentMethod   `json:"payment_method"`
		Tags          []string        `json:"tags,omitempty"`
	}

	// TransactionPatch lists the fields an existing transaction may change.
	// Nil fields are left untouched.
	TransactionPatch struct {
		Status      *Status
		PaidAt      *time.Time
		ClearPaidAt bool
	}

	Category struct {
		ID    string       `json:"id"`
		Name  string       `json:"name"`
		Kind  CategoryKind `json:"kind"`
		Icon  string       `json:"icon"`
		Color string       `json:"color"`
	}

	Account struct {
		ID             string        `json:"id"`
		Name           string        `json:"name"`
		Kind           PaymentMethod `json:"kind"`
		Owner          Person        `json:"owner"`
		InitialBalance Money         `json:"initial_balance_cents"`
	}

	Budget struct {
		ID           string `json:"id"`
		Month        Month  `json:"month"`
		CategoryID   string `json:"category_id"`
		Limit        Money  `json:"limit_cents"`
		Owner        Person `json:"owner"`
		AlertPercent int    `json:"alert_percent"`
	}

	FixedBill struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Value       Money  `json:"value_cents"`
		CategoryID  string `json:"category_id"`
		AccountID   string `json:"account_id"`
		AssignedTo  Person `json:"assigned_to"`
		DayOfMonth  int    `json:"day_of_month"`
		Active      bool   `json:"active"`
	}

	Settlement struct {
		ID     string    `json:"id"`
		Month  Month     `json:"month"`
		From   Person    `json:"from"`
		To     Person    `json:"to"`
		Amount Money     `json:"amount_cents"`
		Date   time.Time `json:"date"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidPerson      = errors.New("invalid person")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidPayer       = errors.New("payer must be one of the two members")
	ErrInvalidCreator     = errors.New("creator must be one of the two members")
	ErrInvalidBeneficiary = errors.New("beneficiary must be a member or the household")
	ErrEmptyID            = errors.New("empty id")
	ErrEmptyCategory      = errors.New("empty category reference")
	ErrEmptyAccount       = errors.New("empty account reference")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidDay         = errors.New("invalid day of month")
	ErrInvalidAlert       = errors.New("alert percentage must be between 1 and 100")
	ErrInvalidInstallment = errors.New("invalid installments")
	ErrInvalidTheme       = errors.New("invalid theme")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
}

func (s Status) Validate() error {
	switch s {
	case Paid, Pending:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
}

func (t Theme) Validate() error {
	switch t {
	case Light, Dark:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidTheme, string(t))
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate enforces the ledger invariants for a transaction.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Value.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if !t.CreatedBy.IsMember() {
		return ErrInvalidCreator
	}
	if !t.PaidBy.IsMember() {
		return ErrInvalidPayer
	}
	if !t.AssignedTo.IsValid() {
		return ErrInvalidBeneficiary
	}
	if in := t.Installments; in != nil && (in.Total < 1 || in.Current < 1 || in.Current > in.Total) {
		return ErrInvalidInstallment
	}
	return nil
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool { return t.Type == Expense }

// Clone returns a deep copy.
func (t Transaction) Clone() Transaction {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.PaidAt != nil {
		p := *t.PaidAt
		c.PaidAt = &p
	}
	if t.Installments != nil {
		in := *t.Installments
		c.Installments = &in
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// Validate checks the patch fields that carry values.
func (p TransactionPatch) Validate() error {
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	if p.PaidAt != nil && p.ClearPaidAt {
		return errors.New("patch cannot both set and clear paid_at")
	}
	return nil
}

// Apply overwrites t's fields with the patch, field by field.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	out := t.Clone()
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.PaidAt != nil {
		at := *p.PaidAt
		out.PaidAt = &at
	}
	if p.ClearPaidAt {
		out.PaidAt = nil
	}
	return out
}

// Key identifies the (category, month, owner) slot a budget occupies.
func (b Budget) Key() string {
	return b.CategoryID + "|" + b.Month.String() + "|" + b.Owner.String()
}

// Alert returns the near-limit threshold, defaulting to DefaultAlertPercent.
func (b Budget) Alert() int {
	if b.AlertPercent == 0 {
		return DefaultAlertPercent
	}
	return b.AlertPercent
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptyID
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	if !b.Owner.IsValid() {
		return ErrInvalidPerson
	}
	if b.AlertPercent < 0 || b.AlertPercent > 100 {
		return ErrInvalidAlert
	}
	return nil
}

func (f FixedBill) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return ErrEmptyID
	}
	if len(strings.TrimSpace(f.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := f.Value.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(f.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(f.AccountID) == "" {
		return ErrEmptyAccount
	}
	if !f.AssignedTo.IsValid() {
		return ErrInvalidBeneficiary
	}
	if f.DayOfMonth < 1 || f.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (s Settlement) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if err := s.Month.Validate(); err != nil {
		return err
	}
	if !s.From.IsMember() || !s.To.IsMember() || s.From == s.To {
		return ErrInvalidPerson
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
