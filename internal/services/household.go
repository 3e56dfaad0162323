// Package services provides business logic and orchestration services.
//
// Household ties the ledger store to id generation, the clock, the static
// catalog and change publishing, and exposes the operations the API and the
// CLI call.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"conti/internal/amqp"
	"conti/internal/backup"
	"conti/internal/budget"
	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/ledger"
	applog "conti/internal/log"
	"conti/internal/quickentry"
	"conti/internal/report"
	"conti/internal/settlement"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownAccount  = errors.New("unknown account")
	ErrCategoryType    = errors.New("category does not apply to transaction type")
	ErrAlreadySettled  = errors.New("month already settled")
)

// ValidationError marks input the caller must fix.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error { return &ValidationError{Err: err} }

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Publisher sends ledger change notifications. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
}

// Household orchestrates ledger operations.
type Household struct {
	store     *ledger.Store
	catalog   core.Catalog
	names     core.Names
	publisher Publisher
	newID     func() string
	now       func() time.Time
	logger    *applog.Logger
	reports   *cache.Versioned[report.MonthReport]
	unsub     []func()
}

type Option func(*Household)

func WithPublisher(p Publisher) Option { return func(h *Household) { h.publisher = p } }

func WithIDGenerator(fn func() string) Option { return func(h *Household) { h.newID = fn } }

func WithClock(fn func() time.Time) Option { return func(h *Household) { h.now = fn } }

func WithLogger(l *applog.Logger) Option { return func(h *Household) { h.logger = l } }

const (
	reportCacheSize = 64
	reportCacheTTL  = 10 * time.Minute
)

func NewHousehold(store *ledger.Store, catalog core.Catalog, names core.Names, opts ...Option) *Household {
	h := &Household{
		store:   store,
		catalog: catalog,
		names:   names,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  applog.Discard(),
		reports: cache.NewVersioned[report.MonthReport](reportCacheSize, reportCacheTTL),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent(applog.ComponentService)
	h.unsub = append(h.unsub, store.Subscribe(func(ledger.Event) { h.reports.Invalidate() }))
	if h.publisher != nil {
		h.unsub = append(h.unsub, store.Subscribe(h.publish))
	}
	return h
}

func (h *Household) publish(ev ledger.Event) {
	ctx := context.Background()
	msg := amqp.NewLedgerChangeMessage(ev.Collection, ev.Op, ev.ID, ev.Month)
	if err := h.publisher.PublishLedgerChange(ctx, msg); err != nil {
		// The change is already applied; the worker's periodic backup catches up.
		h.logger.ErrorContext(ctx, "Failed to publish ledger change",
			"collection", ev.Collection, applog.FieldID, ev.ID, applog.FieldError, err)
	}
}

// Close stops listening to the store.
func (h *Household) Close() error {
	for _, cancel := range h.unsub {
		cancel()
	}
	h.unsub = nil
	return nil
}

func (h *Household) Store() *ledger.Store  { return h.store }
func (h *Household) Catalog() core.Catalog { return h.catalog }
func (h *Household) Names() core.Names     { return h.names }
func (h *Household) Now() time.Time        { return h.now() }

// TransactionInput is a new transaction as entered by a user. Zero fields
// take defaults: expense, paid, today, the current user as payer and the
// household as beneficiary.
type TransactionInput struct {
	Type         core.TransactionType `json:"type"`
	Amount       string               `json:"amount"`
	ValueCents   int64                `json:"value_cents"`
	Date         *time.Time           `json:"date,omitempty"`
	CategoryID   string               `json:"category_id"`
	AccountID    string               `json:"account_id"`
	Description  string               `json:"description"`
	Recurring    bool                 `json:"recurring"`
	Recurrence   core.Recurrence      `json:"recurrence"`
	Status       core.Status          `json:"status"`
	DueDate      *time.Time           `json:"due_date,omitempty"`
	PaidBy       core.Person          `json:"paid_by"`
	AssignedTo   core.Person          `json:"assigned_to"`
	Installments *core.Installments   `json:"installments,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
}

const defaultAccount = "a1"

// NewTransaction resolves defaults and checks catalog references without
// touching the store.
func (h *Household) NewTransaction(in TransactionInput) (core.Transaction, error) {
	now := h.now()
	current := h.store.CurrentUser()

	t := core.Transaction{
		ID:           h.newID(),
		Type:         in.Type,
		Value:        core.Cents(in.ValueCents),
		Date:         now,
		CategoryID:   strings.TrimSpace(in.CategoryID),
		AccountID:    strings.TrimSpace(in.AccountID),
		Description:  strings.TrimSpace(in.Description),
		Recurring:    in.Recurring,
		Recurrence:   in.Recurrence,
		Status:       in.Status,
		DueDate:      in.DueDate,
		CreatedBy:    current,
		PaidBy:       in.PaidBy,
		AssignedTo:   in.AssignedTo,
		Installments: in.Installments,
		Tags:         in.Tags,
	}
	if strings.TrimSpace(in.Amount) != "" {
		cents, err := core.ParseDecimalToCents(in.Amount)
		if err != nil {
			return core.Transaction{}, invalid(fmt.Errorf("amount %q: %w", in.Amount, err))
		}
		t.Value = core.Cents(cents)
	}
	if in.Date != nil {
		t.Date = *in.Date
	}
	if t.Type == "" {
		t.Type = core.Expense
	}
	if t.Status == "" {
		t.Status = core.Paid
	}
	if t.PaidBy == 0 {
		t.PaidBy = current
	}
	if t.AssignedTo == 0 {
		t.AssignedTo = core.Household
	}
	if t.AccountID == "" {
		t.AccountID = defaultAccount
	}
	if t.Recurrence == "" {
		t.Recurrence = core.Once
		if t.Recurring {
			t.Recurrence = core.Monthly
		}
	}

	if t.CategoryID != "" {
		cat, ok := h.catalog.Category(t.CategoryID)
		if !ok {
			return core.Transaction{}, invalid(fmt.Errorf("%w: %s", ErrUnknownCategory, t.CategoryID))
		}
		if !cat.AppliesTo(t.Type) {
			return core.Transaction{}, invalid(fmt.Errorf("%w: %s is %s", ErrCategoryType, cat.Name, cat.Kind))
		}
	}
	acct, ok := h.catalog.Account(t.AccountID)
	if !ok {
		return core.Transaction{}, invalid(fmt.Errorf("%w: %s", ErrUnknownAccount, t.AccountID))
	}
	t.PaymentMethod = acct.Kind

	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	return t, nil
}

// CreateTransaction builds and stores a transaction. A persistence warning is
// returned alongside the stored transaction.
func (h *Household) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	t, err := h.NewTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := h.store.AddTransaction(ctx, t); err != nil && !ledger.IsWarning(err) {
		return core.Transaction{}, err
	} else if err != nil {
		return t, err
	}
	h.logger.InfoContext(ctx, "Transaction created",
		applog.FieldID, t.ID,
		applog.FieldAmountCents, t.Value.Cents,
		applog.FieldCategory, t.CategoryID,
		applog.FieldPayer, t.PaidBy.String(),
		applog.FieldBeneficiary, t.AssignedTo.String())
	return t, nil
}

// QuickAdd parses free text into a transaction and stores it.
func (h *Household) QuickAdd(ctx context.Context, text string) (core.Transaction, error) {
	d, err := quickentry.Parse(text, h.catalog, h.names, h.store.CurrentUser())
	if err != nil {
		return core.Transaction{}, invalid(err)
	}
	return h.CreateTransaction(ctx, TransactionInput{
		Type:        d.Type,
		ValueCents:  d.Value.Cents,
		CategoryID:  d.CategoryID,
		Description: d.Description,
		PaidBy:      d.PaidBy,
	})
}

// Pay marks a transaction paid now.
func (h *Household) Pay(ctx context.Context, id string) (bool, error) {
	return h.store.MarkPaid(ctx, id, h.now())
}

// Unpay marks a transaction pending again.
func (h *Household) Unpay(ctx context.Context, id string) (bool, error) {
	return h.store.MarkPending(ctx, id)
}

// Duplicate copies a transaction under a new id dated now.
func (h *Household) Duplicate(ctx context.Context, id string) (core.Transaction, bool, error) {
	return h.store.DuplicateTransaction(ctx, id, h.newID(), h.now())
}

// Delete removes a transaction.
func (h *Household) Delete(ctx context.Context, id string) (bool, error) {
	return h.store.DeleteTransaction(ctx, id)
}

// List returns the transactions of month (all months when m is zero) that
// match term, most recent first.
func (h *Household) List(m core.Month, term string) []core.Transaction {
	txs := h.store.Snapshot().Transactions
	if !m.IsZero() {
		txs = report.InMonth(txs, m)
	}
	return report.Search(txs, term, h.catalog)
}

// Report builds the month view. Results are cached until the ledger changes;
// callers must not modify the returned slices.
func (h *Household) Report(m core.Month, f report.UserFilter) report.MonthReport {
	return h.reports.GetOrCompute(m.String()+"|"+f.String(), func() report.MonthReport {
		return report.Build(h.catalog, h.store.Snapshot().Transactions, m, f)
	})
}

// BudgetInput sets a monthly limit for a category.
type BudgetInput struct {
	Month        core.Month  `json:"month"`
	CategoryID   string      `json:"category_id"`
	Limit        string      `json:"limit"`
	LimitCents   int64       `json:"limit_cents"`
	Owner        core.Person `json:"owner"`
	AlertPercent int         `json:"alert_percent"`
}

// SetBudget stores a budget, replacing the one for the same slot.
func (h *Household) SetBudget(ctx context.Context, in BudgetInput) (core.Budget, error) {
	b := core.Budget{
		ID:           h.newID(),
		Month:        in.Month,
		CategoryID:   strings.TrimSpace(in.CategoryID),
		Limit:        core.Cents(in.LimitCents),
		Owner:        in.Owner,
		AlertPercent: in.AlertPercent,
	}
	if strings.TrimSpace(in.Limit) != "" {
		cents, err := core.ParseDecimalToCents(in.Limit)
		if err != nil {
			return core.Budget{}, invalid(fmt.Errorf("limit %q: %w", in.Limit, err))
		}
		b.Limit = core.Cents(cents)
	}
	if b.Owner == 0 {
		b.Owner = core.Household
	}
	if b.AlertPercent == 0 {
		b.AlertPercent = core.DefaultAlertPercent
	}
	if cat, ok := h.catalog.Category(b.CategoryID); !ok {
		return core.Budget{}, invalid(fmt.Errorf("%w: %s", ErrUnknownCategory, b.CategoryID))
	} else if !cat.AppliesTo(core.Expense) {
		return core.Budget{}, invalid(fmt.Errorf("%w: %s is %s", ErrCategoryType, cat.Name, cat.Kind))
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, invalid(err)
	}
	if err := h.store.AddBudget(ctx, b); err != nil && !ledger.IsWarning(err) {
		return core.Budget{}, err
	} else if err != nil {
		return b, err
	}
	return b, nil
}

// BudgetStatus evaluates every expense category for m.
func (h *Household) BudgetStatus(m core.Month, owner core.Person) []budget.Status {
	snap := h.store.Snapshot()
	return budget.Evaluate(h.catalog.Categories, snap.Budgets, snap.Transactions, m, owner)
}

// FixedBillInput describes a recurring obligation.
type FixedBillInput struct {
	Description string      `json:"description"`
	Amount      string      `json:"amount"`
	ValueCents  int64       `json:"value_cents"`
	CategoryID  string      `json:"category_id"`
	AccountID   string      `json:"account_id"`
	AssignedTo  core.Person `json:"assigned_to"`
	DayOfMonth  int         `json:"day_of_month"`
	Inactive    bool        `json:"inactive"`
}

// AddFixedBill stores a fixed bill template.
func (h *Household) AddFixedBill(ctx context.Context, in FixedBillInput) (core.FixedBill, error) {
	f := core.FixedBill{
		ID:          h.newID(),
		Description: strings.TrimSpace(in.Description),
		Value:       core.Cents(in.ValueCents),
		CategoryID:  strings.TrimSpace(in.CategoryID),
		AccountID:   strings.TrimSpace(in.AccountID),
		AssignedTo:  in.AssignedTo,
		DayOfMonth:  in.DayOfMonth,
		Active:      !in.Inactive,
	}
	if strings.TrimSpace(in.Amount) != "" {
		cents, err := core.ParseDecimalToCents(in.Amount)
		if err != nil {
			return core.FixedBill{}, invalid(fmt.Errorf("amount %q: %w", in.Amount, err))
		}
		f.Value = core.Cents(cents)
	}
	if f.AssignedTo == 0 {
		f.AssignedTo = core.Household
	}
	if f.AccountID == "" {
		f.AccountID = defaultAccount
	}
	if _, ok := h.catalog.Category(f.CategoryID); !ok && f.CategoryID != "" {
		return core.FixedBill{}, invalid(fmt.Errorf("%w: %s", ErrUnknownCategory, f.CategoryID))
	}
	if _, ok := h.catalog.Account(f.AccountID); !ok {
		return core.FixedBill{}, invalid(fmt.Errorf("%w: %s", ErrUnknownAccount, f.AccountID))
	}
	if err := f.Validate(); err != nil {
		return core.FixedBill{}, invalid(err)
	}
	if err := h.store.AddFixedBill(ctx, f); err != nil && !ledger.IsWarning(err) {
		return core.FixedBill{}, err
	} else if err != nil {
		return f, err
	}
	return f, nil
}

// RemoveFixedBill deletes a fixed bill template.
func (h *Household) RemoveFixedBill(ctx context.Context, id string) (bool, error) {
	return h.store.RemoveFixedBill(ctx, id)
}

// SettlementView is the settlement page for one month.
type SettlementView struct {
	Result      settlement.Result   `json:"result"`
	Transfer    settlement.Transfer `json:"transfer"`
	History     []core.Settlement   `json:"history"`
	Recorded    core.Money          `json:"recorded_cents"`
	Outstanding settlement.Transfer `json:"outstanding"`
	Summary     string              `json:"summary"`
}

// PreviewSettlement computes the month's balance without recording anything.
func (h *Household) PreviewSettlement(m core.Month) SettlementView {
	snap := h.store.Snapshot()
	res := settlement.Calculate(snap.Transactions, m)
	tr := res.Transfer()
	recorded := settlement.Recorded(snap.Settlements, m)
	return SettlementView{
		Result:      res,
		Transfer:    tr,
		History:     settlement.History(snap.Settlements, m),
		Recorded:    recorded,
		Outstanding: res.Outstanding(recorded),
		Summary:     tr.Describe(h.names),
	}
}

// ConfirmSettlement records what is still owed for m. A month whose balance
// changed after a settlement gets a record for the difference only; a month
// already fully covered is refused.
func (h *Household) ConfirmSettlement(ctx context.Context, m core.Month) (core.Settlement, error) {
	view := h.PreviewSettlement(m)
	if len(view.Result.Anomalies) == 0 && view.Outstanding.Settled && len(view.History) > 0 {
		return core.Settlement{}, fmt.Errorf("%s: %w", m, ErrAlreadySettled)
	}
	rec, err := settlement.NewRecord(view.Result, view.Recorded, h.newID(), h.now())
	if err != nil {
		return core.Settlement{}, err
	}
	if err := h.store.AddSettlement(ctx, rec); err != nil && !ledger.IsWarning(err) {
		return core.Settlement{}, err
	} else if err != nil {
		return rec, err
	}
	h.logger.InfoContext(ctx, "Settlement recorded",
		applog.FieldID, rec.ID,
		applog.FieldMonth, m.String(),
		applog.FieldAmountCents, rec.Amount.Cents,
		"from", rec.From.String(),
		"to", rec.To.String())
	return rec, nil
}

// Settlements returns every recorded settlement.
func (h *Household) Settlements() []core.Settlement {
	return h.store.Snapshot().Settlements
}

// SetCurrentUser switches the active member.
func (h *Household) SetCurrentUser(ctx context.Context, p core.Person) error {
	if !p.IsMember() {
		return invalid(fmt.Errorf("current user: %w", core.ErrInvalidPerson))
	}
	return h.store.SetCurrentUser(ctx, p)
}

// SetTheme switches the display theme.
func (h *Household) SetTheme(ctx context.Context, th core.Theme) error {
	if err := th.Validate(); err != nil {
		return invalid(err)
	}
	return h.store.SetTheme(ctx, th)
}

// Export builds the backup document for the current state.
func (h *Household) Export() backup.Document {
	return backup.Build(h.store.Snapshot(), h.now())
}
