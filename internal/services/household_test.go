package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/report"
	"conti/internal/settlement"
	"conti/internal/storage"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangeMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerChange(_ context.Context, msg *amqp.LedgerChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

var testNames = core.Names{A: "Junior", B: "Rosângela"}

func newHousehold(t *testing.T, opts ...Option) *Household {
	t.Helper()
	store, err := ledger.Open(context.Background(), storage.NewMemoryKV(), ledger.Options{})
	require.NoError(t, err)

	n := 0
	base := []Option{
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		WithClock(func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }),
	}
	h := NewHousehold(store, core.DefaultCatalog(), testNames, append(base, opts...)...)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestCreateTransactionDefaults(t *testing.T) {
	h := newHousehold(t)

	tx, err := h.CreateTransaction(context.Background(), TransactionInput{Amount: "45,90", CategoryID: "2", Description: " market "})
	require.NoError(t, err)

	assert.Equal(t, "id-1", tx.ID)
	assert.Equal(t, core.Expense, tx.Type)
	assert.Equal(t, int64(4590), tx.Value.Cents)
	assert.Equal(t, "market", tx.Description)
	assert.Equal(t, core.Paid, tx.Status)
	assert.Equal(t, core.UserA, tx.CreatedBy)
	assert.Equal(t, core.UserA, tx.PaidBy)
	assert.Equal(t, core.Household, tx.AssignedTo)
	assert.Equal(t, "a1", tx.AccountID)
	assert.Equal(t, core.Cash, tx.PaymentMethod)
	assert.Equal(t, core.Once, tx.Recurrence)
	assert.Equal(t, h.Now(), tx.Date)

	stored, ok := h.Store().Transaction("id-1")
	require.True(t, ok)
	assert.Equal(t, tx, stored)
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"zero amount", TransactionInput{Amount: "0", CategoryID: "1"}, core.ErrInvalidAmount},
		{"no amount", TransactionInput{CategoryID: "1"}, core.ErrInvalidAmount},
		{"missing category", TransactionInput{Amount: "10"}, core.ErrEmptyCategory},
		{"unknown category", TransactionInput{Amount: "10", CategoryID: "42"}, ErrUnknownCategory},
		{"income category on expense", TransactionInput{Amount: "10", CategoryID: "9"}, ErrCategoryType},
		{"unknown account", TransactionInput{Amount: "10", CategoryID: "1", AccountID: "zz"}, ErrUnknownAccount},
		{"household payer", TransactionInput{Amount: "10", CategoryID: "1", PaidBy: core.Household}, core.ErrInvalidPayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHousehold(t)
			_, err := h.CreateTransaction(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
			assert.Empty(t, h.Store().Snapshot().Transactions)
		})
	}
}

func TestQuickAdd(t *testing.T) {
	h := newHousehold(t)
	require.NoError(t, h.SetCurrentUser(context.Background(), core.UserB))

	tx, err := h.QuickAdd(context.Background(), "mercado 45,90 junior")
	require.NoError(t, err)
	assert.Equal(t, int64(4590), tx.Value.Cents)
	assert.Equal(t, core.UserA, tx.PaidBy)
	assert.Equal(t, core.UserB, tx.CreatedBy)
	assert.Equal(t, "mercado 45,90 junior", tx.Description)

	_, err = h.QuickAdd(context.Background(), "nothing here")
	assert.True(t, IsValidation(err))
}

func TestPayUnpayDuplicateDelete(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()
	tx, err := h.CreateTransaction(ctx, TransactionInput{Amount: "120", CategoryID: "4", Status: core.Pending})
	require.NoError(t, err)

	ok, err := h.Pay(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := h.Store().Transaction(tx.ID)
	assert.Equal(t, core.Paid, got.Status)
	require.NotNil(t, got.PaidAt)

	ok, err = h.Unpay(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, len(h.PendingBills().Bills))

	dup, ok, err := h.Duplicate(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, tx.ID, dup.ID)
	assert.Len(t, h.List(core.Month{}, ""), 2)

	ok, err = h.Delete(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.Delete(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetBudgetAndStatus(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()
	march := core.NewMonth(2024, 3)

	_, err := h.SetBudget(ctx, BudgetInput{Month: march, CategoryID: "2", Limit: "200"})
	require.NoError(t, err)
	_, err = h.CreateTransaction(ctx, TransactionInput{Amount: "150", CategoryID: "2"})
	require.NoError(t, err)

	var groceries *struct{ pct, remaining float64 }
	for _, s := range h.BudgetStatus(march, 0) {
		if s.Category.ID == "2" {
			groceries = &struct{ pct, remaining float64 }{s.Percent, float64(s.Remaining.Cents)}
		}
	}
	require.NotNil(t, groceries)
	assert.InDelta(t, 75.0, groceries.pct, 1e-9)
	assert.Equal(t, 5000.0, groceries.remaining)

	_, err = h.SetBudget(ctx, BudgetInput{Month: march, CategoryID: "9", Limit: "200"})
	assert.ErrorIs(t, err, ErrCategoryType)
	_, err = h.SetBudget(ctx, BudgetInput{Month: march, CategoryID: "2", Limit: "-3"})
	assert.True(t, IsValidation(err))
}

func TestSettlementFlow(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()
	march := core.NewMonth(2024, 3)

	_, err := h.CreateTransaction(ctx, TransactionInput{Amount: "100", CategoryID: "4"})
	require.NoError(t, err)

	view := h.PreviewSettlement(march)
	assert.Equal(t, int64(5000), view.Result.OwesB.Cents)
	assert.Equal(t, int64(-5000), view.Result.Diff.Cents)
	assert.Equal(t, "Rosângela pays Junior 50.00", view.Summary)
	assert.Empty(t, view.History)

	rec, err := h.ConfirmSettlement(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, core.UserB, rec.From)
	assert.Equal(t, core.UserA, rec.To)
	assert.Equal(t, int64(5000), rec.Amount.Cents)

	_, err = h.ConfirmSettlement(ctx, march)
	assert.ErrorIs(t, err, ErrAlreadySettled)

	// Recording never touches the transactions.
	assert.Equal(t, view.Result, h.PreviewSettlement(march).Result)
	assert.Len(t, h.Settlements(), 1)

	_, err = h.ConfirmSettlement(ctx, march.Next())
	assert.ErrorIs(t, err, settlement.ErrNothingToSettle)
}

func TestSettlementAfterBalanceChange(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()
	march := core.NewMonth(2024, 3)

	_, err := h.CreateTransaction(ctx, TransactionInput{Amount: "100", CategoryID: "4"})
	require.NoError(t, err)
	_, err = h.ConfirmSettlement(ctx, march)
	require.NoError(t, err)

	_, err = h.CreateTransaction(ctx, TransactionInput{Amount: "40", CategoryID: "4"})
	require.NoError(t, err)

	view := h.PreviewSettlement(march)
	assert.Equal(t, int64(-7000), view.Result.Diff.Cents)
	assert.Equal(t, int64(-5000), view.Recorded.Cents)
	assert.Equal(t, settlement.Transfer{From: core.UserB, To: core.UserA, Amount: core.Cents(2000)}, view.Outstanding)

	rec, err := h.ConfirmSettlement(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, core.UserB, rec.From)
	assert.Equal(t, int64(2000), rec.Amount.Cents)

	for i := 0; i < 2; i++ {
		_, err = h.ConfirmSettlement(ctx, march)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	}

	view = h.PreviewSettlement(march)
	assert.Equal(t, view.Result.Diff, view.Recorded)
	assert.True(t, view.Outstanding.Settled)
	assert.Len(t, view.History, 2)
}

func TestReportAndList(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()
	_, err := h.CreateTransaction(ctx, TransactionInput{Amount: "3000", CategoryID: "9", Type: core.Income, Description: "salary"})
	require.NoError(t, err)
	_, err = h.CreateTransaction(ctx, TransactionInput{Amount: "31", CategoryID: "1", Description: "Padaria", AssignedTo: core.UserB})
	require.NoError(t, err)

	r := h.Report(core.NewMonth(2024, 3), report.All)
	assert.Equal(t, int64(300000-3100), r.Summary.Balance.Cents)
	assert.Equal(t, int64(100), r.DailyAverage.Cents)

	assert.Len(t, h.List(core.NewMonth(2024, 3), "padaria"), 1)
	assert.Empty(t, h.List(core.NewMonth(2024, 4), ""))
}

func TestReportCacheFollowsChanges(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()
	m := core.NewMonth(2024, 3)

	tx, err := h.CreateTransaction(ctx, TransactionInput{Amount: "10", CategoryID: "1", Description: "Coffee"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.Report(m, report.All).Count)
	assert.Equal(t, 1, h.Report(m, report.All).Count)
	hits, _ := h.reports.Stats()
	assert.Equal(t, uint64(1), hits)

	_, err = h.CreateTransaction(ctx, TransactionInput{Amount: "5", CategoryID: "1", Description: "Cake"})
	require.NoError(t, err)
	assert.Equal(t, 2, h.Report(m, report.All).Count)

	_, err = h.Delete(ctx, tx.ID)
	require.NoError(t, err)
	r := h.Report(m, report.All)
	assert.Equal(t, 1, r.Count)
	assert.Equal(t, int64(500), r.Summary.Expense.Cents)
}

func TestFixedBills(t *testing.T) {
	h := newHousehold(t)
	ctx := context.Background()

	f, err := h.AddFixedBill(ctx, FixedBillInput{Description: "Rent", Amount: "1500", CategoryID: "4", DayOfMonth: 10})
	require.NoError(t, err)
	assert.True(t, f.Active)
	assert.Equal(t, core.Household, f.AssignedTo)

	due := h.DueFixedBills()
	require.Len(t, due, 1)
	assert.False(t, due[0].Recorded)

	_, err = h.AddFixedBill(ctx, FixedBillInput{Description: "Bad", Amount: "10", CategoryID: "4", DayOfMonth: 32})
	assert.ErrorIs(t, err, core.ErrInvalidDay)

	ok, err := h.RemoveFixedBill(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, h.DueFixedBills())
}

func TestPublishesChanges(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	h := newHousehold(t, WithPublisher(pub))
	ctx := context.Background()

	tx, err := h.CreateTransaction(ctx, TransactionInput{Amount: "10", CategoryID: "1"})
	require.NoError(t, err, "publish failures never fail the mutation")
	require.NoError(t, h.SetTheme(ctx, core.Dark))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, storage.KeyTransactions, pub.msgs[0].Collection)
	assert.Equal(t, ledger.OpCreate, pub.msgs[0].Op)
	assert.Equal(t, tx.ID, pub.msgs[0].ID)
	assert.Equal(t, "2024-03", pub.msgs[0].Month)
	assert.Equal(t, storage.KeyTheme, pub.msgs[1].Collection)
	assert.Empty(t, pub.msgs[1].Month)

	require.NoError(t, h.Close())
	_, err = h.CreateTransaction(ctx, TransactionInput{Amount: "10", CategoryID: "1"})
	require.NoError(t, err)
	assert.Len(t, pub.msgs, 2)
}

func TestExport(t *testing.T) {
	h := newHousehold(t)
	_, err := h.CreateTransaction(context.Background(), TransactionInput{Amount: "10", CategoryID: "1"})
	require.NoError(t, err)

	doc := h.Export()
	assert.Equal(t, "conti-2024-03-15.json", doc.Filename())
	assert.Len(t, doc.Transactions, 1)
}
