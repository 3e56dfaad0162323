package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

var march = core.NewMonth(2024, 3)

func expense(id string, cents int64, category string, beneficiary core.Person, date time.Time) core.Transaction {
	return core.Transaction{
		ID: id, Type: core.Expense, Value: core.Cents(cents), Date: date,
		CategoryID: category, AccountID: "a1", Status: core.Paid,
		CreatedBy: core.UserA, PaidBy: core.UserA, AssignedTo: beneficiary,
		PaymentMethod: core.Cash,
	}
}

func groceries(limit int64) core.Budget {
	return core.Budget{ID: "b1", Month: march, CategoryID: "2", Limit: core.Cents(limit), Owner: core.Household, AlertPercent: 80}
}

func statusFor(t *testing.T, statuses []Status, categoryID string) Status {
	t.Helper()
	for _, s := range statuses {
		if s.Category.ID == categoryID {
			return s
		}
	}
	t.Fatalf("no status for category %s", categoryID)
	return Status{}
}

func TestEvaluatePercentAndRemaining(t *testing.T) {
	mid := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		spent     int64
		percent   float64
		remaining int64
		level     Level
	}{
		{"under", 15000, 75, 5000, LevelOK},
		{"over", 25000, 125, 0, LevelOver},
		{"at alert", 16000, 80, 4000, LevelNear},
		{"exactly at limit", 20000, 100, 0, LevelOver},
		{"nothing spent", 0, 0, 20000, LevelOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txs []core.Transaction
			if tt.spent > 0 {
				txs = append(txs, expense("t1", tt.spent, "2", core.Household, mid))
			}
			statuses := Evaluate(core.DefaultCatalog().Categories, []core.Budget{groceries(20000)}, txs, march, 0)
			s := statusFor(t, statuses, "2")

			assert.InDelta(t, tt.percent, s.Percent, 1e-9)
			assert.Equal(t, tt.remaining, s.Remaining.Cents)
			assert.Equal(t, tt.level, s.Level)
			assert.Equal(t, tt.spent, s.Spent.Cents)
		})
	}
}

func TestEvaluateWithoutBudget(t *testing.T) {
	txs := []core.Transaction{expense("t1", 9999, "1", core.Household, march.Start())}
	s := statusFor(t, Evaluate(core.DefaultCatalog().Categories, nil, txs, march, 0), "1")

	assert.Zero(t, s.Limit.Cents)
	assert.Zero(t, s.Percent)
	assert.Equal(t, LevelNone, s.Level)
	assert.Equal(t, int64(9999), s.Spent.Cents)
}

func TestEvaluateSkipsIncomeCategories(t *testing.T) {
	statuses := Evaluate(core.DefaultCatalog().Categories, nil, nil, march, 0)
	var got []string
	for _, s := range statuses {
		got = append(got, s.Category.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "11"}, got)
}

func TestEvaluateIgnoresOtherMonths(t *testing.T) {
	txs := []core.Transaction{
		expense("t1", 5000, "2", core.Household, time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)),
		expense("t2", 5000, "2", core.Household, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
	s := statusFor(t, Evaluate(core.DefaultCatalog().Categories, []core.Budget{groceries(20000)}, txs, march, 0), "2")
	assert.Equal(t, int64(5000), s.Spent.Cents)
	assert.InDelta(t, 25.0, s.Percent, 1e-9)
}

func TestFindByOwner(t *testing.T) {
	budgets := []core.Budget{
		{ID: "h", Month: march, CategoryID: "2", Limit: core.Cents(100), Owner: core.Household},
		{ID: "a", Month: march, CategoryID: "2", Limit: core.Cents(200), Owner: core.UserA},
		{ID: "other-month", Month: march.Next(), CategoryID: "2", Limit: core.Cents(300), Owner: core.UserA},
	}

	b, ok := Find(budgets, "2", march, 0)
	require.True(t, ok)
	assert.Equal(t, "h", b.ID)

	b, ok = Find(budgets, "2", march, core.UserA)
	require.True(t, ok)
	assert.Equal(t, "a", b.ID)

	_, ok = Find(budgets, "2", march, core.UserB)
	assert.False(t, ok)
}

func TestEvaluateOwnerCountsOwnerSpendOnly(t *testing.T) {
	budgets := []core.Budget{{ID: "a", Month: march, CategoryID: "1", Limit: core.Cents(10000), Owner: core.UserA}}
	txs := []core.Transaction{
		expense("t1", 6000, "1", core.UserA, march.Start()),
		expense("t2", 6000, "1", core.UserB, march.Start()),
	}
	s := statusFor(t, Evaluate(core.DefaultCatalog().Categories, budgets, txs, march, core.UserA), "1")
	assert.Equal(t, int64(6000), s.Spent.Cents)
	assert.Equal(t, LevelOK, s.Level)
}

func TestAlerts(t *testing.T) {
	txs := []core.Transaction{
		expense("t1", 19000, "2", core.Household, march.Start()),
		expense("t2", 100, "1", core.Household, march.Start()),
	}
	budgets := []core.Budget{
		groceries(20000),
		{ID: "b2", Month: march, CategoryID: "1", Limit: core.Cents(50000), Owner: core.Household},
	}
	alerts := Alerts(Evaluate(core.DefaultCatalog().Categories, budgets, txs, march, 0))
	require.Len(t, alerts, 1)
	assert.Equal(t, "2", alerts[0].Category.ID)
	assert.Equal(t, LevelNear, alerts[0].Level)
	assert.NotNil(t, Alerts(nil))
}

func TestPercentProperty(t *testing.T) {
	for _, limit := range []int64{0, 1, 333, 20000} {
		for _, spent := range []int64{0, 1, 150, 20000, 99999} {
			p := Percent(core.Cents(spent), core.Cents(limit))
			if limit == 0 {
				assert.Zero(t, p)
				continue
			}
			assert.InDelta(t, 100*float64(spent)/float64(limit), p, 1e-9)
			r := Remaining(core.Cents(spent), core.Cents(limit))
			assert.Equal(t, max(0, limit-spent), r.Cents)
		}
	}
}
