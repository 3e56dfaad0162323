package report

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func mk(id string, typ core.TransactionType, cents int64, date time.Time, category string, beneficiary core.Person) core.Transaction {
	return core.Transaction{
		ID:            id,
		Type:          typ,
		Value:         core.Cents(cents),
		Date:          date,
		CategoryID:    category,
		AccountID:     "a1",
		Description:   "entry " + id,
		Status:        core.Paid,
		CreatedBy:     core.UserA,
		PaidBy:        core.UserA,
		AssignedTo:    beneficiary,
		PaymentMethod: core.Debit,
	}
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

var march = core.NewMonth(2024, 3)

func sample() []core.Transaction {
	return []core.Transaction{
		mk("1", core.Expense, 5000, at(2024, 3, 31), "1", core.Household),
		mk("2", core.Income, 300000, at(2024, 3, 5), "9", core.UserA),
		mk("3", core.Expense, 12000, at(2024, 3, 1), "2", core.UserB),
		mk("4", core.Expense, 5000, at(2024, 3, 12), "3", core.UserA),
		mk("5", core.Expense, 7000, at(2024, 2, 29), "1", core.Household),
		mk("6", core.Expense, 3000, at(2024, 4, 1), "2", core.Household),
		mk("7", core.Expense, 2500, at(2024, 3, 20), "1", core.UserA),
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func TestInMonthCalendarBoundaries(t *testing.T) {
	got := InMonth(sample(), march)
	assert.Equal(t, []string{"1", "2", "3", "4", "7"}, ids(got))

	feb := InMonth(sample(), core.NewMonth(2024, 2))
	assert.Equal(t, []string{"5"}, ids(feb))
}

func TestInMonthUsesUTCDate(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*3600)
	// 22:00 on March 31st local is April 1st in UTC.
	late := mk("x", core.Expense, 100, time.Date(2024, 3, 31, 22, 0, 0, 0, saoPaulo), "1", core.Household)

	assert.Empty(t, InMonth([]core.Transaction{late}, march))
	assert.Len(t, InMonth([]core.Transaction{late}, core.NewMonth(2024, 4)), 1)
}

func TestInMonthIsIdempotent(t *testing.T) {
	txs := sample()
	first := InMonth(txs, march)
	second := InMonth(txs, march)
	assert.Equal(t, first, second)
	assert.Equal(t, first, InMonth(first, march))
	assert.Equal(t, sample(), txs)
}

func TestForUser(t *testing.T) {
	txs := InMonth(sample(), march)

	assert.Equal(t, txs, ForUser(txs, All))
	assert.Equal(t, []string{"2", "4", "7"}, ids(ForUser(txs, Only(core.UserA))))
	assert.Equal(t, []string{"3"}, ids(ForUser(txs, Only(core.UserB))))
	assert.Equal(t, []string{"1"}, ids(ForUser(txs, Only(core.Household))))
}

func TestParseUserFilter(t *testing.T) {
	names := core.Names{A: "Junior", B: "Rosângela"}
	tests := []struct {
		in   string
		want UserFilter
	}{
		{"", All},
		{"ALL", All},
		{"user_a", Only(core.UserA)},
		{"rosangela", Only(core.UserB)},
		{"household", Only(core.Household)},
	}
	for _, tt := range tests {
		got, err := ParseUserFilter(names, tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseUserFilter(names, "nobody")
	assert.ErrorIs(t, err, core.ErrInvalidPerson)
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var txs []core.Transaction
		for j := 0; j < rng.Intn(30); j++ {
			typ := core.Expense
			if rng.Intn(3) == 0 {
				typ = core.Income
			}
			txs = append(txs, mk("r", typ, 1+rng.Int63n(1_000_000), at(2024, 3, 1+rng.Intn(31)), "1", core.Household))
		}
		s := Summarize(txs)
		require.Equal(t, s.Income.Cents-s.Expense.Cents, s.Balance.Cents)
	}
}

func TestCategorySpendPartitionAndOrder(t *testing.T) {
	txs := InMonth(sample(), march)
	got := CategorySpend(txs)

	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].CategoryID)
	assert.Equal(t, int64(12000), got[0].Total.Cents)
	assert.Equal(t, "1", got[1].CategoryID)
	assert.Equal(t, int64(7500), got[1].Total.Cents)
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, "3", got[2].CategoryID)

	var sum int64
	for _, c := range got {
		sum += c.Total.Cents
	}
	assert.Equal(t, Summarize(txs).Expense.Cents, sum)
}

func TestCategorySpendTiesKeepDiscoveryOrder(t *testing.T) {
	txs := []core.Transaction{
		mk("1", core.Expense, 100, at(2024, 3, 1), "5", core.Household),
		mk("2", core.Expense, 300, at(2024, 3, 1), "3", core.Household),
		mk("3", core.Expense, 100, at(2024, 3, 1), "4", core.Household),
		mk("4", core.Expense, 100, at(2024, 3, 1), "6", core.Household),
	}
	got := CategorySpend(txs)
	var order []string
	for _, c := range got {
		order = append(order, c.CategoryID)
	}
	assert.Equal(t, []string{"3", "5", "4", "6"}, order)
}

func TestDailyAverage(t *testing.T) {
	tests := []struct {
		name  string
		month core.Month
		cents int64
		want  int64
	}{
		{"31 days", march, 31000, 1000},
		{"leap february", core.NewMonth(2024, 2), 2900, 100},
		{"plain february", core.NewMonth(2023, 2), 2900, 104},
		{"half rounds up", core.NewMonth(2024, 4), 45, 2},
		{"below half rounds down", core.NewMonth(2024, 4), 44, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []core.Transaction{mk("1", core.Expense, tt.cents, tt.month.Start(), "1", core.Household)}
			assert.Equal(t, tt.want, DailyAverage(txs, tt.month).Cents)
		})
	}
}

func TestSearch(t *testing.T) {
	catalog := core.DefaultCatalog()
	txs := sample()
	txs[0].Description = "Açougue do bairro"

	assert.Equal(t, []string{"1"}, ids(Search(txs, "acougue", catalog)))
	assert.Equal(t, []string{"3", "6"}, ids(Search(txs, "GROCER", catalog)))
	assert.Equal(t, txs, Search(txs, "  ", catalog))
	assert.Empty(t, Search(txs, "nothing matches", catalog))
}

func TestPending(t *testing.T) {
	txs := sample()
	txs[2].Status = core.Pending
	assert.Equal(t, []string{"3"}, ids(Pending(txs)))
}

func TestBuildEmptyMonth(t *testing.T) {
	r := Build(core.DefaultCatalog(), nil, core.NewMonth(2030, 1), All)

	assert.Equal(t, Summary{}, r.Summary)
	assert.NotNil(t, r.Categories)
	assert.Empty(t, r.Categories)
	assert.Zero(t, r.DailyAverage.Cents)
	assert.Zero(t, r.Count)
	assert.Empty(t, r.Anomalies)
}

func TestBuildSkipsMalformedTransactions(t *testing.T) {
	txs := InMonth(sample(), march)
	broken := mk("bad", core.Expense, 0, at(2024, 3, 2), "1", core.Household)
	txs = append(txs, broken)
	unknown := mk("odd", core.Expense, 900, at(2024, 3, 3), "99", core.Household)
	txs = append(txs, unknown)

	r := Build(core.DefaultCatalog(), txs, march, All)

	require.Len(t, r.Anomalies, 1)
	assert.Equal(t, "bad", r.Anomalies[0].ID)
	assert.Equal(t, 6, r.Count)
	assert.Equal(t, int64(300000), r.Summary.Income.Cents)
	assert.Equal(t, int64(5000+12000+5000+2500+900), r.Summary.Expense.Cents)

	names := map[string]string{}
	var share float64
	for _, c := range r.Categories {
		names[c.CategoryID] = c.Name
		share += c.Share
	}
	assert.Equal(t, "Groceries", names["2"])
	assert.Equal(t, "Other", names["99"])
	assert.InDelta(t, 100.0, share, 1e-9)
}

func TestBuildWithUserFilter(t *testing.T) {
	r := Build(core.DefaultCatalog(), sample(), march, Only(core.UserA))

	assert.Equal(t, "user_a", r.Filter)
	assert.Equal(t, 3, r.Count)
	assert.Equal(t, int64(300000), r.Summary.Income.Cents)
	assert.Equal(t, int64(7500), r.Summary.Expense.Cents)
	assert.Equal(t, int64(292500), r.Summary.Balance.Cents)
}
