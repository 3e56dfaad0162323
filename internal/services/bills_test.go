package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func entry(id string, cents int64, date time.Time, status core.Status) core.Transaction {
	return core.Transaction{
		ID: id, Type: core.Expense, Value: core.Cents(cents), Date: date,
		CategoryID: "4", AccountID: "a1", Description: "entry " + id, Status: status,
		CreatedBy: core.UserA, PaidBy: core.UserA, AssignedTo: core.Household,
		PaymentMethod: core.Cash, Recurrence: core.Once,
	}
}

func TestPendingBills(t *testing.T) {
	due := day(2024, 3, 2)
	txs := []core.Transaction{
		entry("paid", 100, day(2024, 3, 1), core.Paid),
		entry("late", 300, day(2024, 3, 20), core.Pending),
		entry("early", 200, day(2024, 3, 10), core.Pending),
		entry("due-soon", 50, day(2024, 3, 25), core.Pending),
		entry("early-twin", 70, day(2024, 3, 10), core.Pending),
	}
	// The due date does not change the order; the transaction date does.
	txs[3].DueDate = &due

	got := PendingBills(txs)

	ids := make([]string, len(got.Bills))
	for i, b := range got.Bills {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"early", "early-twin", "late", "due-soon"}, ids)
	assert.Equal(t, int64(620), got.Total.Cents)

	empty := PendingBills(nil)
	assert.NotNil(t, empty.Bills)
	assert.Zero(t, empty.Total.Cents)
}

func TestDueFixedBills(t *testing.T) {
	bills := []core.FixedBill{
		{ID: "rent", Description: "Rent", Value: core.Cents(150000), CategoryID: "4", AccountID: "a1", AssignedTo: core.Household, DayOfMonth: 5, Active: true},
		{ID: "net", Description: "Internet", Value: core.Cents(9990), CategoryID: "4", AccountID: "a1", AssignedTo: core.Household, DayOfMonth: 31, Active: true},
		{ID: "gym", Description: "Gym", Value: core.Cents(8000), CategoryID: "6", AccountID: "a2", AssignedTo: core.UserA, DayOfMonth: 1, Active: false},
		{ID: "water", Description: "Water", Value: core.Cents(6000), CategoryID: "4", AccountID: "a1", AssignedTo: core.Household, DayOfMonth: 20, Active: true},
	}
	rentPaid := entry("r1", 150000, day(2024, 2, 6), core.Paid)
	rentPaid.Description = "rent february"

	t.Run("mid month", func(t *testing.T) {
		got := DueFixedBills(bills, []core.Transaction{rentPaid}, day(2024, 2, 10))
		require.Len(t, got, 1)
		assert.Equal(t, "rent", got[0].Bill.ID)
		assert.True(t, got[0].Recorded)
		assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), got[0].DueDate)
	})

	t.Run("last day of leap february", func(t *testing.T) {
		got := DueFixedBills(bills, nil, day(2024, 2, 29))
		var ids []string
		for _, d := range got {
			ids = append(ids, d.Bill.ID)
			assert.False(t, d.Recorded)
		}
		assert.Equal(t, []string{"rent", "water", "net"}, ids)
	})

	t.Run("payment from an earlier month does not count", func(t *testing.T) {
		got := DueFixedBills(bills, []core.Transaction{rentPaid}, day(2024, 3, 5))
		require.Len(t, got, 1)
		assert.False(t, got[0].Recorded)
	})
}

func TestDueRecurring(t *testing.T) {
	netflix := entry("n1", 3990, day(2024, 1, 12), core.Paid)
	netflix.Description = "Netflix"
	netflix.Recurring = true
	netflix.Recurrence = core.Monthly
	netflixFeb := netflix
	netflixFeb.ID = "n2"
	netflixFeb.Date = day(2024, 2, 12)

	insurance := entry("i1", 90000, day(2023, 4, 1), core.Paid)
	insurance.Description = "Car insurance"
	insurance.Recurring = true
	insurance.Recurrence = core.Yearly

	oneOff := entry("o1", 100, day(2024, 1, 1), core.Paid)

	txs := []core.Transaction{netflixFeb, insurance, netflix, oneOff}

	got := DueRecurring(txs, day(2024, 3, 12))
	require.Len(t, got, 1)
	assert.Equal(t, "n2", got[0].ID)

	got = DueRecurring(txs, day(2024, 4, 12))
	var ids []string
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"n2", "i1"}, ids)
}
