package services

import (
	"sort"
	"strings"
	"time"

	"conti/internal/core"
)

// PendingSummary lists unpaid transactions and their total.
type PendingSummary struct {
	Bills []core.Transaction `json:"bills"`
	Total core.Money         `json:"total_cents"`
}

// PendingBills returns pending transactions, oldest date first. Ties keep
// their ledger order.
func PendingBills(txs []core.Transaction) PendingSummary {
	out := PendingSummary{Bills: make([]core.Transaction, 0)}
	for _, t := range txs {
		if t.Status != core.Pending {
			continue
		}
		out.Bills = append(out.Bills, t)
		out.Total = out.Total.Add(t.Value)
	}
	sort.SliceStable(out.Bills, func(i, j int) bool {
		return out.Bills[i].Date.Before(out.Bills[j].Date)
	})
	return out
}

// DueBill is a fixed bill whose day has come this month.
type DueBill struct {
	Bill     core.FixedBill `json:"bill"`
	DueDate  time.Time      `json:"due_date"`
	Recorded bool           `json:"recorded"`
}

// matchesBill reports whether t looks like an occurrence of f.
func matchesBill(t core.Transaction, f core.FixedBill) bool {
	return t.Type == core.Expense &&
		t.CategoryID == f.CategoryID &&
		strings.Contains(core.Fold(t.Description), core.Fold(f.Description))
}

// lastOccurrence returns the latest date among transactions matching ok.
func lastOccurrence(txs []core.Transaction, ok func(core.Transaction) bool) time.Time {
	var last time.Time
	for _, t := range txs {
		if ok(t) && t.Date.After(last) {
			last = t.Date
		}
	}
	return last
}

// DueFixedBills returns active fixed bills whose day of month has been
// reached at now. Bills are reported, never turned into transactions;
// Recorded tells whether a matching expense already exists this month.
func DueFixedBills(bills []core.FixedBill, txs []core.Transaction, now time.Time) []DueBill {
	now = now.UTC()
	month := core.MonthOf(now)
	monthly := MonthlyChecker{}
	out := make([]DueBill, 0)
	for _, f := range bills {
		if !f.Active {
			continue
		}
		anchor := time.Date(now.Year(), now.Month(), clampDay(f.DayOfMonth, now.Year(), now.Month()), 0, 0, 0, 0, time.UTC)
		if !monthly.IsDue(time.Time{}, now, anchor) {
			continue
		}
		last := lastOccurrence(txs, func(t core.Transaction) bool { return matchesBill(t, f) })
		out = append(out, DueBill{
			Bill:     f,
			DueDate:  anchor,
			Recorded: !last.IsZero() && month.Contains(last),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// DueRecurring returns recurring transactions whose next occurrence is due:
// the latest entry of each series (same description, category and type) is
// checked against its recurrence.
func DueRecurring(txs []core.Transaction, now time.Time) []core.Transaction {
	type seriesKey struct {
		desc, category string
		typ            core.TransactionType
	}
	latest := make(map[seriesKey]core.Transaction)
	var order []seriesKey
	for _, t := range txs {
		if !t.Recurring {
			continue
		}
		k := seriesKey{core.Fold(t.Description), t.CategoryID, t.Type}
		prev, seen := latest[k]
		if !seen {
			order = append(order, k)
		}
		if !seen || t.Date.After(prev.Date) {
			latest[k] = t
		}
	}

	out := make([]core.Transaction, 0)
	for _, k := range order {
		t := latest[k]
		checker, err := GetDuenessChecker(t.Recurrence)
		if err != nil {
			continue
		}
		if checker.IsDue(t.Date.UTC(), now.UTC(), t.Date.UTC()) {
			out = append(out, t)
		}
	}
	return out
}

// PendingBills lists unpaid transactions in the store.
func (h *Household) PendingBills() PendingSummary {
	return PendingBills(h.store.Snapshot().Transactions)
}

// DueFixedBills lists fixed bills due now.
func (h *Household) DueFixedBills() []DueBill {
	snap := h.store.Snapshot()
	return DueFixedBills(snap.FixedBills, snap.Transactions, h.now())
}

// DueRecurring lists recurring transactions due for a new occurrence.
func (h *Household) DueRecurring() []core.Transaction {
	return DueRecurring(h.store.Snapshot().Transactions, h.now())
}
