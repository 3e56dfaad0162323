// Package budget compares monthly category spend with configured limits.
package budget

import (
	"conti/internal/core"
	"conti/internal/report"
)

// Level classifies how much of a budget has been used.
type Level string

const (
	LevelNone Level = "none"
	LevelOK   Level = "ok"
	LevelNear Level = "near"
	LevelOver Level = "over"
)

// Status is the evaluation of one category for one month.
type Status struct {
	Category     core.Category `json:"category"`
	BudgetID     string        `json:"budget_id,omitempty"`
	Limit        core.Money    `json:"limit_cents"`
	Spent        core.Money    `json:"spent_cents"`
	Remaining    core.Money    `json:"remaining_cents"`
	Percent      float64       `json:"percent"`
	AlertPercent int           `json:"alert_percent"`
	Level        Level         `json:"level"`
}

// Find returns the budget for category and month. When owner is a valid
// person the budget must also belong to owner; otherwise the first match in
// store order wins.
func Find(budgets []core.Budget, categoryID string, m core.Month, owner core.Person) (core.Budget, bool) {
	for _, b := range budgets {
		if b.CategoryID != categoryID || b.Month != m {
			continue
		}
		if owner.IsValid() && b.Owner != owner {
			continue
		}
		return b, true
	}
	return core.Budget{}, false
}

// Percent returns 100*spent/limit, or 0 when there is no limit.
func Percent(spent, limit core.Money) float64 {
	return spent.PercentOf(limit)
}

// Remaining returns limit-spent, never below zero.
func Remaining(spent, limit core.Money) core.Money {
	r := limit.Sub(spent)
	if r.Cents < 0 {
		return core.Money{}
	}
	return r
}

func classify(percent float64, alert int, hasBudget bool) Level {
	switch {
	case !hasBudget:
		return LevelNone
	case percent >= 100:
		return LevelOver
	case percent >= float64(alert):
		return LevelNear
	default:
		return LevelOK
	}
}

// Evaluate returns one Status per expense-eligible category, in catalog
// order. Spend counts the month's expenses in that category; when owner is a
// valid person only expenses assigned to owner count.
func Evaluate(categories []core.Category, budgets []core.Budget, txs []core.Transaction, m core.Month, owner core.Person) []Status {
	filter := report.All
	if owner.IsValid() {
		filter = report.Only(owner)
	}
	monthly := report.ForUser(report.InMonth(txs, m), filter)

	spent := make(map[string]core.Money)
	for _, c := range report.CategorySpend(monthly) {
		spent[c.CategoryID] = c.Total
	}

	out := make([]Status, 0, len(categories))
	for _, cat := range categories {
		if !cat.AppliesTo(core.Expense) {
			continue
		}
		st := Status{
			Category:     cat,
			Spent:        spent[cat.ID],
			AlertPercent: core.DefaultAlertPercent,
		}
		b, ok := Find(budgets, cat.ID, m, owner)
		if ok {
			st.BudgetID = b.ID
			st.Limit = b.Limit
			st.AlertPercent = b.Alert()
			st.Percent = Percent(st.Spent, b.Limit)
			st.Remaining = Remaining(st.Spent, b.Limit)
		}
		st.Level = classify(st.Percent, st.AlertPercent, ok)
		out = append(out, st)
	}
	return out
}

// Alerts keeps the statuses that are near or over their limit.
func Alerts(statuses []Status) []Status {
	out := make([]Status, 0)
	for _, s := range statuses {
		if s.Level == LevelNear || s.Level == LevelOver {
			out = append(out, s)
		}
	}
	return out
}
