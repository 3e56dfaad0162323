package report

import (
	"sort"

	"conti/internal/core"
)

// Summary partitions a set of transactions by type.
type Summary struct {
	Income  core.Money `json:"income_cents"`
	Expense core.Money `json:"expense_cents"`
	Balance core.Money `json:"balance_cents"`
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	CategoryID string     `json:"category_id"`
	Name       string     `json:"name,omitempty"`
	Total      core.Money `json:"total_cents"`
	Count      int        `json:"count"`
	// Share is the percentage of the expense total, filled by Build.
	Share float64 `json:"share"`
}

// Anomaly is a transaction left out of a report because it is malformed.
type Anomaly struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// MonthReport is everything the month view shows.
type MonthReport struct {
	Month        core.Month         `json:"month"`
	Filter       string             `json:"filter"`
	Summary      Summary            `json:"summary"`
	Categories   []CategoryTotal    `json:"categories"`
	DailyAverage core.Money         `json:"daily_average_cents"`
	Count        int                `json:"count"`
	Transactions []core.Transaction `json:"transactions"`
	Anomalies    []Anomaly          `json:"anomalies,omitempty"`
}

// Summarize sums income and expense. Balance is always Income - Expense.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Value)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Value)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// CategorySpend sums expenses by category, largest first. Ties keep the order
// in which categories were first seen. The result is never nil.
func CategorySpend(txs []core.Transaction) []CategoryTotal {
	out := make([]CategoryTotal, 0)
	index := make(map[string]int)
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		i, ok := index[t.CategoryID]
		if !ok {
			i = len(out)
			index[t.CategoryID] = i
			out = append(out, CategoryTotal{CategoryID: t.CategoryID})
		}
		out[i].Total = out[i].Total.Add(t.Value)
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Total.Cents > out[b].Total.Cents
	})
	return out
}

// DailyAverage divides the expense total of txs by the days in m, rounding
// half-up to the cent. Callers pass transactions already filtered to m.
func DailyAverage(txs []core.Transaction, m core.Month) core.Money {
	return Summarize(txs).Expense.DivRound(int64(m.Days()))
}

// Build assembles the month report. Malformed transactions are skipped and
// listed in Anomalies.
func Build(catalog core.Catalog, txs []core.Transaction, m core.Month, f UserFilter) MonthReport {
	selected := ForUser(InMonth(txs, m), f)

	valid := make([]core.Transaction, 0, len(selected))
	var anomalies []Anomaly
	for _, t := range selected {
		if err := t.Validate(); err != nil {
			anomalies = append(anomalies, Anomaly{ID: t.ID, Reason: err.Error()})
			continue
		}
		valid = append(valid, t)
	}

	summary := Summarize(valid)
	categories := CategorySpend(valid)
	for i := range categories {
		categories[i].Name = catalog.CategoryName(categories[i].CategoryID)
		categories[i].Share = categories[i].Total.PercentOf(summary.Expense)
	}

	return MonthReport{
		Month:        m,
		Filter:       f.String(),
		Summary:      summary,
		Categories:   categories,
		DailyAverage: DailyAverage(valid, m),
		Count:        len(valid),
		Transactions: valid,
		Anomalies:    anomalies,
	}
}
