// Package report computes month views over a ledger: filters, category
// spend, income and expense totals and the daily average. Every function is
// pure and leaves its input untouched.
package report

import (
	"fmt"
	"strings"

	"conti/internal/core"
)

// UserFilter selects transactions by beneficiary. The zero value selects all.
type UserFilter struct {
	person core.Person
}

// All keeps every transaction.
var All = UserFilter{}

// Only keeps transactions whose beneficiary is p.
func Only(p core.Person) UserFilter { return UserFilter{person: p} }

// IsAll reports whether the filter keeps everything.
func (f UserFilter) IsAll() bool { return f.person == 0 }

// Person returns the selected beneficiary, or zero for All.
func (f UserFilter) Person() core.Person { return f.person }

func (f UserFilter) String() string {
	if f.IsAll() {
		return "all"
	}
	return f.person.String()
}

// ParseUserFilter accepts "", "all" or anything names can resolve.
func ParseUserFilter(names core.Names, s string) (UserFilter, error) {
	if v := strings.ToLower(strings.TrimSpace(s)); v == "" || v == "all" {
		return All, nil
	}
	p, err := names.Parse(s)
	if err != nil {
		return All, fmt.Errorf("user filter: %w", err)
	}
	return Only(p), nil
}

// InMonth returns the transactions dated within m, in input order.
func InMonth(txs []core.Transaction, m core.Month) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if m.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// ForUser applies f. All returns txs unfiltered.
func ForUser(txs []core.Transaction, f UserFilter) []core.Transaction {
	if f.IsAll() {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.AssignedTo == f.person {
			out = append(out, t)
		}
	}
	return out
}

// Search matches term against the description and the category name,
// ignoring case and accents. An empty term matches everything.
func Search(txs []core.Transaction, term string, catalog core.Catalog) []core.Transaction {
	key := core.Fold(term)
	if key == "" {
		return txs
	}
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if strings.Contains(core.Fold(t.Description), key) ||
			strings.Contains(core.Fold(catalog.CategoryName(t.CategoryID)), key) {
			out = append(out, t)
		}
	}
	return out
}

// Pending returns transactions still waiting to be paid, in input order.
func Pending(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if t.Status == core.Pending {
			out = append(out, t)
		}
	}
	return out
}
