// Package quickentry turns a short free-text note such as "mercado 45,90
// junior" into a transaction draft.
package quickentry

import (
	"errors"
	"regexp"
	"strings"

	"conti/internal/core"
)

// ErrNoAmount is returned when the text holds no number.
var ErrNoAmount = errors.New("quick entry: no amount found")

var amountPattern = regexp.MustCompile(`\d+([.,]\d+)?`)

var incomeKeywords = []string{"ganhei", "recebi", "salario", "salary", "received"}

const (
	defaultExpenseCategory = "1"
	salaryCategory         = "9"
)

// Draft is the parsed note. Fields the text did not mention keep the
// defaults passed to Parse.
type Draft struct {
	Type        core.TransactionType
	Value       core.Money
	PaidBy      core.Person
	CategoryID  string
	Description string
}

// Parse extracts the first number as the value, a member name as the payer,
// a category name as the category and an income keyword as the type. The
// whole text becomes the description when it has more than two words.
func Parse(text string, catalog core.Catalog, names core.Names, payer core.Person) (Draft, error) {
	d := Draft{
		Type:       core.Expense,
		PaidBy:     payer,
		CategoryID: defaultExpenseCategory,
	}
	folded := core.Fold(text)

	match := amountPattern.FindString(folded)
	if match == "" {
		return Draft{}, ErrNoAmount
	}
	cents, err := core.ParseDecimalToCents(match)
	if err != nil {
		return Draft{}, err
	}
	d.Value = core.Cents(cents)

	if n := core.Fold(names.A); n != "" && strings.Contains(folded, n) {
		d.PaidBy = core.UserA
	}
	if n := core.Fold(names.B); n != "" && strings.Contains(folded, n) {
		d.PaidBy = core.UserB
	}

	for _, cat := range catalog.Categories {
		if strings.Contains(folded, core.Fold(cat.Name)) {
			d.CategoryID = cat.ID
		}
	}

	for _, kw := range incomeKeywords {
		if strings.Contains(folded, kw) {
			d.Type = core.Income
			d.CategoryID = salaryCategory
			break
		}
	}

	if len(strings.Fields(text)) > 2 {
		d.Description = strings.TrimSpace(text)
	}
	return d, nil
}
