// Package sheets lays a month report out as spreadsheet rows. Adapters in
// the subpackages write those rows somewhere.
package sheets

import (
	"context"
	"fmt"

	"conti/internal/core"
	"conti/internal/report"
	"conti/internal/settlement"
)

// Ports for outbound adapters.
type (
	MonthExporter interface {
		// ExportMonth replaces the sheet named sheet.Title with sheet.Rows and
		// returns a reference to the written range.
		ExportMonth(ctx context.Context, sheet MonthSheet) (rangeRef string, err error)
	}
)

// MonthSheet is one month laid out as rows of cells.
type MonthSheet struct {
	Title string
	Rows  [][]any
}

const dateLayout = "2006-01-02"

// Header of the transaction table.
var transactionHeader = []any{"Date", "Description", "Category", "Type", "Amount", "Status", "Paid by", "For"}

// BuildMonthSheet lays out the month's transactions, summary, category spend
// and settlement. Amounts are written as plain decimals.
func BuildMonthSheet(rep report.MonthReport, res settlement.Result, catalog core.Catalog, names core.Names) MonthSheet {
	rows := [][]any{
		{"Month", rep.Month.String()},
		{},
		transactionHeader,
	}
	for _, t := range rep.Transactions {
		rows = append(rows, []any{
			t.Date.UTC().Format(dateLayout),
			t.Description,
			catalog.CategoryName(t.CategoryID),
			string(t.Type),
			t.Value.String(),
			string(t.Status),
			names.Name(t.PaidBy),
			names.Name(t.AssignedTo),
		})
	}

	rows = append(rows,
		[]any{},
		[]any{"Summary"},
		[]any{"Income", rep.Summary.Income.String()},
		[]any{"Expense", rep.Summary.Expense.String()},
		[]any{"Balance", rep.Summary.Balance.String()},
		[]any{"Daily average", rep.DailyAverage.String()},
		[]any{},
		[]any{"Category", "Total", "Share %"},
	)
	for _, c := range rep.Categories {
		rows = append(rows, []any{c.Name, c.Total.String(), fmt.Sprintf("%.1f", c.Share)})
	}

	rows = append(rows,
		[]any{},
		[]any{"Settlement"},
		[]any{"Owed by " + names.Name(core.UserA), res.OwesA.String()},
		[]any{"Owed by " + names.Name(core.UserB), res.OwesB.String()},
		[]any{"Result", res.Transfer().Describe(names)},
	)
	if len(res.Anomalies) > 0 {
		rows = append(rows, []any{"Skipped", fmt.Sprintf("%d transaction(s) with unknown payer or beneficiary", len(res.Anomalies))})
	}

	return MonthSheet{Title: rep.Month.String(), Rows: rows}
}
