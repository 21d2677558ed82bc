// Package sheets exports the loaded expense list to a spreadsheet.
package sheets

import (
	"context"

	"expensedash/internal/core"
)

// ExpenseExporter appends expenses as rows and reports the range written.
type ExpenseExporter interface {
	AppendExpenses(ctx context.Context, expenses []core.Expense) (updatedRange string, err error)
}

// Header is the column order of exported rows.
var Header = []any{"Date", "Title", "Amount", "Category", "Notes", "ID"}

// Rows converts expenses to sheet rows in Header order. Dates are reduced
// to their calendar day; unparseable dates are kept as sent by the API.
func Rows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		date, err := core.CalendarDate(e.Date)
		if err != nil {
			date = e.Date
		}
		rows = append(rows, []any{date, e.Title, e.Amount, e.Category.Label(), e.Notes, e.ID})
	}
	return rows
}
