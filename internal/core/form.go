package core

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinAmount is the smallest amount the expense form accepts.
var MinAmount = decimal.RequireFromString("0.01")

// ExpenseForm is the create/edit form state.
type ExpenseForm struct {
	Title    string
	Amount   float64
	Category Category
	Date     string // YYYY-MM-DD
	Notes    string
}

// FormErrors holds one flag per failed field rule.
type FormErrors struct {
	TitleRequired    bool
	AmountInvalid    bool
	AmountBelowMin   bool
	CategoryRequired bool
	CategoryInvalid  bool
	DateRequired     bool
}

// Valid reports whether no rule failed.
func (fe FormErrors) Valid() bool {
	return fe == FormErrors{}
}

// Fields lists the names of the failing fields, for display.
func (fe FormErrors) Fields() []string {
	var out []string
	if fe.TitleRequired {
		out = append(out, "title")
	}
	if fe.AmountInvalid || fe.AmountBelowMin {
		out = append(out, "amount")
	}
	if fe.CategoryRequired || fe.CategoryInvalid {
		out = append(out, "category")
	}
	if fe.DateRequired {
		out = append(out, "date")
	}
	return out
}

// ValidateExpenseForm applies the client-side rules. The server stays
// authoritative; this only keeps obviously bad submissions off the wire.
func ValidateExpenseForm(f ExpenseForm) FormErrors {
	var fe FormErrors
	if strings.TrimSpace(f.Title) == "" {
		fe.TitleRequired = true
	}
	switch {
	case math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0):
		fe.AmountInvalid = true
	case decimal.NewFromFloat(f.Amount).LessThan(MinAmount):
		fe.AmountBelowMin = true
	}
	switch {
	case f.Category == 0:
		fe.CategoryRequired = true
	case !f.Category.Valid():
		fe.CategoryInvalid = true
	}
	if strings.TrimSpace(f.Date) == "" {
		fe.DateRequired = true
	}
	return fe
}

// NewExpenseForm returns the defaults used when creating an expense.
func NewExpenseForm(now time.Time) ExpenseForm {
	return ExpenseForm{
		Category: Others,
		Date:     Today(now),
	}
}

// FormFromExpense pre-fills the form for editing e.
func FormFromExpense(e Expense) ExpenseForm {
	date, err := CalendarDate(e.Date)
	if err != nil {
		date = e.Date
	}
	return ExpenseForm{
		Title:    e.Title,
		Amount:   e.Amount,
		Category: e.Category,
		Date:     date,
		Notes:    e.Notes,
	}
}

// CreateRequest converts a validated form into the create body.
func (f ExpenseForm) CreateRequest() (CreateExpenseRequest, error) {
	ts, err := ISOTimestamp(f.Date)
	if err != nil {
		return CreateExpenseRequest{}, err
	}
	return CreateExpenseRequest{
		Title:    f.Title,
		Amount:   f.Amount,
		Category: f.Category,
		Date:     ts,
		Notes:    f.Notes,
	}, nil
}

// UpdateRequest converts a validated form into the update body for id.
func (f ExpenseForm) UpdateRequest(id string) (UpdateExpenseRequest, error) {
	c, err := f.CreateRequest()
	if err != nil {
		return UpdateExpenseRequest{}, err
	}
	return UpdateExpenseRequest{
		ID:       id,
		Title:    c.Title,
		Amount:   c.Amount,
		Category: c.Category,
		Date:     c.Date,
		Notes:    c.Notes,
	}, nil
}
