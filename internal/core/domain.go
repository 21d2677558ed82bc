package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Category values match the numeric enumeration used by the remote API.
const (
	Food Category = iota + 1
	Transport
	Rent
	Entertainment
	Utilities
	Others
)

type (
	Category int

	Expense struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Amount   float64  `json:"amount"`
		Category Category `json:"category"`
		Date     string   `json:"date"` // ISO 8601 timestamp
		Notes    string   `json:"notes"`
	}

	// CategorySummary is computed server-side over the full expense set.
	CategorySummary struct {
		Category    string  `json:"category"`
		TotalAmount float64 `json:"totalAmount"`
		Count       int     `json:"count"`
	}

	// TrendData is one month of spending, keyed "YYYY-MM".
	TrendData struct {
		Month      string  `json:"month"`
		TotalSpent float64 `json:"totalSpent"`
	}

	// Identity is the authenticated user as persisted on the client.
	Identity struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}

	// FilterCriteria narrows the expense list. Empty fields are unset.
	FilterCriteria struct {
		Category  string
		StartDate string
		EndDate   string
	}
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyDate       = errors.New("empty date")
)

var categoryLabels = map[Category]string{
	Food:          "Food",
	Transport:     "Transport",
	Rent:          "Rent",
	Entertainment: "Entertainment",
	Utilities:     "Utilities",
	Others:        "Others",
}

// Categories returns the enumeration in display order.
func Categories() []Category {
	return []Category{Food, Transport, Rent, Entertainment, Utilities, Others}
}

// Valid reports whether c is a member of the enumeration.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, or "Unknown" for values outside the enumeration.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "Unknown"
}

func (c Category) String() string {
	return c.Label()
}

// ParseCategory accepts either a label (case-insensitive) or its numeric value.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidCategory
	}
	if n, err := strconv.Atoi(s); err == nil {
		c := Category(n)
		if !c.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidCategory, n)
		}
		return c, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(c.Label(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// IsEmpty reports whether no criterion is set, which means "load everything".
func (f FilterCriteria) IsEmpty() bool {
	return strings.TrimSpace(f.Category) == "" &&
		strings.TrimSpace(f.StartDate) == "" &&
		strings.TrimSpace(f.EndDate) == ""
}
