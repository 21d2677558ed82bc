package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() ExpenseForm {
	return ExpenseForm{Title: "Coffee", Amount: 3.5, Category: Food, Date: "2024-05-01"}
}

func TestValidateExpenseForm_Valid(t *testing.T) {
	fe := ValidateExpenseForm(validForm())
	assert.True(t, fe.Valid())
	assert.Empty(t, fe.Fields())
}

func TestValidateExpenseForm_AmountBoundary(t *testing.T) {
	f := validForm()
	f.Amount = 0.0099
	fe := ValidateExpenseForm(f)
	assert.True(t, fe.AmountBelowMin)
	assert.False(t, fe.Valid())

	f.Amount = 0.01
	assert.True(t, ValidateExpenseForm(f).Valid())

	f.Amount = 0
	assert.True(t, ValidateExpenseForm(f).AmountBelowMin)

	f.Amount = math.NaN()
	assert.True(t, ValidateExpenseForm(f).AmountInvalid)
}

func TestValidateExpenseForm_FieldFlags(t *testing.T) {
	fe := ValidateExpenseForm(ExpenseForm{Title: "  ", Amount: 1, Notes: "anything"})
	assert.True(t, fe.TitleRequired)
	assert.True(t, fe.CategoryRequired)
	assert.True(t, fe.DateRequired)
	assert.False(t, fe.AmountBelowMin)
	assert.Equal(t, []string{"title", "category", "date"}, fe.Fields())

	f := validForm()
	f.Category = 11
	assert.True(t, ValidateExpenseForm(f).CategoryInvalid)
}

func TestNewExpenseForm(t *testing.T) {
	f := NewExpenseForm(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, ExpenseForm{Category: Others, Date: "2024-05-01"}, f)
}

func TestFormFromExpense(t *testing.T) {
	f := FormFromExpense(Expense{
		ID: "abc", Title: "Rent", Amount: 900, Category: Rent,
		Date: "2024-02-01T00:00:00.000Z", Notes: "feb",
	})
	assert.Equal(t, ExpenseForm{Title: "Rent", Amount: 900, Category: Rent, Date: "2024-02-01", Notes: "feb"}, f)
}

func TestExpenseFormRequests(t *testing.T) {
	create, err := validForm().CreateRequest()
	require.NoError(t, err)
	assert.Equal(t, Food, create.Category)
	assert.Equal(t, "2024-05-01T00:00:00.000Z", create.Date)

	update, err := validForm().UpdateRequest("exp-1")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", update.ID)
	assert.Equal(t, create.Date, update.Date)
}
