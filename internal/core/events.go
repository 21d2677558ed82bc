package core

// Expense mutation actions carried by ExpenseEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ExpenseEvent announces a mutation the remote API has acknowledged.
type ExpenseEvent struct {
	Action string
	ID     string
}
