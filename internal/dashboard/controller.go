// Package dashboard holds the in-memory state behind the expense dashboard:
// the loaded list, the server-computed summary and trend, the create/edit
// form and the active filter. Every successful mutation triggers a full
// reload of list, summary and trend.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"expensedash/internal/core"
	"expensedash/internal/gateway"
	"expensedash/internal/log"

	"golang.org/x/sync/errgroup"
)

// User-facing error banners.
const (
	MsgLoadFailed   = "Failed to load expenses"
	MsgReadFailed   = "Failed to load expense"
	MsgCreateFailed = "Failed to create expense"
	MsgUpdateFailed = "Failed to update expense"
	MsgDeleteFailed = "Failed to delete expense"
	MsgFilterFailed = "Failed to filter expenses"
)

// DeletePrompt is the question put to the Confirmer before a delete.
const DeletePrompt = "Are you sure you want to delete this expense?"

var (
	ErrInvalidForm     = errors.New("invalid expense form")
	ErrDeleteCancelled = errors.New("delete cancelled")
	ErrNoOpenForm      = errors.New("no expense form is open")
)

// State is the form lifecycle.
type State int

const (
	Idle State = iota
	Creating
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Gateway is the subset of the remote API the dashboard uses.
type Gateway interface {
	CreateExpense(ctx context.Context, req core.CreateExpenseRequest) (core.Expense, error)
	UpdateExpense(ctx context.Context, req core.UpdateExpenseRequest) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetAllExpenses(ctx context.Context) ([]core.Expense, error)
	GetCategorySummary(ctx context.Context) ([]core.CategorySummary, error)
	FilterExpenses(ctx context.Context, req core.FilterExpenseRequest) ([]core.Expense, error)
	GetTrend(ctx context.Context) ([]core.TrendData, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// EventPublisher receives acknowledged mutations.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev core.ExpenseEvent) error
}

// SessionEnder is the part of the session store needed to log out.
type SessionEnder interface {
	Logout(ctx context.Context)
}

// TrendPoint is one chart-ready month.
type TrendPoint struct {
	Label string
	Total float64
}

type Controller struct {
	gw      Gateway
	confirm Confirmer
	events  EventPublisher
	session SessionEnder
	logger  *log.Logger
	now     func() time.Time

	mu         sync.Mutex
	state      State
	form       core.ExpenseForm
	formErrors core.FormErrors
	editingID  string
	filter     core.FilterCriteria
	expenses   []core.Expense
	summary    []core.CategorySummary
	trend      []core.TrendData
	errMsg     string
	inFlight   int
}

type Option func(*Controller)

func WithConfirmer(c Confirmer) Option { return func(ctl *Controller) { ctl.confirm = c } }

func WithEventPublisher(p EventPublisher) Option { return func(ctl *Controller) { ctl.events = p } }

func WithSession(s SessionEnder) Option { return func(ctl *Controller) { ctl.session = s } }

func WithLogger(l *log.Logger) Option { return func(ctl *Controller) { ctl.logger = l } }

// WithClock overrides the time source used for form defaults.
func WithClock(now func() time.Time) Option { return func(ctl *Controller) { ctl.now = now } }

// New builds an idle controller. Without a Confirmer every delete is declined.
func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:       gw,
		now:      time.Now,
		expenses: []core.Expense{},
		summary:  []core.CategorySummary{},
		trend:    []core.TrendData{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(log.DefaultConfig())
	}
	c.logger = c.logger.WithComponent(log.ComponentDashboard)
	if c.confirm == nil {
		c.confirm = ConfirmFunc(func(context.Context, string) bool { return false })
	}
	return c
}

// OpenExpense starts creating (e == nil) or editing e.
func (c *Controller) OpenExpense(e *core.Expense) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formErrors = core.FormErrors{}
	if e == nil {
		c.state = Creating
		c.editingID = ""
		c.form = core.NewExpenseForm(c.now())
		return
	}
	c.state = Editing
	c.editingID = e.ID
	c.form = core.FormFromExpense(*e)
}

// EditExpense fetches one expense and opens it for editing. On failure the
// banner is set and no form is opened.
func (c *Controller) EditExpense(ctx context.Context, id string) error {
	c.begin()
	e, err := c.gw.GetExpense(ctx, id)
	c.end()
	if err != nil {
		c.setError(MsgReadFailed)
		fields := log.NewFields().WithOperation(log.OpRead).WithErrorType(gateway.ErrorType(err)).WithError(err)
		c.logger.ErrorContext(ctx, MsgReadFailed, append(fields.ToSlice(), log.FieldExpenseID, id)...)
		return err
	}
	c.OpenExpense(&e)
	return nil
}

// CloseExpense cancels the open form without touching the network.
func (c *Controller) CloseExpense() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetFormLocked()
}

func (c *Controller) resetFormLocked() {
	c.state = Idle
	c.editingID = ""
	c.form = core.ExpenseForm{}
	c.formErrors = core.FormErrors{}
}

// SetForm replaces the form values and revalidates them.
func (c *Controller) SetForm(f core.ExpenseForm) core.FormErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
	c.formErrors = core.ValidateExpenseForm(f)
	return c.formErrors
}

func (c *Controller) Form() core.ExpenseForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) FormErrors() core.FormErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formErrors
}

// Save submits the open form. An invalid form never reaches the network.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	prev := c.state
	if prev != Creating && prev != Editing {
		c.mu.Unlock()
		return ErrNoOpenForm
	}
	c.formErrors = core.ValidateExpenseForm(c.form)
	if !c.formErrors.Valid() {
		c.mu.Unlock()
		return ErrInvalidForm
	}
	form, id := c.form, c.editingID
	c.mu.Unlock()

	var (
		saved  core.Expense
		err    error
		action string
		msg    string
		op     string
	)
	if prev == Creating {
		action, msg, op = core.ActionCreated, MsgCreateFailed, log.OpCreate
		req, rerr := form.CreateRequest()
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrInvalidForm, rerr)
		}
		c.setState(Saving)
		saved, err = c.gw.CreateExpense(ctx, req)
	} else {
		action, msg, op = core.ActionUpdated, MsgUpdateFailed, log.OpUpdate
		req, rerr := form.UpdateRequest(id)
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrInvalidForm, rerr)
		}
		c.setState(Saving)
		saved, err = c.gw.UpdateExpense(ctx, req)
	}

	if err != nil {
		c.mu.Lock()
		c.state = prev
		c.errMsg = msg
		c.mu.Unlock()
		c.logger.ErrorContext(ctx, msg, log.NewFields().
			WithOperation(op).WithErrorType(gateway.ErrorType(err)).WithError(err).ToSlice()...)
		return err
	}

	c.mu.Lock()
	c.resetFormLocked()
	c.mu.Unlock()

	if saved.ID != "" {
		id = saved.ID
	}
	c.logger.InfoContext(ctx, "Expense saved", log.NewFields().
		WithOperation(op).WithExpense(id, form.Title, form.Amount, form.Category.Label()).ToSlice()...)
	c.publish(ctx, core.ExpenseEvent{Action: action, ID: id})
	_ = c.Reload(ctx)
	return nil
}

// Delete removes id after the Confirmer agrees.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if !c.confirm.Confirm(ctx, DeletePrompt) {
		return ErrDeleteCancelled
	}
	if err := c.gw.DeleteExpense(ctx, id); err != nil {
		c.setError(MsgDeleteFailed)
		c.logger.ErrorContext(ctx, MsgDeleteFailed, log.NewFields().
			WithOperation(log.OpDelete).WithErrorType(gateway.ErrorType(err)).WithError(err).ToSlice()...)
		return err
	}
	c.logger.InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	c.publish(ctx, core.ExpenseEvent{Action: core.ActionDeleted, ID: id})
	_ = c.Reload(ctx)
	return nil
}

func (c *Controller) publish(ctx context.Context, ev core.ExpenseEvent) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishExpenseEvent(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish expense event", log.NewFields().
			WithOperation(log.OpPublish).WithError(err).ToSlice()...)
	}
}

// Reload fetches list, summary and trend concurrently. Each result is
// applied as it arrives; the returned error is the list failure, if any.
func (c *Controller) Reload(ctx context.Context) error {
	// Plain Group: a failed list load must not cancel the other two.
	var g errgroup.Group
	g.Go(func() error { return c.LoadExpenses(ctx) })
	g.Go(func() error {
		_ = c.LoadCategorySummary(ctx)
		return nil
	})
	g.Go(func() error {
		_ = c.LoadTrend(ctx)
		return nil
	})
	return g.Wait()
}

// LoadExpenses replaces the list with every expense of the user.
func (c *Controller) LoadExpenses(ctx context.Context) error {
	c.begin()
	defer c.end()

	list, err := c.gw.GetAllExpenses(ctx)
	if err != nil {
		c.setError(MsgLoadFailed)
		c.logger.ErrorContext(ctx, MsgLoadFailed, log.NewFields().
			WithOperation(log.OpList).WithErrorType(gateway.ErrorType(err)).WithError(err).ToSlice()...)
		return err
	}
	c.mu.Lock()
	c.expenses = list
	c.mu.Unlock()
	return nil
}

// LoadCategorySummary failures are logged and keep the previous summary.
func (c *Controller) LoadCategorySummary(ctx context.Context) error {
	summary, err := c.gw.GetCategorySummary(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to load category summary", log.NewFields().
			WithOperation(log.OpSummary).WithErrorType(gateway.ErrorType(err)).WithError(err).ToSlice()...)
		return err
	}
	c.mu.Lock()
	c.summary = summary
	c.mu.Unlock()
	return nil
}

// LoadTrend failures are logged and keep the previous trend.
func (c *Controller) LoadTrend(ctx context.Context) error {
	trend, err := c.gw.GetTrend(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to load trend data", log.NewFields().
			WithOperation(log.OpTrend).WithErrorType(gateway.ErrorType(err)).WithError(err).ToSlice()...)
		return err
	}
	c.mu.Lock()
	c.trend = trend
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetFilter(f core.FilterCriteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

func (c *Controller) Filter() core.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// ApplyFilter narrows the list. An empty filter reloads the full list.
// Summary and trend always reflect the full data set and are left alone.
func (c *Controller) ApplyFilter(ctx context.Context) error {
	f := c.Filter()
	if f.IsEmpty() {
		return c.LoadExpenses(ctx)
	}

	req, err := core.NewFilterRequest(f)
	if err != nil {
		c.setError(MsgFilterFailed)
		c.logger.WarnContext(ctx, MsgFilterFailed, log.NewFields().
			WithOperation(log.OpFilter).WithErrorType(log.ErrorTypeValidation).WithError(err).ToSlice()...)
		return fmt.Errorf("build filter: %w", err)
	}

	c.begin()
	defer c.end()
	list, err := c.gw.FilterExpenses(ctx, req)
	if err != nil {
		c.setError(MsgFilterFailed)
		c.logger.ErrorContext(ctx, MsgFilterFailed, log.NewFields().
			WithOperation(log.OpFilter).WithErrorType(gateway.ErrorType(err)).WithError(err).ToSlice()...)
		return err
	}
	c.mu.Lock()
	c.expenses = list
	c.mu.Unlock()
	return nil
}

// ClearFilter resets the criteria and reloads the full list.
func (c *Controller) ClearFilter(ctx context.Context) error {
	c.SetFilter(core.FilterCriteria{})
	return c.LoadExpenses(ctx)
}

// TotalSpending sums the currently loaded list, filtered or not.
func (c *Controller) TotalSpending() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.TotalSpending(c.expenses)
}

// TrendPoints labels the trend for charting, keeping server order.
func (c *Controller) TrendPoints() []TrendPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TrendPoint, 0, len(c.trend))
	for _, t := range c.trend {
		out = append(out, TrendPoint{Label: core.FormatMonthLabel(t.Month), Total: t.TotalSpent})
	}
	return out
}

func (c *Controller) CategoryLabel(cat core.Category) string {
	return cat.Label()
}

func (c *Controller) Expenses() []core.Expense {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]core.Expense, 0, len(c.expenses)), c.expenses...)
}

func (c *Controller) Summary() []core.CategorySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]core.CategorySummary, 0, len(c.summary)), c.summary...)
}

func (c *Controller) Trend() []core.TrendData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]core.TrendData, 0, len(c.trend)), c.trend...)
}

// Error returns the current banner, or "".
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) ClearError() {
	c.setError("")
}

// Loading reports whether a list load or filter is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EditingID is the id of the expense being edited, or "".
func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// Logout ends the session and drops everything loaded for it.
func (c *Controller) Logout(ctx context.Context) {
	if c.session != nil {
		c.session.Logout(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetFormLocked()
	c.filter = core.FilterCriteria{}
	c.expenses = []core.Expense{}
	c.summary = []core.CategorySummary{}
	c.trend = []core.TrendData{}
	c.errMsg = ""
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}
