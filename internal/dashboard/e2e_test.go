package dashboard_test

import (
	"context"
	"testing"

	"expensedash/internal/apitest"
	"expensedash/internal/core"
	"expensedash/internal/dashboard"
	"expensedash/internal/gateway"
	"expensedash/internal/log"
	"expensedash/internal/session"
	"expensedash/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListSummaryAgainstAPI(t *testing.T) {
	ctx := context.Background()
	srv, url := apitest.Serve(t)
	kv := storage.NewMemory()

	gw, err := gateway.New(url, gateway.WithTokenSource(session.StoredToken{KV: kv}))
	require.NoError(t, err)
	store := session.NewStore(ctx, kv, gw, log.Discard())

	_, err = store.Register(ctx, "Ada Lovelace", "ada@example.com", "s3cret")
	require.NoError(t, err)

	ctl := dashboard.New(gw,
		dashboard.WithLogger(log.Discard()),
		dashboard.WithSession(store),
		dashboard.WithConfirmer(dashboard.ConfirmFunc(func(context.Context, string) bool { return true })),
	)
	require.NoError(t, ctl.Reload(ctx))
	assert.Empty(t, ctl.Expenses())

	ctl.OpenExpense(nil)
	ctl.SetForm(core.ExpenseForm{Title: "Lunch", Amount: 10, Category: core.Food, Date: "2024-03-05"})
	require.NoError(t, ctl.Save(ctx))

	ctl.OpenExpense(nil)
	ctl.SetForm(core.ExpenseForm{Title: "Coffee", Amount: 5.5, Category: core.Food, Date: "2024-04-01"})
	require.NoError(t, ctl.Save(ctx))

	list := ctl.Expenses()
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-05T00:00:00.000Z", list[0].Date)
	assert.Equal(t, 15.5, ctl.TotalSpending())
	assert.Equal(t, []core.CategorySummary{{Category: "Food", TotalAmount: 15.5, Count: 2}}, ctl.Summary())
	assert.Equal(t, []dashboard.TrendPoint{{Label: "Mar 2024", Total: 10}, {Label: "Apr 2024", Total: 5.5}}, ctl.TrendPoints())

	ctl.SetFilter(core.FilterCriteria{StartDate: "2024-04-01"})
	require.NoError(t, ctl.ApplyFilter(ctx))
	require.Len(t, ctl.Expenses(), 1)
	assert.Equal(t, "Coffee", ctl.Expenses()[0].Title)

	require.NoError(t, ctl.Delete(ctx, list[0].ID))
	for _, e := range ctl.Expenses() {
		assert.NotEqual(t, list[0].ID, e.ID)
	}
	assert.Len(t, srv.Expenses("ada@example.com"), 1)

	ctl.Logout(ctx)
	assert.False(t, store.IsAuthenticated(ctx))
	assert.Nil(t, store.CurrentUser())
}

func TestApplyFilterEmptyMatchesLoadExpenses(t *testing.T) {
	ctx := context.Background()
	srv, url := apitest.Serve(t)
	tok := srv.MustToken(t, "Bob", "bob@example.com", "pw")
	srv.Seed("bob@example.com",
		core.Expense{Title: "Bus", Amount: 2, Category: core.Transport, Date: "2024-01-02T00:00:00.000Z"},
		core.Expense{Title: "Rent", Amount: 800, Category: core.Rent, Date: "2024-01-03T00:00:00.000Z"},
	)
	kv := storage.NewMemoryFrom(map[string]string{session.TokenKey: tok})
	gw, err := gateway.New(url, gateway.WithTokenSource(session.StoredToken{KV: kv}))
	require.NoError(t, err)

	a := dashboard.New(gw, dashboard.WithLogger(log.Discard()))
	require.NoError(t, a.LoadExpenses(ctx))

	b := dashboard.New(gw, dashboard.WithLogger(log.Discard()))
	require.NoError(t, b.ApplyFilter(ctx))

	assert.Equal(t, a.Expenses(), b.Expenses())
	assert.Len(t, b.Expenses(), 2)
}

func TestServerFailureSurfacesBanner(t *testing.T) {
	ctx := context.Background()
	srv, url := apitest.Serve(t)
	tok := srv.MustToken(t, "Cy", "cy@example.com", "pw")
	kv := storage.NewMemoryFrom(map[string]string{session.TokenKey: tok})
	gw, err := gateway.New(url, gateway.WithTokenSource(session.StoredToken{KV: kv}))
	require.NoError(t, err)

	srv.Fail("GET /api/Expense/all", 500, "down")
	ctl := dashboard.New(gw, dashboard.WithLogger(log.Discard()))
	require.ErrorIs(t, ctl.Reload(ctx), gateway.ErrUnexpectedStatus)
	assert.Equal(t, dashboard.MsgLoadFailed, ctl.Error())
}
