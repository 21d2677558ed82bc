package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"expensedash/internal/apitest"
	"expensedash/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout, stderr string
	err            error
}

// setupEnv points the CLI at a fresh fake API and a throwaway session file.
func setupEnv(t *testing.T) *apitest.Server {
	t.Helper()
	srv, url := apitest.Serve(t)
	t.Setenv("EXPENSEDASH_API_URL", url)
	t.Setenv("EXPENSEDASH_STORAGE_BACKEND", "sqlite")
	t.Setenv("EXPENSEDASH_SQLITE_PATH", filepath.Join(t.TempDir(), "session.db"))
	t.Setenv("EXPENSEDASH_LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	return srv
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func register(t *testing.T) {
	t.Helper()
	r := runCLI(t, "", "register", "-name", "Ada Lovelace", "-email", "ada@example.com", "-password", "s3cret")
	require.NoError(t, r.err, r.stderr)
	require.Contains(t, r.stdout, "Welcome, Ada Lovelace!")
}

func TestRun_FullSession(t *testing.T) {
	srv := setupEnv(t)
	register(t)

	r := runCLI(t, "", "whoami")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Ada Lovelace <ada@example.com>")
	assert.Contains(t, r.stdout, "Session expires")

	r = runCLI(t, "", "list")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "No expenses yet.")

	r = runCLI(t, "", "add", "-title", "Lunch", "-amount", "10", "-category", "food", "-date", "2024-03-05")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Saved. Total spending: 10.00")

	r = runCLI(t, "", "add", "-title", "Coffee", "-amount", "5,5", "-category", "1", "-date", "2024-04-01", "-notes", "oat")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Total spending: 15.50")

	stored := srv.Expenses("ada@example.com")
	require.Len(t, stored, 2)
	assert.Equal(t, core.Food, stored[1].Category)
	assert.Equal(t, "2024-04-01T00:00:00.000Z", stored[1].Date)

	r = runCLI(t, "", "summary")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Food")
	assert.Contains(t, r.stdout, "15.50")

	r = runCLI(t, "", "trend")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Mar 2024")
	assert.Contains(t, r.stdout, "Apr 2024")

	r = runCLI(t, "", "filter", "-from", "2024-04-01")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Coffee")
	assert.NotContains(t, r.stdout, "Lunch")

	r = runCLI(t, "", "edit", stored[0].ID, "-title", "Team lunch")
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "Team lunch", srv.Expenses("ada@example.com")[0].Title)
	assert.Equal(t, 10.0, srv.Expenses("ada@example.com")[0].Amount)

	r = runCLI(t, "", "dashboard")
	require.NoError(t, r.err, r.stderr)
	for _, want := range []string{"By category", "Spending trend", "Team lunch", "Total spending: 15.50"} {
		assert.Contains(t, r.stdout, want)
	}

	r = runCLI(t, "", "delete", stored[0].ID, "-yes")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Deleted.")
	assert.Len(t, srv.Expenses("ada@example.com"), 1)

	r = runCLI(t, "", "logout")
	require.NoError(t, r.err)

	r = runCLI(t, "", "list")
	require.ErrorIs(t, r.err, errNotLoggedIn)
	assert.Contains(t, r.stderr, "not logged in")
}

func TestRun_LoginPromptsForPassword(t *testing.T) {
	setupEnv(t)
	register(t)
	require.NoError(t, runCLI(t, "", "logout").err)

	r := runCLI(t, "s3cret\n", "login", "-email", "ada@example.com")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Password: ")
	assert.Contains(t, r.stdout, "Logged in as Ada Lovelace <ada@example.com>")
}

func TestRun_LoginShowsServerMessage(t *testing.T) {
	setupEnv(t)
	register(t)

	r := runCLI(t, "", "login", "-email", "ada@example.com", "-password", "wrong")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "Invalid email or password")

	// The earlier session is still in place.
	r = runCLI(t, "", "whoami")
	assert.Contains(t, r.stdout, "Ada Lovelace")
}

func TestRun_DuplicateRegistration(t *testing.T) {
	setupEnv(t)
	register(t)

	r := runCLI(t, "", "register", "-name", "Ada", "-email", "ada@example.com", "-password", "secret")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "Email already exists")
}

func TestRun_RegisterRejectsBadInput(t *testing.T) {
	setupEnv(t)

	r := runCLI(t, "", "register", "-name", "A", "-email", "ada@example.com", "-password", "x")
	require.ErrorIs(t, r.err, core.ErrInvalidRegistration)

	r = runCLI(t, "", "register", "-name", "A", "-email", "not-an-email", "-password", "x")
	require.ErrorIs(t, r.err, core.ErrInvalidRegistration)
	assert.Contains(t, r.stdout, "full name must be at least 2 characters")
	assert.Contains(t, r.stdout, "email is not a valid address")
	assert.Contains(t, r.stdout, "password must be at least 6 characters")

	r = runCLI(t, "", "whoami")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Not logged in.")

	// Nothing reached the server, so the address is still free.
	register(t)
}

func TestRun_AddInvalidFormSendsNothing(t *testing.T) {
	srv := setupEnv(t)
	register(t)

	r := runCLI(t, "", "add", "-amount", "0.0099")
	require.Error(t, r.err)
	assert.Contains(t, r.stdout, "title is required")
	assert.Contains(t, r.stdout, "amount must be at least 0.01")
	assert.Empty(t, srv.Expenses("ada@example.com"))

	r = runCLI(t, "", "add", "-title", "Gum", "-amount", "0.01")
	require.NoError(t, r.err, r.stderr)
	assert.Len(t, srv.Expenses("ada@example.com"), 1)
}

func TestRun_AddRejectsBadInput(t *testing.T) {
	setupEnv(t)
	register(t)

	r := runCLI(t, "", "add", "-title", "x", "-amount", "ten")
	require.ErrorIs(t, r.err, core.ErrInvalidAmount)

	r = runCLI(t, "", "add", "-title", "x", "-amount", "1", "-category", "Pets")
	require.ErrorIs(t, r.err, core.ErrInvalidCategory)
}

func TestRun_DeleteDeclined(t *testing.T) {
	srv := setupEnv(t)
	register(t)
	srv.Seed("ada@example.com", core.Expense{ID: "keep-me", Title: "Rent", Amount: 900, Category: core.Rent, Date: "2024-01-01T00:00:00.000Z"})

	r := runCLI(t, "n\n", "delete", "keep-me")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Are you sure you want to delete this expense? [y/N]")
	assert.Contains(t, r.stdout, "Cancelled.")
	assert.Len(t, srv.Expenses("ada@example.com"), 1)
}

func TestRun_DeleteFailureShowsBanner(t *testing.T) {
	setupEnv(t)
	register(t)

	r := runCLI(t, "", "delete", "missing", "-yes")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "Failed to delete expense")
}

func TestRun_ListFailureShowsBanner(t *testing.T) {
	srv := setupEnv(t)
	register(t)
	srv.Fail("GET /api/Expense/all", 500, "boom")

	r := runCLI(t, "", "list")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "Failed to load expenses")
}

func TestRun_ExportNeedsConfiguration(t *testing.T) {
	setupEnv(t)
	register(t)

	r := runCLI(t, "", "export")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "GOOGLE_SPREADSHEET_ID is required for export")
}

func TestRun_EventsNeedAMQP(t *testing.T) {
	setupEnv(t)

	r := runCLI(t, "", "events")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "AMQP_URL is not set")
}

func TestRun_UnknownCommand(t *testing.T) {
	r := runCLI(t, "", "frobnicate")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, `unknown command "frobnicate"`)
	assert.Contains(t, r.stderr, "Usage: expensedash")
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	r := runCLI(t, "")
	require.Error(t, r.err)
	assert.Contains(t, r.stdout, "dashboard")
}

func TestRun_MissingAPIURL(t *testing.T) {
	setupEnv(t)
	t.Setenv("EXPENSEDASH_API_URL", "")

	r := runCLI(t, "", "list")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "EXPENSEDASH_API_URL is required")
}
