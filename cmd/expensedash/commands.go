package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"expensedash/internal/amqp"
	"expensedash/internal/cli"
	"expensedash/internal/core"
	"expensedash/internal/dashboard"
	"expensedash/internal/session"
	"expensedash/internal/sheets/google"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// splitID accepts the id either before or after the flags.
func splitID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("missing expense id")
	}
	return id, nil
}

func promptIfEmpty(value *string, ask func(string) (string, error), label string) error {
	if *value != "" {
		return nil
	}
	v, err := ask(label)
	if err != nil {
		return fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	*value = strings.TrimSpace(v)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "register")
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := promptIfEmpty(name, a.prompt.Line, "Full name"); err != nil {
		return err
	}
	if err := promptIfEmpty(email, a.prompt.Line, "Email"); err != nil {
		return err
	}
	if err := promptIfEmpty(password, a.prompt.Password, "Password"); err != nil {
		return err
	}

	id, err := a.session.Register(ctx, *name, *email, *password)
	if err != nil {
		var fe core.RegisterErrors
		if errors.As(err, &fe) {
			for _, m := range fe.Messages() {
				a.render.Error("  " + m)
			}
		}
		return err
	}
	a.render.Success(fmt.Sprintf("Welcome, %s!", id.FullName))
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := promptIfEmpty(email, a.prompt.Line, "Email"); err != nil {
		return err
	}
	if err := promptIfEmpty(password, a.prompt.Password, "Password"); err != nil {
		return err
	}

	id, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.render.Success(fmt.Sprintf("Logged in as %s <%s>", id.FullName, id.Email))
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	a.dash.Logout(ctx)
	a.render.Success("Logged out.")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	expires, _ := session.TokenExpiry(a.session.Token(ctx))
	a.render.Identity(a.session.CurrentUser(), expires)
	return nil
}

func cmdList(ctx context.Context, a *app, _ []string) error {
	if err := a.dash.LoadExpenses(ctx); err != nil {
		return err
	}
	a.render.Expenses(a.dash.Expenses(), a.dash.TotalSpending())
	return nil
}

type filterFlags struct {
	category, from, to *string
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		category: fs.String("category", "", "Category name or number"),
		from:     fs.String("from", "", "Start date (YYYY-MM-DD)"),
		to:       fs.String("to", "", "End date (YYYY-MM-DD)"),
	}
}

func (f filterFlags) criteria() (core.FilterCriteria, error) {
	c := core.FilterCriteria{Category: *f.category, StartDate: *f.from, EndDate: *f.to}
	if c.Category != "" {
		if _, err := core.ParseCategory(c.Category); err != nil {
			return c, err
		}
	}
	return c, nil
}

func cmdFilter(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "filter")
	ff := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	criteria, err := ff.criteria()
	if err != nil {
		return err
	}

	a.dash.SetFilter(criteria)
	if err := a.dash.ApplyFilter(ctx); err != nil {
		return err
	}
	a.render.Expenses(a.dash.Expenses(), a.dash.TotalSpending())
	return nil
}

type formFlags struct {
	title, amount, category, date, notes *string
}

func addFormFlags(fs *flag.FlagSet) formFlags {
	return formFlags{
		title:    fs.String("title", "", "Title"),
		amount:   fs.String("amount", "", "Amount, e.g. 12.50 or 12,50"),
		category: fs.String("category", "", "Category name or number"),
		date:     fs.String("date", "", "Date (YYYY-MM-DD)"),
		notes:    fs.String("notes", "", "Notes"),
	}
}

// apply overwrites only the fields whose flags were given.
func (f formFlags) apply(fs *flag.FlagSet, form *core.ExpenseForm) error {
	var err error
	fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "title":
			form.Title = *f.title
		case "amount":
			var v float64
			if v, err = core.ParseAmount(*f.amount); err != nil {
				err = fmt.Errorf("amount %q: %w", *f.amount, err)
				return
			}
			form.Amount = v
		case "category":
			var c core.Category
			if c, err = core.ParseCategory(*f.category); err != nil {
				return
			}
			form.Category = c
		case "date":
			form.Date = *f.date
		case "notes":
			form.Notes = *f.notes
		}
	})
	return err
}

func saveForm(ctx context.Context, a *app) error {
	if err := a.dash.Save(ctx); err != nil {
		if errors.Is(err, dashboard.ErrInvalidForm) {
			a.render.FormErrors(a.dash.FormErrors())
		}
		return err
	}
	a.render.Success(fmt.Sprintf("Saved. Total spending: %s", a.render.Amount(a.dash.TotalSpending())))
	return nil
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add")
	ff := addFormFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.dash.OpenExpense(nil)
	form := a.dash.Form()
	if err := ff.apply(fs, &form); err != nil {
		return err
	}
	a.dash.SetForm(form)
	return saveForm(ctx, a)
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "edit")
	ff := addFormFlags(fs)
	id, err := splitID(fs, args)
	if err != nil {
		return err
	}

	if err := a.dash.EditExpense(ctx, id); err != nil {
		return err
	}
	form := a.dash.Form()
	if err := ff.apply(fs, &form); err != nil {
		return err
	}
	a.dash.SetForm(form)
	return saveForm(ctx, a)
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "delete")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	id, err := splitID(fs, args)
	if err != nil {
		return err
	}
	if *yes {
		a.prompt.AssumeYes()
	}

	switch err := a.dash.Delete(ctx, id); {
	case errors.Is(err, dashboard.ErrDeleteCancelled):
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	case err != nil:
		return err
	}
	a.render.Success("Deleted.")
	return nil
}

func cmdSummary(ctx context.Context, a *app, _ []string) error {
	if err := a.dash.LoadCategorySummary(ctx); err != nil {
		return fmt.Errorf("load category summary: %w", err)
	}
	a.render.Summary(a.dash.Summary())
	return nil
}

func cmdTrend(ctx context.Context, a *app, _ []string) error {
	if err := a.dash.LoadTrend(ctx); err != nil {
		return fmt.Errorf("load trend: %w", err)
	}
	a.render.Trend(a.dash.TrendPoints())
	return nil
}

func cmdDashboard(ctx context.Context, a *app, _ []string) error {
	if err := a.dash.Reload(ctx); err != nil {
		return err
	}
	if id := a.session.CurrentUser(); id != nil {
		a.render.Identity(id, time.Time{})
		fmt.Fprintln(a.out)
	}
	a.render.Summary(a.dash.Summary())
	fmt.Fprintln(a.out)
	a.render.Trend(a.dash.TrendPoints())
	fmt.Fprintln(a.out)
	a.render.Expenses(a.dash.Expenses(), a.dash.TotalSpending())
	return nil
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "export")
	ff := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.cfg.ValidateExport(); err != nil {
		return err
	}
	criteria, err := ff.criteria()
	if err != nil {
		return err
	}

	a.dash.SetFilter(criteria)
	if err := a.dash.ApplyFilter(ctx); err != nil {
		return err
	}

	credFile := a.cfg.GoogleServiceAccountFile
	if credFile == "" {
		credFile = a.cfg.GoogleApplicationCredFile
	}
	exporter, err := google.New(ctx, google.Config{
		SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
		SheetName:       a.cfg.GoogleSheetName,
		CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
		CredentialsFile: credFile,
	}, a.logger)
	if err != nil {
		return err
	}

	list := a.dash.Expenses()
	rng, err := exporter.AppendExpenses(ctx, list)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nothing to export.")
		return nil
	}
	a.render.Success(fmt.Sprintf("Exported %d expenses to %s", len(list), rng))
	return nil
}

func cmdEvents(ctx context.Context, a *app, _ []string) error {
	if !a.cfg.EventsEnabled() {
		return errors.New("AMQP_URL is not set")
	}
	if a.events == nil {
		return errors.New("AMQP broker is unreachable")
	}

	ctx, cancel := cli.ShutdownContext(ctx, a.logger)
	defer cancel()

	err := a.events.ConsumeExpenseEvents(ctx, func(m *amqp.ExpenseEventMessage) error {
		_, err := fmt.Fprintf(a.out, "%s  %-7s  %s\n", m.Timestamp.Local().Format(time.DateTime), m.Action, m.ID)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
