// Command expensedash is a terminal client for the expense tracking API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"expensedash/internal/cli"
)

type command struct {
	summary string
	// auth is true for commands that need a stored session.
	auth bool
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"register":  {"create an account and log in", false, cmdRegister},
	"login":     {"log in with email and password", false, cmdLogin},
	"logout":    {"forget the stored session", false, cmdLogout},
	"whoami":    {"show the logged-in user", false, cmdWhoami},
	"list":      {"list all expenses", true, cmdList},
	"filter":    {"list expenses matching -category, -from, -to", true, cmdFilter},
	"add":       {"create an expense", true, cmdAdd},
	"edit":      {"change an expense: edit <id> [flags]", true, cmdEdit},
	"delete":    {"delete an expense: delete <id>", true, cmdDelete},
	"summary":   {"totals per category", true, cmdSummary},
	"trend":     {"monthly spending trend", true, cmdTrend},
	"dashboard": {"list, summary and trend together", true, cmdDashboard},
	"export":    {"append the expense list to the configured Google Sheet", true, cmdExport},
	"events":    {"print expense events from the AMQP queue until interrupted", false, cmdEvents},
}

func main() {
	cli.LoadEnvFile()
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// run executes one command. Failures are printed to stderr and returned.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stdout)
		if len(args) == 0 {
			return errors.New("missing command")
		}
		return flag.ErrHelp
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
		usage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, stderr)

	a, err := newApp(ctx, cfg, logger, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	defer a.close()

	if cmd.auth {
		if err := a.requireLogin(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return err
		}
	}

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		// The dashboard banner is what the user should see; the raw
		// error is already in the log.
		if banner := a.dash.Error(); banner != "" {
			cli.NewRenderer(stderr).Error(banner)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	width := 0
	for n := range commands {
		names = append(names, n)
		width = max(width, len(n))
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: expensedash <command> [flags]\n\nCommands:\n")
	for _, n := range names {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, n, commands[n].summary)
	}
	b.WriteString("\nConfiguration is read from the environment and an optional .env file.\n")
	fmt.Fprint(w, b.String())
}
