package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"expensedash/internal/core"
	"expensedash/internal/dashboard"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const barWidth = 30

// Renderer prints dashboard views. Colour is decided from the writer, so
// output captured in a buffer stays plain.
type Renderer struct {
	out     io.Writer
	printer *message.Printer

	title lipgloss.Style
	muted lipgloss.Style
	err   lipgloss.Style
	ok    lipgloss.Style
	bar   lipgloss.Style
}

func NewRenderer(out io.Writer) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:     out,
		printer: message.NewPrinter(language.English),
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		err:     r.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		bar:     r.NewStyle().Foreground(lipgloss.Color("#cba6f7")),
	}
}

// Amount formats v with two decimals and thousands separators.
func (r *Renderer) Amount(v float64) string {
	return r.printer.Sprintf("%.2f", v)
}

func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.out, r.err.Render(msg))
}

func (r *Renderer) Success(msg string) {
	fmt.Fprintln(r.out, r.ok.Render(msg))
}

func (r *Renderer) Identity(id *core.Identity, expires time.Time) {
	if id == nil {
		fmt.Fprintln(r.out, r.muted.Render("Not logged in."))
		return
	}
	fmt.Fprintf(r.out, "%s <%s>\n", r.title.Render(id.FullName), id.Email)
	if !expires.IsZero() {
		fmt.Fprintln(r.out, r.muted.Render("Session expires "+expires.Local().Format(time.RFC1123)))
	}
}

// Expenses prints the list followed by its total.
func (r *Renderer) Expenses(list []core.Expense, total float64) {
	fmt.Fprintln(r.out, r.title.Render("Expenses"))
	if len(list) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("No expenses yet."))
		return
	}

	rows := make([][]string, 0, len(list))
	for _, e := range list {
		date, err := core.CalendarDate(e.Date)
		if err != nil {
			date = e.Date
		}
		rows = append(rows, []string{date, e.Title, e.Category.Label(), r.Amount(e.Amount), e.ID})
	}
	r.table([]string{"DATE", "TITLE", "CATEGORY", "AMOUNT", "ID"}, rows, 3)
	fmt.Fprintf(r.out, "%s %s\n", r.muted.Render("Total spending:"), r.Amount(total))
}

func (r *Renderer) Summary(summary []core.CategorySummary) {
	fmt.Fprintln(r.out, r.title.Render("By category"))
	if len(summary) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("No spending recorded."))
		return
	}
	rows := make([][]string, 0, len(summary))
	for _, s := range summary {
		rows = append(rows, []string{s.Category, r.Amount(s.TotalAmount), r.printer.Sprintf("%d", s.Count)})
	}
	r.table([]string{"CATEGORY", "TOTAL", "COUNT"}, rows, 1, 2)
}

// Trend draws one horizontal bar per month, scaled to the largest month.
func (r *Renderer) Trend(points []dashboard.TrendPoint) {
	fmt.Fprintln(r.out, r.title.Render("Spending trend"))
	if len(points) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("No trend data."))
		return
	}

	var peak float64
	labelWidth := 0
	for _, p := range points {
		peak = max(peak, p.Total)
		labelWidth = max(labelWidth, len(p.Label))
	}
	for _, p := range points {
		n := 0
		if peak > 0 {
			n = int(p.Total / peak * barWidth)
		}
		fmt.Fprintf(r.out, "%-*s %s %s\n", labelWidth, p.Label, r.bar.Render(strings.Repeat("█", n)), r.Amount(p.Total))
	}
}

// FormErrors lists the fields that failed validation.
func (r *Renderer) FormErrors(fe core.FormErrors) {
	var msgs []string
	if fe.TitleRequired {
		msgs = append(msgs, "title is required")
	}
	if fe.AmountInvalid {
		msgs = append(msgs, "amount is not a number")
	}
	if fe.AmountBelowMin {
		msgs = append(msgs, "amount must be at least "+core.MinAmount.StringFixed(2))
	}
	if fe.CategoryRequired {
		msgs = append(msgs, "category is required")
	}
	if fe.CategoryInvalid {
		msgs = append(msgs, "category is not valid")
	}
	if fe.DateRequired {
		msgs = append(msgs, "date is required")
	}
	for _, m := range msgs {
		r.Error("  " + m)
	}
}

// table prints aligned columns; right lists the right-aligned column indexes.
func (r *Renderer) table(header []string, rows [][]string, right ...int) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	isRight := map[int]bool{}
	for _, i := range right {
		isRight[i] = true
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(c))
			if isRight[i] {
				parts[i] = pad + c
			} else {
				parts[i] = c + pad
			}
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(r.out, r.muted.Render(line(header)))
	for _, row := range rows {
		fmt.Fprintln(r.out, line(row))
	}
}
