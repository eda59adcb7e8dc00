package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

// Color palette for console output, tuned for dark terminals.
const (
	colorSection = lipgloss.Color("#FBBF24")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorTitle   = lipgloss.Color("#93C5FD")
)

type consoleStyles struct {
	title    lipgloss.Style
	section  lipgloss.Style
	muted    lipgloss.Style
	price    lipgloss.Style
	missing  lipgloss.Style
	total    lipgloss.Style
	legal    lipgloss.Style
	illegal  lipgloss.Style
	summary  lipgloss.Style
}

// Styles are bound to the writer's renderer so output piped to a file or
// another program carries no escape sequences.
func newConsoleStyles(w io.Writer) consoleStyles {
	r := lipgloss.NewRenderer(w)
	return consoleStyles{
		title:   r.NewStyle().Bold(true).Foreground(colorTitle),
		section: r.NewStyle().Bold(true).Foreground(colorSection),
		muted:   r.NewStyle().Foreground(colorMuted),
		price:   r.NewStyle().Bold(true),
		missing: r.NewStyle().Foreground(colorError),
		total:   r.NewStyle().Bold(true).Foreground(colorSuccess),
		legal:   r.NewStyle().Foreground(colorSuccess),
		illegal: r.NewStyle().Bold(true).Foreground(colorError),
		summary: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1),
	}
}

// WriteConsole writes the human readable report of result to w.
func WriteConsole(w io.Writer, result *budget.Result) error {
	styles := newConsoleStyles(w)
	report := result.Report
	currency := result.Currency

	var sb strings.Builder
	for _, section := range decklist.Order {
		items := report.Section(section)
		if len(items) == 0 {
			continue
		}

		sb.WriteString(styles.section.Render(strings.ToUpper(string(section))))
		sb.WriteByte('\n')
		for _, item := range items {
			sb.WriteString("  ")
			sb.WriteString(consoleItem(styles, item, currency))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(styles.summary.Render(consoleSummary(styles, report.Summary, currency)))
	sb.WriteByte('\n')

	if missing := report.NotFound(); len(missing) > 0 {
		sb.WriteString(styles.missing.Render(fmt.Sprintf("%d card(s) without a price", len(missing))))
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func consoleItem(styles consoleStyles, item pricing.LineItem, currency string) string {
	if !item.Found {
		return styles.missing.Render(fmt.Sprintf("✗ %s not found", item.Name))
	}
	return fmt.Sprintf("%dx %s %s  %s",
		item.Quantity,
		item.Card.Name,
		styles.muted.Render(fmt.Sprintf("%s #%s", item.Card.Set, item.Card.CollectorNumber)),
		styles.price.Render(FormatPrice(item.Subtotal, currency)),
	)
}

func consoleSummary(styles consoleStyles, s pricing.Summary, currency string) string {
	rows := []struct {
		label  string
		amount decimal.Decimal
		style  lipgloss.Style
	}{
		{"Commander only", s.CommanderOnly, styles.price},
		{"Deck without commander", s.DeckWithoutCommander, styles.price},
		{"Deck with commander", s.DeckWithCommander, styles.total},
		{"Sideboard", s.Sideboard, styles.price},
		{"Grand total", s.GrandTotal, styles.price},
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row.label))
	}

	lines := []string{styles.title.Render("COST SUMMARY")}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width+1, row.label+":", row.style.Render(FormatPrice(row.amount, currency))))
	}

	if s.LegalityChecked {
		limit := FormatPrice(s.Threshold, currency)
		if s.Legal {
			lines = append(lines, styles.legal.Render("✓ within the "+limit+" budget"))
		} else {
			lines = append(lines, styles.illegal.Render("✗ over the "+limit+" budget"))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
