package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/report"
	"github.com/ramonehamilton/deck-budget/internal/storage"
)

var (
	historyLimit int
	historyDeck  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pricing runs",
	Long: `List recent pricing runs, newest first. With --deck only the runs of that
deck list are shown, which makes price changes over time visible.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().StringVar(&historyDeck, "deck", "", "only show runs of this deck list file")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyLimit < 1 {
		return fmt.Errorf("limit must be positive")
	}

	db, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store := storage.NewRunStore(db)

	var runs []storage.Run
	if historyDeck != "" {
		text, err := readInput(cmd, []string{historyDeck})
		if err != nil {
			return err
		}
		parser := decklist.NewParser(decklist.Options{ExtendedHeaders: cfg.Pricing.ExtendedHeaders})
		sections, err := parser.ParseText(text)
		if err != nil {
			return err
		}
		runs, err = store.ByFingerprint(cmd.Context(), storage.Fingerprint(sections), historyLimit)
		if err != nil {
			return err
		}
	} else {
		runs, err = store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No runs recorded yet."))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), historyTable(runs))
	return nil
}

func historyTable(runs []storage.Run) *table.Table {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.CreatedAt.Format(time.DateTime),
			run.Fingerprint[:min(8, len(run.Fingerprint))],
			string(run.Mode),
			price(run.Commander, run.Currency),
			price(run.Deck, run.Currency),
			price(run.Sideboard, run.Currency),
			price(run.GrandTotal, run.Currency),
			legality(run.Legal),
			fmt.Sprintf("%d", run.Cards),
			fmt.Sprintf("%d", run.NotFound),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("When", "List", "Mode", "Commander", "Deck", "Sideboard", "Total", "Budget", "Cards", "Missing").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func price(amount decimal.Decimal, currency string) string {
	return report.FormatPrice(amount, currency)
}

func legality(legal *bool) string {
	switch {
	case legal == nil:
		return "-"
	case *legal:
		return "ok"
	default:
		return "over"
	}
}
