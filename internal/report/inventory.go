package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

// WriteInventory writes the resolved printings of report in the
// "quantity name (SET) number" format inventory tools import, grouped under
// section headers so the output parses back into the same sections. Every
// commander gets its own header line: the parser moves on to Deck after the
// first commander, so partners would otherwise land in the deck. Cards
// without a price keep their plain "quantity name" line.
func WriteInventory(w io.Writer, report *pricing.Report) error {
	bw := bufio.NewWriter(w)

	first := true
	for _, section := range decklist.Order {
		items := report.Section(section)
		if len(items) == 0 {
			continue
		}

		if !first {
			fmt.Fprintln(bw)
		}
		first = false
		for i, item := range items {
			if i == 0 || section == decklist.Commander {
				fmt.Fprintln(bw, string(section))
			}
			fmt.Fprintln(bw, InventoryLine(item))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	return nil
}

// InventoryLine formats one line item for inventory import.
func InventoryLine(item pricing.LineItem) string {
	if !item.Found {
		return fmt.Sprintf("%d %s", item.Quantity, item.Name)
	}
	if item.Card.CollectorNumber == "" {
		return fmt.Sprintf("%d %s (%s)", item.Quantity, item.Card.Name, item.Card.Set)
	}
	return fmt.Sprintf("%d %s (%s) %s", item.Quantity, item.Card.Name, item.Card.Set, item.Card.CollectorNumber)
}
