package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
)

// LineItem is one priced (or unpriced) deck list line.
type LineItem struct {
	Section  decklist.Section `json:"section"`
	Quantity int              `json:"quantity"`
	Name     string           `json:"name"`
	Card     PricedCard       `json:"card"`
	Found    bool             `json:"found"`
	Subtotal decimal.Decimal  `json:"subtotal"`
}

// Summary holds the totals derived from the section totals.
type Summary struct {
	CommanderOnly        decimal.Decimal `json:"commander_only"`
	DeckWithoutCommander decimal.Decimal `json:"deck_without_commander"`
	DeckWithCommander    decimal.Decimal `json:"deck_with_commander"`
	Sideboard            decimal.Decimal `json:"sideboard"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	Threshold            decimal.Decimal `json:"threshold"`
	LegalityChecked      bool            `json:"legality_checked"`
	Legal                bool            `json:"legal"`
}

// Report is the result of pricing a deck list.
type Report struct {
	Items   []LineItem                          `json:"items"`
	Totals  map[decklist.Section]decimal.Decimal `json:"totals"`
	Summary Summary                             `json:"summary"`
}

func newReport() *Report {
	totals := make(map[decklist.Section]decimal.Decimal, len(decklist.Order))
	for _, section := range decklist.Order {
		totals[section] = decimal.Zero
	}
	return &Report{
		Items:  make([]LineItem, 0),
		Totals: totals,
	}
}

// Section returns the line items of a section in input order.
func (r *Report) Section(section decklist.Section) []LineItem {
	items := make([]LineItem, 0)
	for _, item := range r.Items {
		if item.Section == section {
			items = append(items, item)
		}
	}
	return items
}

// NotFound returns the line items no price was found for.
func (r *Report) NotFound() []LineItem {
	items := make([]LineItem, 0)
	for _, item := range r.Items {
		if !item.Found {
			items = append(items, item)
		}
	}
	return items
}

// Summarize computes the derived totals.
func Summarize(totals map[decklist.Section]decimal.Decimal, threshold decimal.Decimal, checkLegality bool) Summary {
	commander := totals[decklist.Commander]
	deck := totals[decklist.Deck]
	sideboard := totals[decklist.Sideboard]
	withCommander := commander.Add(deck)

	s := Summary{
		CommanderOnly:        commander,
		DeckWithoutCommander: deck,
		DeckWithCommander:    withCommander,
		Sideboard:            sideboard,
		GrandTotal:           withCommander.Add(sideboard),
		Threshold:            threshold,
		LegalityChecked:      checkLegality,
	}
	if checkLegality {
		s.Legal = withCommander.LessThanOrEqual(threshold)
	}
	return s
}
