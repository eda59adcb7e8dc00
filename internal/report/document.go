// Package report renders priced deck lists for people and other tools.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

// FormatPrice formats an amount with two decimals and the currency symbol.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if strings.EqualFold(currency, "usd") {
		return "$" + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " €"
}

// Document is the JSON representation of a priced deck list.
type Document struct {
	Mode        string            `json:"mode"`
	Currency    string            `json:"currency"`
	Fingerprint string            `json:"fingerprint"`
	RunID       int64             `json:"run_id,omitempty"`
	Sections    []SectionDocument `json:"sections"`
	Summary     SummaryDocument   `json:"summary"`
	NotFound    []string          `json:"not_found"`
}

// SectionDocument lists the items of one section.
type SectionDocument struct {
	Name  string         `json:"name"`
	Items []ItemDocument `json:"items"`
	Total string         `json:"total"`
}

// ItemDocument is one priced line.
type ItemDocument struct {
	Quantity        int    `json:"quantity"`
	Name            string `json:"name"`
	Found           bool   `json:"found"`
	ResolvedName    string `json:"resolved_name,omitempty"`
	Set             string `json:"set,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`
	UnitPrice       string `json:"unit_price,omitempty"`
	Subtotal        string `json:"subtotal"`
}

// SummaryDocument holds the derived totals. Amounts are decimal strings with
// two fractional digits.
type SummaryDocument struct {
	CommanderOnly        string `json:"commander_only"`
	DeckWithoutCommander string `json:"deck_without_commander"`
	DeckWithCommander    string `json:"deck_with_commander"`
	Sideboard            string `json:"sideboard"`
	GrandTotal           string `json:"grand_total"`
	Threshold            string `json:"threshold,omitempty"`
	// Legal is omitted when the budget check is disabled.
	Legal *bool `json:"legal,omitempty"`
}

// NewDocument converts a result to its JSON representation.
func NewDocument(result *budget.Result) Document {
	report := result.Report
	doc := Document{
		Mode:        string(result.Mode),
		Currency:    result.Currency,
		Fingerprint: result.Fingerprint,
		RunID:       result.RunID,
		Sections:    make([]SectionDocument, 0, len(decklist.Order)),
		Summary:     NewSummaryDocument(report.Summary),
		NotFound:    make([]string, 0),
	}

	for _, section := range decklist.Order {
		sd := SectionDocument{
			Name:  string(section),
			Items: make([]ItemDocument, 0),
			Total: report.Totals[section].StringFixed(2),
		}
		for _, item := range report.Section(section) {
			sd.Items = append(sd.Items, NewItemDocument(item))
		}
		doc.Sections = append(doc.Sections, sd)
	}

	for _, item := range report.NotFound() {
		doc.NotFound = append(doc.NotFound, item.Name)
	}
	return doc
}

// NewItemDocument converts one line item.
func NewItemDocument(item pricing.LineItem) ItemDocument {
	doc := ItemDocument{
		Quantity: item.Quantity,
		Name:     item.Name,
		Found:    item.Found,
		Subtotal: item.Subtotal.StringFixed(2),
	}
	if item.Found {
		doc.ResolvedName = item.Card.Name
		doc.Set = item.Card.Set
		doc.CollectorNumber = item.Card.CollectorNumber
		doc.UnitPrice = item.Card.UnitPrice.StringFixed(2)
	}
	return doc
}

// NewSummaryDocument converts the derived totals.
func NewSummaryDocument(s pricing.Summary) SummaryDocument {
	doc := SummaryDocument{
		CommanderOnly:        s.CommanderOnly.StringFixed(2),
		DeckWithoutCommander: s.DeckWithoutCommander.StringFixed(2),
		DeckWithCommander:    s.DeckWithCommander.StringFixed(2),
		Sideboard:            s.Sideboard.StringFixed(2),
		GrandTotal:           s.GrandTotal.StringFixed(2),
	}
	if s.LegalityChecked {
		legal := s.Legal
		doc.Threshold = s.Threshold.StringFixed(2)
		doc.Legal = &legal
	}
	return doc
}

// FormatItem renders a line item on a single line, e.g. for progress output.
func FormatItem(item pricing.LineItem, currency string) string {
	if !item.Found {
		return fmt.Sprintf("%dx %s: not found", item.Quantity, item.Name)
	}
	return fmt.Sprintf("%dx %s (%s #%s): %s",
		item.Quantity, item.Card.Name, item.Card.Set, item.Card.CollectorNumber,
		FormatPrice(item.Subtotal, currency))
}
