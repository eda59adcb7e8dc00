package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/report"
)

// ItemText returns the title, detail and price column of a line item.
func ItemText(item pricing.LineItem, currency string) (title, detail, price string) {
	if !item.Found {
		return fmt.Sprintf("✗ %s not found", item.Name), string(item.Section), ""
	}
	title = fmt.Sprintf("%dx %s", item.Quantity, item.Card.Name)
	detail = fmt.Sprintf("%s · %s #%s", item.Section, item.Card.Set, item.Card.CollectorNumber)
	return title, detail, report.FormatPrice(item.Subtotal, currency)
}

func itemWidget(item pricing.LineItem, currency string) fyne.CanvasObject {
	title, detail, price := ItemText(item, currency)
	if !item.Found {
		label := widget.NewLabel(title)
		label.Importance = widget.DangerImportance
		return label
	}
	return container.NewBorder(nil, nil, nil,
		widget.NewLabelWithStyle(price, fyne.TextAlignTrailing, fyne.TextStyle{Bold: true}),
		container.NewVBox(
			widget.NewLabel(title),
			widget.NewLabelWithStyle(detail, fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
		),
	)
}

// SummaryText renders the cost summary card.
func SummaryText(s pricing.Summary, currency string) string {
	lines := []string{
		"Commander only: " + report.FormatPrice(s.CommanderOnly, currency),
		"Deck without commander: " + report.FormatPrice(s.DeckWithoutCommander, currency),
		"Full deck: " + report.FormatPrice(s.DeckWithCommander, currency),
		"Sideboard: " + report.FormatPrice(s.Sideboard, currency),
	}
	if s.LegalityChecked {
		if s.Legal {
			lines = append(lines, "Within the "+report.FormatPrice(s.Threshold, currency)+" budget")
		} else {
			lines = append(lines, "Over the "+report.FormatPrice(s.Threshold, currency)+" budget")
		}
	}
	return strings.Join(lines, "\n")
}
