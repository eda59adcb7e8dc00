package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
)

func totalsOf(commander, deck, sideboard string) map[decklist.Section]decimal.Decimal {
	return map[decklist.Section]decimal.Decimal{
		decklist.Commander: decimal.RequireFromString(commander),
		decklist.Deck:      decimal.RequireFromString(deck),
		decklist.Sideboard: decimal.RequireFromString(sideboard),
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		totals    map[decklist.Section]decimal.Decimal
		check     bool
		wantLegal bool
		wantGrand string
	}{
		{"under threshold", totalsOf("5", "11.89", "3"), true, true, "19.89"},
		{"exactly at threshold", totalsOf("40", "60", "0"), true, true, "100"},
		{"over threshold", totalsOf("40", "60.01", "0"), true, false, "100.01"},
		{"sideboard does not count", totalsOf("10", "80", "500"), true, true, "590"},
		{"unchecked", totalsOf("400", "400", "0"), false, false, "800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.totals, DefaultThreshold, tt.check)

			assert.Equal(t, tt.check, s.LegalityChecked)
			assert.Equal(t, tt.wantLegal, s.Legal)
			assert.True(t, s.GrandTotal.Equal(decimal.RequireFromString(tt.wantGrand)), "grand total = %s", s.GrandTotal)
			assert.True(t, s.DeckWithCommander.Equal(s.CommanderOnly.Add(s.DeckWithoutCommander)))
			assert.True(t, s.GrandTotal.Equal(s.DeckWithCommander.Add(s.Sideboard)))
		})
	}
}

func TestSummarize_MissingSections(t *testing.T) {
	s := Summarize(map[decklist.Section]decimal.Decimal{}, DefaultThreshold, true)

	assert.True(t, s.GrandTotal.IsZero())
	assert.True(t, s.Legal)
}

func TestReport_NotFound(t *testing.T) {
	r := newReport()
	r.Items = append(r.Items,
		LineItem{Section: decklist.Commander, Quantity: 1, Name: "Atraxa, Praetors' Voice", Found: true},
		LineItem{Section: decklist.Deck, Quantity: 1, Name: "Unknown Card"},
		LineItem{Section: decklist.Sideboard, Quantity: 2, Name: "Other Unknown"},
	)

	missing := r.NotFound()
	assert.Len(t, missing, 2)
	assert.Equal(t, "Unknown Card", missing[0].Name)
	assert.Len(t, r.Section(decklist.Commander), 1)
	assert.Empty(t, newReport().Section(decklist.Deck))
}
