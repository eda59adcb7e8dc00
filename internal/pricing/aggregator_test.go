package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
)

// countingPacer records waits without sleeping.
type countingPacer struct {
	waits int
	err   error
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return p.err
}

// stubLookup prices names from a fixed table and counts calls per name.
type stubLookup struct {
	prices map[string]string
	calls  map[string]int
}

func newStubLookup(prices map[string]string) *stubLookup {
	return &stubLookup{prices: prices, calls: make(map[string]int)}
}

func (s *stubLookup) Lookup(_ context.Context, name string) (PricedCard, bool) {
	s.calls[name]++
	price, ok := s.prices[name]
	if !ok {
		return PricedCard{}, false
	}
	return PricedCard{
		Name:            name,
		Set:             "TST",
		CollectorNumber: "1",
		UnitPrice:       decimal.RequireFromString(price),
	}, true
}

func newTestAggregator(lookup Lookup, pacer Pacer) *Aggregator {
	opts := DefaultOptions()
	opts.Pacer = pacer
	return NewAggregator(lookup, opts)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregator_ExampleDeck(t *testing.T) {
	sections := decklist.Parse([]string{
		"Commander",
		"1 Atraxa, Grand Unifier",
		"Deck",
		"1 Sol Ring",
		"1 Sol Ring",
		"99 Island",
	})
	lookup := newStubLookup(map[string]string{
		"Atraxa, Grand Unifier": "5.00",
		"Sol Ring":              "2.00",
		"Island":                "0.10",
	})

	report, err := newTestAggregator(lookup, &countingPacer{}).Run(context.Background(), sections)
	require.NoError(t, err)

	assert.True(t, report.Totals[decklist.Commander].Equal(dec("5.00")), "commander total = %s", report.Totals[decklist.Commander])
	assert.True(t, report.Totals[decklist.Deck].Equal(dec("11.90")), "deck total = %s", report.Totals[decklist.Deck])
	assert.True(t, report.Summary.GrandTotal.Equal(dec("16.90")), "grand total = %s", report.Summary.GrandTotal)
	assert.True(t, report.Summary.DeckWithCommander.Equal(dec("16.90")))
	assert.True(t, report.Summary.Legal)

	assert.Len(t, report.Section(decklist.Deck), 2, "second Sol Ring must be dropped")
	assert.Equal(t, 1, lookup.calls["Sol Ring"])
}

func TestAggregator_SectionSumsMatchTotals(t *testing.T) {
	sections := decklist.Parse([]string{
		"Commander", "1 Krenko, Mob Boss",
		"Deck", "1 Goblin Bombardment", "3 Mountain", "1 Skirk Prospector", "2 Mountain",
		"Sideboard", "1 Pyroblast", "1 Goblin Bombardment",
	})
	lookup := newStubLookup(map[string]string{
		"Krenko, Mob Boss":   "1.23",
		"Goblin Bombardment": "4.56",
		"Mountain":           "0.07",
		"Skirk Prospector":   "0.19",
		"Pyroblast":          "3.33",
	})

	report, err := newTestAggregator(lookup, &countingPacer{}).Run(context.Background(), sections)
	require.NoError(t, err)

	for _, section := range decklist.Order {
		sum := decimal.Zero
		for _, item := range report.Section(section) {
			assert.True(t, item.Subtotal.Equal(item.Card.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
			sum = sum.Add(item.Subtotal)
		}
		assert.True(t, sum.Equal(report.Totals[section]), "%s: items sum %s, total %s", section, sum, report.Totals[section])
	}

	s := report.Summary
	assert.True(t, s.GrandTotal.Equal(s.CommanderOnly.Add(s.DeckWithoutCommander).Add(report.Totals[decklist.Sideboard])))
}

func TestAggregator_DuplicateHandling(t *testing.T) {
	sections := decklist.Sections{
		decklist.Commander: {decklist.NewEntry("1 Krenko, Mob Boss")},
		decklist.Deck: {
			decklist.NewEntry("1 Krenko, Mob Boss"),
			decklist.NewEntry("1 Goblin Bombardment"),
		},
		decklist.Sideboard: {
			decklist.NewEntry("1 Goblin Bombardment"),
			decklist.NewEntry("1 Goblin Bombardment"),
		},
	}
	lookup := newStubLookup(map[string]string{
		"Krenko, Mob Boss":   "1.00",
		"Goblin Bombardment": "4.00",
	})
	pacer := &countingPacer{}

	report, err := newTestAggregator(lookup, pacer).Run(context.Background(), sections)
	require.NoError(t, err)

	assert.Len(t, report.Section(decklist.Commander), 1)
	assert.Len(t, report.Section(decklist.Deck), 1, "commander repeated in deck is dropped")
	assert.Len(t, report.Section(decklist.Sideboard), 2, "sideboard repeats are always counted")
	assert.True(t, report.Totals[decklist.Sideboard].Equal(dec("8.00")))

	// One lookup per surviving (section, name): commander, deck, sideboard.
	assert.Equal(t, 1, lookup.calls["Krenko, Mob Boss"])
	assert.Equal(t, 2, lookup.calls["Goblin Bombardment"])
	assert.Equal(t, 3, pacer.waits)
}

func TestAggregator_BasicLandsAreSummed(t *testing.T) {
	sections := decklist.Parse([]string{"Commander", "1 Talrand, Sky Summoner", "Deck", "4 Island", "1 Opt", "2 Island", "3 Snow-Covered Island"})
	lookup := newStubLookup(map[string]string{
		"Talrand, Sky Summoner": "0.50",
		"Island":                "0.10",
		"Opt":                   "0.05",
		"Snow-Covered Island":   "0.20",
	})

	report, err := newTestAggregator(lookup, &countingPacer{}).Run(context.Background(), sections)
	require.NoError(t, err)

	deck := report.Section(decklist.Deck)
	require.Len(t, deck, 3)
	assert.Equal(t, "Island", deck[0].Name)
	assert.Equal(t, 6, deck[0].Quantity)
	assert.True(t, deck[0].Subtotal.Equal(dec("0.60")))
	assert.Equal(t, "Snow-Covered Island", deck[2].Name)
	assert.Equal(t, 1, lookup.calls["Island"])
	assert.True(t, report.Totals[decklist.Deck].Equal(dec("1.25")))
}

func TestAggregator_CustomBasicLands(t *testing.T) {
	sections := decklist.Sections{
		decklist.Deck: {decklist.NewEntry("1 Relentless Rats"), decklist.NewEntry("1 Relentless Rats")},
	}
	lookup := newStubLookup(map[string]string{"Relentless Rats": "0.25"})

	agg := NewAggregator(lookup, Options{
		BasicLands: []string{"Relentless Rats"},
		Pacer:      &countingPacer{},
	})
	report, err := agg.Run(context.Background(), sections)
	require.NoError(t, err)

	items := report.Section(decklist.Deck)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.False(t, agg.IsBasicLand("Island"))
}

func TestAggregator_NotFoundContinues(t *testing.T) {
	sections := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "1 Misspeled Card", "1 Sol Ring"})
	lookup := newStubLookup(map[string]string{
		"Atraxa, Grand Unifier": "5.00",
		"Sol Ring":              "2.00",
	})

	var seen []LineItem
	opts := DefaultOptions()
	opts.Pacer = &countingPacer{}
	opts.OnItem = func(item LineItem) { seen = append(seen, item) }

	report, err := NewAggregator(lookup, opts).Run(context.Background(), sections)
	require.NoError(t, err)

	missing := report.NotFound()
	require.Len(t, missing, 1)
	assert.Equal(t, "Misspeled Card", missing[0].Name)
	assert.True(t, missing[0].Subtotal.IsZero())
	assert.True(t, report.Totals[decklist.Deck].Equal(dec("2.00")))
	assert.Len(t, seen, 3, "observer sees every item including failures")
}

func TestAggregator_Legality(t *testing.T) {
	sections := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "1 Mana Crypt", "Sideboard", "1 The One Ring"})
	lookup := newStubLookup(map[string]string{
		"Atraxa, Grand Unifier": "20.00",
		"Mana Crypt":            "80.00",
		"The One Ring":          "50.00",
	})

	report, err := newTestAggregator(lookup, &countingPacer{}).Run(context.Background(), sections)
	require.NoError(t, err)
	assert.True(t, report.Summary.Legal, "100.00 is within a 100.00 threshold")

	lookup.prices["Mana Crypt"] = "80.01"
	report, err = newTestAggregator(lookup, &countingPacer{}).Run(context.Background(), sections)
	require.NoError(t, err)
	assert.False(t, report.Summary.Legal)
	assert.True(t, report.Summary.LegalityChecked)
}

func TestAggregator_PacerErrorStopsRun(t *testing.T) {
	sections := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "1 Sol Ring"})
	lookup := newStubLookup(map[string]string{"Atraxa, Grand Unifier": "5.00"})
	pacer := &countingPacer{err: context.Canceled}

	report, err := newTestAggregator(lookup, pacer).Run(context.Background(), sections)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, report)
	assert.Empty(t, report.Items)
	assert.Empty(t, lookup.calls)
}

func TestAggregator_CancelledLookupIsNotReported(t *testing.T) {
	sections := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "1 Sol Ring", "1 Arcane Signet"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The source gives up on Sol Ring because the run is cancelled meanwhile.
	lookup := LookupFunc(func(ctx context.Context, name string) (PricedCard, bool) {
		if name == "Sol Ring" {
			cancel()
			return PricedCard{}, false
		}
		return PricedCard{Name: name, Set: "TST", CollectorNumber: "1", UnitPrice: dec("5.00")}, true
	})

	var streamed []LineItem
	opts := DefaultOptions()
	opts.Pacer = &countingPacer{}
	opts.OnItem = func(item LineItem) { streamed = append(streamed, item) }

	report, err := NewAggregator(lookup, opts).Run(ctx, sections)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.Len(t, report.Items, 1)
	assert.Equal(t, "Atraxa, Grand Unifier", report.Items[0].Name)
	assert.Empty(t, report.NotFound(), "an interrupted lookup is not a missing card")
	assert.Equal(t, report.Items, streamed)
}

func TestAggregator_CountItems(t *testing.T) {
	sections := decklist.Sections{
		decklist.Commander: {decklist.NewEntry("1 Krenko, Mob Boss")},
		decklist.Deck: {
			decklist.NewEntry("1 Krenko, Mob Boss"),
			decklist.NewEntry("1 Goblin Bombardment"),
			decklist.NewEntry("1 Goblin Bombardment"),
			decklist.NewEntry("20 Mountain"),
			decklist.NewEntry("10 Mountain"),
		},
		decklist.Sideboard: {
			decklist.NewEntry("1 Goblin Bombardment"),
			decklist.NewEntry("1 Goblin Bombardment"),
		},
	}
	lookup := newStubLookup(map[string]string{"Goblin Bombardment": "4.00"})
	agg := newTestAggregator(lookup, &countingPacer{})

	assert.Equal(t, 5, agg.CountItems(sections))
	assert.Empty(t, lookup.calls, "counting does not look anything up")

	report, err := agg.Run(context.Background(), sections)
	require.NoError(t, err)
	assert.Len(t, report.Items, agg.CountItems(sections))
}

func TestNewIntervalPacer(t *testing.T) {
	pacer := NewIntervalPacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, pacer.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "3 waits with a 30ms interval")

	unpaced := NewIntervalPacer(0)
	start = time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, unpaced.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond, "disabled pacer should not block")
}

func TestAggregate_Defaults(t *testing.T) {
	sections := decklist.Parse([]string{"1 Atraxa, Grand Unifier"})
	lookup := LookupFunc(func(_ context.Context, name string) (PricedCard, bool) {
		return PricedCard{Name: name, UnitPrice: dec("150.00")}, true
	})

	report, err := Aggregate(context.Background(), sections, lookup)
	require.NoError(t, err)
	assert.True(t, report.Summary.Threshold.Equal(DefaultThreshold))
	assert.False(t, report.Summary.Legal)
}
