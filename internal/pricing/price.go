// Package pricing resolves parsed deck lists to prices and accumulates
// per-section totals.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects which price field of a printing counts.
type Mode string

const (
	// ModeCheapestEver takes the lowest of the low and market prices across
	// all printings.
	ModeCheapestEver Mode = "cheapest-ever"
	// ModeMarketTrend takes the lowest trend price across all printings.
	ModeMarketTrend Mode = "market-trend"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCheapestEver, "":
		return ModeCheapestEver, nil
	case ModeMarketTrend:
		return ModeMarketTrend, nil
	default:
		return "", fmt.Errorf("unknown price mode %q (want %s or %s)", s, ModeCheapestEver, ModeMarketTrend)
	}
}

// Printing is one released version of a card with the prices the source
// knows for it. Any price may be missing.
type Printing struct {
	Name            string              `json:"name"`
	Set             string              `json:"set"`
	CollectorNumber string              `json:"collector_number"`
	Low             decimal.NullDecimal `json:"low"`
	Market          decimal.NullDecimal `json:"market"`
	Trend           decimal.NullDecimal `json:"trend"`
}

// PricedCard is the printing chosen for a card name and its unit price.
type PricedCard struct {
	Name            string          `json:"name"`
	Set             string          `json:"set"`
	CollectorNumber string          `json:"collector_number"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// Lookup resolves a card name to its cheapest priced printing. It reports
// false when no printing carries a usable price or the source is
// unavailable; it never fails.
type Lookup interface {
	Lookup(ctx context.Context, name string) (PricedCard, bool)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, name string) (PricedCard, bool)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, name string) (PricedCard, bool) {
	return f(ctx, name)
}

// SelectCheapest picks the cheapest printing under the given mode. The first
// printing wins ties.
func SelectCheapest(printings []Printing, mode Mode) (PricedCard, bool) {
	var best PricedCard
	found := false

	for _, p := range printings {
		price, ok := candidatePrice(p, mode)
		if !ok {
			continue
		}
		if !found || price.LessThan(best.UnitPrice) {
			best = PricedCard{
				Name:            p.Name,
				Set:             p.Set,
				CollectorNumber: p.CollectorNumber,
				UnitPrice:       price,
			}
			found = true
		}
	}

	return best, found
}

// candidatePrice returns the price of a single printing under mode.
func candidatePrice(p Printing, mode Mode) (decimal.Decimal, bool) {
	var fields []decimal.NullDecimal
	switch mode {
	case ModeMarketTrend:
		fields = []decimal.NullDecimal{p.Trend}
	default:
		fields = []decimal.NullDecimal{p.Low, p.Market}
	}

	var price decimal.Decimal
	found := false
	for _, f := range fields {
		if !f.Valid || f.Decimal.IsNegative() {
			continue
		}
		if !found || f.Decimal.LessThan(price) {
			price = f.Decimal
			found = true
		}
	}
	return price, found
}
