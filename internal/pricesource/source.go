// Package pricesource implements pricing.Lookup on top of Scryfall with an
// optional persistent cache.
package pricesource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/scryfall"
)

// Currency selects which Scryfall price fields are read.
type Currency string

const (
	EUR Currency = "eur"
	USD Currency = "usd"
)

// ParseCurrency parses a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(s))) {
	case EUR, "":
		return EUR, nil
	case USD:
		return USD, nil
	default:
		return "", fmt.Errorf("unsupported currency %q (want eur or usd)", s)
	}
}

// Symbol returns the display symbol of the currency.
func (c Currency) Symbol() string {
	if c == USD {
		return "$"
	}
	return "€"
}

// Fetcher retrieves every printing of a card by exact name.
type Fetcher interface {
	SearchPrints(ctx context.Context, name string) ([]scryfall.Card, error)
}

// Resolver resolves a card name to its canonical card. Fetchers that
// implement it let lookups find double-faced cards listed by their front face.
type Resolver interface {
	GetCardByName(ctx context.Context, name string) (*scryfall.Card, error)
}

// Cache stores printings per card name and currency.
type Cache interface {
	Get(ctx context.Context, name, currency string, maxAge time.Duration) ([]pricing.Printing, bool, error)
	Put(ctx context.Context, name, currency string, printings []pricing.Printing) error
}

// Options configures a Source.
type Options struct {
	Mode     pricing.Mode
	Currency Currency

	// Cache is optional.
	Cache    Cache
	CacheTTL time.Duration

	Logger *log.Logger
}

// Source resolves card names to their cheapest priced printing.
type Source struct {
	fetcher  Fetcher
	cache    Cache
	cacheTTL time.Duration
	mode     pricing.Mode
	currency Currency
	logger   *log.Logger
}

// New creates a price source.
func New(fetcher Fetcher, opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	mode := opts.Mode
	if mode == "" {
		mode = pricing.ModeCheapestEver
	}
	currency := opts.Currency
	if currency == "" {
		currency = EUR
	}

	return &Source{
		fetcher:  fetcher,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		mode:     mode,
		currency: currency,
		logger:   logger,
	}
}

// Mode returns the price selection mode.
func (s *Source) Mode() pricing.Mode {
	return s.mode
}

// Currency returns the price currency.
func (s *Source) Currency() Currency {
	return s.currency
}

// Lookup implements pricing.Lookup. Network, status and decoding failures
// are logged and reported as "no price".
func (s *Source) Lookup(ctx context.Context, name string) (pricing.PricedCard, bool) {
	printings, err := s.Printings(ctx, name)
	if err != nil {
		s.logger.Debug("price lookup failed", "card", name, "err", err)
		return pricing.PricedCard{}, false
	}
	return pricing.SelectCheapest(printings, s.mode)
}

// Printings returns all known printings of name, from the cache when fresh.
func (s *Source) Printings(ctx context.Context, name string) ([]pricing.Printing, error) {
	if s.cache != nil {
		printings, ok, err := s.cache.Get(ctx, name, string(s.currency), s.cacheTTL)
		if err != nil {
			s.logger.Warn("price cache read failed", "card", name, "err", err)
		} else if ok {
			s.logger.Debug("price cache hit", "card", name, "printings", len(printings))
			return printings, nil
		}
	}

	cards, err := s.fetcher.SearchPrints(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		if cards, err = s.resolve(ctx, name); err != nil {
			return nil, err
		}
	}

	printings := make([]pricing.Printing, 0, len(cards))
	for _, card := range cards {
		printings = append(printings, ToPrinting(card, s.currency))
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, name, string(s.currency), printings); err != nil {
			s.logger.Warn("price cache write failed", "card", name, "err", err)
		}
	}
	return printings, nil
}

// resolve looks name up as a face name and returns the printings of the
// card it belongs to.
func (s *Source) resolve(ctx context.Context, name string) ([]scryfall.Card, error) {
	resolver, ok := s.fetcher.(Resolver)
	if !ok {
		return nil, nil
	}

	card, err := resolver.GetCardByName(ctx, name)
	if scryfall.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if card.Name == name {
		return []scryfall.Card{*card}, nil
	}

	s.logger.Debug("resolved card name", "card", name, "resolved", card.Name)
	cards, err := s.fetcher.SearchPrints(ctx, card.Name)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		cards = []scryfall.Card{*card}
	}
	return cards, nil
}

// ToPrinting maps a Scryfall card to a printing priced in currency.
//
// For EUR the low price is the lowest Cardmarket listing when the source
// provides it and both market and trend read the Cardmarket trend price.
// USD only has a single market price.
func ToPrinting(card scryfall.Card, currency Currency) pricing.Printing {
	p := pricing.Printing{
		Name:            card.Name,
		Set:             strings.ToUpper(card.SetCode),
		CollectorNumber: card.CollectorNumber,
	}

	switch currency {
	case USD:
		p.Market = parsePrice(card.Prices.USD)
		p.Trend = parsePrice(card.Prices.USD)
	default:
		p.Low = parsePrice(card.Prices.EURLow)
		p.Market = parsePrice(card.Prices.EUR)
		p.Trend = parsePrice(card.Prices.EUR)
	}
	return p
}

func parsePrice(s *string) decimal.NullDecimal {
	if s == nil || *s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
