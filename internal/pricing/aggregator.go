package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
)

// DefaultMinInterval is the minimum pause between two lookups so the
// pricing API's rate limit is respected.
const DefaultMinInterval = 100 * time.Millisecond

// DefaultThreshold is the budget limit for deck plus commander.
var DefaultThreshold = decimal.NewFromInt(100)

// DefaultBasicLands are exempt from duplicate collapsing.
var DefaultBasicLands = []string{
	"Plains",
	"Island",
	"Swamp",
	"Mountain",
	"Forest",
	"Wastes",
	"Snow-Covered Plains",
	"Snow-Covered Island",
	"Snow-Covered Swamp",
	"Snow-Covered Mountain",
	"Snow-Covered Forest",
	"Snow-Covered Wastes",
}

// Pacer blocks until the next lookup may start. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewIntervalPacer returns a pacer allowing one lookup per interval.
// A non-positive interval disables pacing.
func NewIntervalPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Options configures an Aggregator.
type Options struct {
	// BasicLands overrides DefaultBasicLands when non-nil.
	BasicLands []string

	// Threshold is the legal budget for commander plus deck.
	Threshold decimal.Decimal

	// CheckLegality enables the budget check in the summary.
	CheckLegality bool

	// Pacer throttles lookups. Nil uses DefaultMinInterval.
	Pacer Pacer

	// OnItem is called for each line item as soon as it is priced.
	OnItem func(LineItem)

	Logger *log.Logger
}

// DefaultOptions returns the options used by Aggregate.
func DefaultOptions() Options {
	return Options{
		Threshold:     DefaultThreshold,
		CheckLegality: true,
	}
}

// Seen holds the non-basic card names already counted in a run.
type Seen map[string]struct{}

// Has reports whether name was counted.
func (s Seen) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add marks name as counted.
func (s Seen) Add(name string) {
	s[name] = struct{}{}
}

// Aggregator prices deck list sections through a Lookup.
type Aggregator struct {
	lookup        Lookup
	basics        map[string]bool
	threshold     decimal.Decimal
	checkLegality bool
	pacer         Pacer
	onItem        func(LineItem)
	logger        *log.Logger
}

// NewAggregator creates an aggregator using lookup as price source.
func NewAggregator(lookup Lookup, options Options) *Aggregator {
	lands := options.BasicLands
	if lands == nil {
		lands = DefaultBasicLands
	}
	basics := make(map[string]bool, len(lands))
	for _, name := range lands {
		basics[name] = true
	}

	pacer := options.Pacer
	if pacer == nil {
		pacer = NewIntervalPacer(DefaultMinInterval)
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Aggregator{
		lookup:        lookup,
		basics:        basics,
		threshold:     options.Threshold,
		checkLegality: options.CheckLegality,
		pacer:         pacer,
		onItem:        options.OnItem,
		logger:        logger,
	}
}

// Aggregate prices sections with the default options.
func Aggregate(ctx context.Context, sections decklist.Sections, lookup Lookup) (*Report, error) {
	return NewAggregator(lookup, DefaultOptions()).Run(ctx, sections)
}

// IsBasicLand reports whether name is treated as a basic land.
func (a *Aggregator) IsBasicLand(name string) bool {
	return a.basics[name]
}

type lookupKey struct {
	section decklist.Section
	name    string
}

type lookupResult struct {
	card  PricedCard
	found bool
}

// Run prices every section in order. Lookup failures never stop the run;
// only a cancelled context does, in which case the partial report is
// returned along with the error.
func (a *Aggregator) Run(ctx context.Context, sections decklist.Sections) (*Report, error) {
	report := newReport()
	seen := make(Seen)
	memo := make(map[lookupKey]lookupResult)

	for _, section := range decklist.Order {
		if err := a.runSection(ctx, section, sections[section], seen, memo, report); err != nil {
			report.Summary = Summarize(report.Totals, a.threshold, a.checkLegality)
			return report, err
		}
	}

	report.Summary = Summarize(report.Totals, a.threshold, a.checkLegality)
	return report, nil
}

func (a *Aggregator) runSection(
	ctx context.Context,
	section decklist.Section,
	entries []decklist.Entry,
	seen Seen,
	memo map[lookupKey]lookupResult,
	report *Report,
) error {
	for _, entry := range a.plan(section, entries, seen) {
		key := lookupKey{section: section, name: entry.Name}
		result, ok := memo[key]
		if !ok {
			if err := a.pacer.Wait(ctx); err != nil {
				return fmt.Errorf("wait for lookup of %q: %w", entry.Name, err)
			}
			result.card, result.found = a.lookup.Lookup(ctx, entry.Name)
			// A lookup cut short by cancellation says nothing about the card.
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("lookup of %q: %w", entry.Name, err)
			}
			memo[key] = result
		}

		item := LineItem{
			Section:  section,
			Quantity: entry.Quantity,
			Name:     entry.Name,
			Found:    result.found,
			Subtotal: decimal.Zero,
		}
		if result.found {
			item.Card = result.card
			item.Subtotal = result.card.UnitPrice.Mul(decimal.NewFromInt(int64(entry.Quantity)))
			report.Totals[section] = report.Totals[section].Add(item.Subtotal)
		} else {
			a.logger.Debug("no price found", "section", section, "card", entry.Name)
		}

		report.Items = append(report.Items, item)
		if a.onItem != nil {
			a.onItem(item)
		}
	}
	return nil
}

// plan returns the entries of a section that become line items: basic
// lands merged, and cards already seen in an earlier line dropped outside
// the sideboard.
func (a *Aggregator) plan(section decklist.Section, entries []decklist.Entry, seen Seen) []decklist.Entry {
	planned := make([]decklist.Entry, 0, len(entries))
	for _, entry := range a.mergeBasicLands(entries) {
		if !a.IsBasicLand(entry.Name) {
			if section != decklist.Sideboard && seen.Has(entry.Name) {
				a.logger.Debug("skipping duplicate", "section", section, "card", entry.Name)
				continue
			}
			seen.Add(entry.Name)
		}
		planned = append(planned, entry)
	}
	return planned
}

// CountItems returns how many line items Run will produce for sections.
func (a *Aggregator) CountItems(sections decklist.Sections) int {
	seen := make(Seen)
	n := 0
	for _, section := range decklist.Order {
		n += len(a.plan(section, sections[section], seen))
	}
	return n
}

// mergeBasicLands folds repeated basic land lines of a section into the
// first occurrence, summing quantities.
func (a *Aggregator) mergeBasicLands(entries []decklist.Entry) []decklist.Entry {
	merged := make([]decklist.Entry, 0, len(entries))
	index := make(map[string]int)

	for _, e := range entries {
		if a.IsBasicLand(e.Name) {
			if i, ok := index[e.Name]; ok {
				merged[i].Quantity += e.Quantity
				continue
			}
			index[e.Name] = len(merged)
		}
		merged = append(merged, e)
	}
	return merged
}
