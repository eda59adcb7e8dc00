// Package budget wires the deck list parser, the pricing aggregator, the
// price source and the run history into the operations the front ends use.
package budget

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/storage"
)

// Recorder stores completed runs.
type Recorder interface {
	Record(ctx context.Context, run storage.Run) (int64, error)
}

// Options configures a Service.
type Options struct {
	Parser  decklist.Options
	Pricing pricing.Options

	Mode     pricing.Mode
	Currency string

	// History is optional.
	History Recorder

	Logger *log.Logger
}

// Result is a priced deck list.
type Result struct {
	Sections    decklist.Sections
	Report      *pricing.Report
	Fingerprint string
	Mode        pricing.Mode
	Currency    string
	// RunID is zero when the run was not recorded.
	RunID int64
}

// Service prices deck lists. It is safe for concurrent use; all runs share
// one pacer so concurrent callers together respect the lookup rate.
type Service struct {
	parser   *decklist.Parser
	lookup   pricing.Lookup
	options  pricing.Options
	mode     pricing.Mode
	currency string
	history  Recorder
	logger   *log.Logger
}

// New creates a service pricing through lookup.
func New(lookup pricing.Lookup, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	options := opts.Pricing
	if options.Pacer == nil {
		options.Pacer = pricing.NewIntervalPacer(pricing.DefaultMinInterval)
	}
	if options.Logger == nil {
		options.Logger = logger
	}
	options.OnItem = nil

	return &Service{
		parser:   decklist.NewParser(opts.Parser),
		lookup:   lookup,
		options:  options,
		mode:     opts.Mode,
		currency: opts.Currency,
		history:  opts.History,
		logger:   logger,
	}
}

// Parse splits text into sections without pricing it.
func (s *Service) Parse(text string) (decklist.Sections, error) {
	return s.parser.ParseText(text)
}

// CountItems returns how many line items pricing sections will produce,
// which is what a progress display should count up to.
func (s *Service) CountItems(sections decklist.Sections) int {
	return pricing.NewAggregator(s.lookup, s.options).CountItems(sections)
}

// Price parses text and prices every entry. onItem, if non-nil, receives
// each line item as soon as it is priced. When ctx is cancelled mid-run the
// partial result is returned together with the error.
func (s *Service) Price(ctx context.Context, text string, onItem func(pricing.LineItem)) (*Result, error) {
	sections, err := s.parser.ParseText(text)
	if err != nil {
		return nil, err
	}
	return s.PriceSections(ctx, sections, onItem)
}

// PriceSections prices an already parsed deck list.
func (s *Service) PriceSections(ctx context.Context, sections decklist.Sections, onItem func(pricing.LineItem)) (*Result, error) {
	options := s.options
	options.OnItem = onItem

	result := &Result{
		Sections:    sections,
		Fingerprint: storage.Fingerprint(sections),
		Mode:        s.mode,
		Currency:    s.currency,
	}

	s.logger.Debug("pricing deck list",
		"commander", sections.Cards(decklist.Commander),
		"deck", sections.Cards(decklist.Deck),
		"sideboard", sections.Cards(decklist.Sideboard))

	report, err := pricing.NewAggregator(s.lookup, options).Run(ctx, sections)
	result.Report = report
	if err != nil {
		return result, fmt.Errorf("pricing interrupted: %w", err)
	}

	if s.history != nil {
		run := storage.NewRun(sections, report, s.mode, s.currency)
		id, err := s.history.Record(ctx, run)
		if err != nil {
			s.logger.Warn("failed to record run", "err", err)
		} else {
			result.RunID = id
		}
	}

	s.logger.Debug("deck list priced",
		"grand_total", report.Summary.GrandTotal,
		"not_found", len(report.NotFound()))
	return result, nil
}
