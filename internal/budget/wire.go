package budget

import (
	"github.com/charmbracelet/log"

	"github.com/ramonehamilton/deck-budget/internal/config"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricesource"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/scryfall"
	"github.com/ramonehamilton/deck-budget/internal/storage"
)

// Backend is a Service together with the stores backing it.
type Backend struct {
	Service *Service

	// DB, Cache and History are nil when the database could not be opened.
	// Cache is also nil when price caching is disabled.
	DB      *storage.DB
	Cache   *storage.PrintingCache
	History *storage.RunStore
}

// Close releases the database.
func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// NewFromConfig builds a Service talking to Scryfall as described by cfg.
// When the database cannot be opened, the service runs without cache and
// history.
func NewFromConfig(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	// Validate has checked every value below.
	mode, _ := cfg.GetMode()
	currency, _ := cfg.GetCurrency()
	threshold, _ := cfg.GetThreshold()
	interval, _ := cfg.GetMinInterval()
	ttl, _ := cfg.GetCacheTTL()

	clientOpts := []scryfall.Option{scryfall.WithRateLimit(interval)}
	if cfg.Pricing.APIURL != "" {
		clientOpts = append(clientOpts, scryfall.WithBaseURL(cfg.Pricing.APIURL))
	}
	client := scryfall.NewClient(clientOpts...)

	sourceOpts := pricesource.Options{
		Mode:     mode,
		Currency: currency,
		CacheTTL: ttl,
		Logger:   logger,
	}

	backend := &Backend{}
	var history Recorder
	if db := openDB(cfg, logger); db != nil {
		backend.DB = db
		backend.History = storage.NewRunStore(db)
		history = backend.History
		if cfg.Cache.Enabled {
			backend.Cache = storage.NewPrintingCache(db)
			sourceOpts.Cache = backend.Cache
		}
	}

	source := pricesource.New(client, sourceOpts)

	backend.Service = New(source, Options{
		Parser: decklist.Options{ExtendedHeaders: cfg.Pricing.ExtendedHeaders},
		Pricing: pricing.Options{
			BasicLands:    cfg.Pricing.BasicLands,
			Threshold:     threshold,
			CheckLegality: cfg.Pricing.CheckLegality,
			Pacer:         pricing.NewIntervalPacer(interval),
			Logger:        logger,
		},
		Mode:     mode,
		Currency: string(currency),
		History:  history,
		Logger:   logger,
	})
	return backend, nil
}

func openDB(cfg *config.Config, logger *log.Logger) *storage.DB {
	path, err := cfg.GetCachePath()
	if err != nil {
		logger.Warn("price cache unavailable", "err", err)
		return nil
	}

	db, err := storage.Open(storage.DefaultConfig(path))
	if err != nil {
		logger.Warn("price cache unavailable", "path", path, "err", err)
		return nil
	}
	return db
}
