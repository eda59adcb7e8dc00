// Command deck-budget-gui is the desktop front end of deck-budget.
package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/config"
	"github.com/ramonehamilton/deck-budget/internal/gui"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "deck-budget-gui"})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if cfg.App.DebugMode {
		logger.SetLevel(log.DebugLevel)
	}

	backend, err := budget.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up pricing", "err", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close database", "err", err)
		}
	}()

	gui.NewApp(backend.Service, cfg.Pricing.Currency).Run()
}
