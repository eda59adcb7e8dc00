// Command apiserver serves deck list pricing over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ramonehamilton/deck-budget/internal/api"
	"github.com/ramonehamilton/deck-budget/internal/api/handlers"
	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/config"
)

var (
	port       = flag.Int("port", 0, "API server port (default: server.port from the config)")
	configPath = flag.String("config", "", "config file (default: ~/.deck-budget/config.toml)")
	debug      = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "apiserver",
	})

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if *debug || cfg.App.DebugMode {
		logger.SetLevel(log.DebugLevel)
	}
	if *port != 0 {
		cfg.Server.Port = *port
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

	var history handlers.HistoryReader
	if backend.History != nil {
		history = backend.History
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Port = cfg.Server.Port
	apiConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	server := api.NewServer(apiConfig, backend.Service, history, logger)

	if err := server.Start(); err != nil {
		logger.Fatal("failed to start API server", "err", err)
	}
	logger.Infof("API server running at http://localhost:%d", server.Port())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "err", err)
	}
	logger.Info("API server stopped")
}
