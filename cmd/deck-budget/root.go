package main

import (
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-budget/internal/config"
	"github.com/ramonehamilton/deck-budget/internal/version"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#93C5FD"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

var (
	// cfgFile overrides the default config location.
	cfgFile string
	debug   bool

	// Set by loadConfig before any subcommand runs.
	cfg    *config.Config
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:   "deck-budget",
		Short: "Price Commander deck lists against Scryfall",
		Long: titleStyle.Render("deck-budget") + mutedStyle.Render(" - Commander deck pricing") + `

Parses a deck list exported from Moxfield, Archidekt or MTG Arena, looks up
the cheapest printing of every card on Scryfall and reports the cost of the
commander, the deck and the sideboard.

` + mutedStyle.Render("Examples:") + `
  deck-budget price deck.txt              Price a deck list file
  pbpaste | deck-budget price -           Price a list from stdin
  deck-budget price deck.txt --format json
  deck-budget watch deck.txt              Re-price on every save
  deck-budget history                     Show recent runs`,
		Version:           version.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.deck-budget/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if debug || cfg.App.DebugMode {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: level == log.DebugLevel,
		TimeFormat:      time.TimeOnly,
	})
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("deck-budget " + version.String())
	},
}
