package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-budget/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the price cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show price cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, path, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		stats, err := storage.NewPrintingCache(db).Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Price cache"))
		fmt.Fprintf(out, "  Path:      %s\n", path)
		fmt.Fprintf(out, "  Lookups:   %d\n", stats.Cards)
		fmt.Fprintf(out, "  Printings: %d\n", stats.Printings)
		if stats.Cards > 0 {
			fmt.Fprintf(out, "  Oldest:    %s\n", stats.Oldest.Format(time.DateTime))
			fmt.Fprintf(out, "  Newest:    %s\n", stats.Newest.Format(time.DateTime))
		}
		fmt.Fprintf(out, "  TTL:       %s\n", cfg.Cache.TTL)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		removed, err := storage.NewPrintingCache(db).Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Removed %d cached lookup(s)", removed)))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// openStore opens the database named by the configuration.
func openStore() (*storage.DB, string, error) {
	path, err := cfg.GetCachePath()
	if err != nil {
		return nil, "", err
	}
	db, err := storage.Open(storage.DefaultConfig(path))
	if err != nil {
		return nil, "", err
	}
	return db, path, nil
}
