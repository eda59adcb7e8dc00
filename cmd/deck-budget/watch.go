package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/watch"
)

var watchFlags pricingFlags

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-price a deck list file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchFlags.register(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := watchFlags.apply(cmd, cfg); err != nil {
		return err
	}

	backend, err := budget.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close database", "err", err)
		}
	}()

	handler := func(ctx context.Context, content string) error {
		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("── "+time.Now().Format(time.TimeOnly)+" "+args[0]))

		result, err := backend.Service.Price(ctx, content, watchFlags.onItem(cmd.ErrOrStderr(), cfg.Pricing.Currency))
		if errors.Is(err, decklist.ErrEmptyDecklist) {
			fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("deck list is empty"))
			return nil
		}
		if err != nil {
			return err
		}
		return watchFlags.write(cmd, result)
	}

	opts := watch.DefaultOptions()
	opts.Logger = logger
	watcher, err := watch.New(args[0], handler, opts)
	if err != nil {
		return err
	}

	logger.Info("watching deck list", "path", watcher.Path())
	err = watcher.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
