package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/config"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/report"
)

// pricingFlags are shared by price and watch.
type pricingFlags struct {
	mode            string
	currency        string
	threshold       string
	noLegality      bool
	noCache         bool
	extendedHeaders bool
	format          string
	exportPath      string
	chartPath       string
	progress        bool
}

func (f *pricingFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", "", "price selection: cheapest-ever or market-trend")
	flags.StringVar(&f.currency, "currency", "", "price currency: eur or usd")
	flags.StringVar(&f.threshold, "threshold", "", "budget ceiling for commander plus deck")
	flags.BoolVar(&f.noLegality, "no-legality", false, "skip the budget check")
	flags.BoolVar(&f.noCache, "no-cache", false, "always query Scryfall instead of the price cache")
	flags.BoolVar(&f.extendedHeaders, "extended-headers", false, "accept card type headers (Creatures, Lands, ...)")
	flags.StringVarP(&f.format, "format", "f", "console", "output format: console or json")
	flags.StringVar(&f.exportPath, "export", "", "write an inventory import file")
	flags.StringVar(&f.chartPath, "chart", "", "write an HTML chart report")
	flags.BoolVar(&f.progress, "progress", false, "print each card to stderr as it is priced")
}

// apply overrides cfg with the flags the user set.
func (f *pricingFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Pricing.Mode = f.mode
	}
	if flags.Changed("currency") {
		cfg.Pricing.Currency = f.currency
	}
	if flags.Changed("threshold") {
		cfg.Pricing.Threshold = f.threshold
	}
	if f.noLegality {
		cfg.Pricing.CheckLegality = false
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.extendedHeaders {
		cfg.Pricing.ExtendedHeaders = true
	}
	if f.format != "console" && f.format != "json" {
		return fmt.Errorf("unknown format %q (want console or json)", f.format)
	}
	return cfg.Validate()
}

// onItem returns the progress callback, or nil when progress is off.
func (f *pricingFlags) onItem(w io.Writer, currency string) func(pricing.LineItem) {
	if !f.progress {
		return nil
	}
	return func(item pricing.LineItem) {
		fmt.Fprintln(w, mutedStyle.Render(report.FormatItem(item, currency)))
	}
}

// write renders result to stdout and the optional export and chart files.
func (f *pricingFlags) write(cmd *cobra.Command, result *budget.Result) error {
	out := cmd.OutOrStdout()
	switch f.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.NewDocument(result)); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	default:
		if err := report.WriteConsole(out, result); err != nil {
			return err
		}
	}

	if f.exportPath != "" {
		if err := writeFile(f.exportPath, func(w io.Writer) error {
			return report.WriteInventory(w, result.Report)
		}); err != nil {
			return err
		}
		logger.Info("inventory written", "path", f.exportPath)
	}

	if f.chartPath != "" {
		if err := writeFile(f.chartPath, func(w io.Writer) error {
			return report.WriteChart(w, result, report.DefaultChartConfig())
		}); err != nil {
			return err
		}
		logger.Info("chart written", "path", f.chartPath)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return write(file)
}

var priceFlags pricingFlags

var priceCmd = &cobra.Command{
	Use:   "price [file|-]",
	Short: "Price a deck list",
	Long: `Price a deck list read from a file, or from stdin when the file is "-"
or omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrice,
}

func init() {
	priceFlags.register(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	if err := priceFlags.apply(cmd, cfg); err != nil {
		return err
	}

	text, err := readInput(cmd, args)
	if err != nil {
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

	result, err := backend.Service.Price(cmd.Context(), text, priceFlags.onItem(cmd.ErrOrStderr(), cfg.Pricing.Currency))
	if err != nil {
		return err
	}
	return priceFlags.write(cmd, result)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read deck list: %w", err)
	}
	return string(data), nil
}
