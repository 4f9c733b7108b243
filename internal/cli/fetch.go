package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/rota-merge/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagSources []string
	flagFormat  string
	flagSort    string
	flagVerbose bool
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch, merge and print the rota once",
		Long: `Run one aggregation over the configured sources and print the merged rota.

Exit codes:
  0 - rota printed
  1 - configuration or output error
  2 - no source returned any rows`,
		RunE: runFetch,
	}

	cmd.Flags().StringSliceVar(&flagSources, "source", nil, "Source URL (repeatable; overrides config)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", "source", "Sort order: source or status")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Show sources and per-status totals")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	order := SortOrder(strings.ToLower(flagSort))
	if order != SortBySource && order != SortByStatus {
		return fmt.Errorf("invalid sort: %s (must be 'source' or 'status')", flagSort)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(flagSources) > 0 {
		cfg.Sources = flagSources
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --source: %w", err)
		}
	}

	return fetchAndWrite(cmd, cfg, format, order)
}

func fetchAndWrite(cmd *cobra.Command, cfg *config.Config, format OutputFormat, order SortOrder) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := newAggregator(cfg).Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("aggregating rota: %w", err)
	}

	sortRecords(records, order)

	result := NewOutputResult(time.Now().UTC(), cfg.Sources, records)
	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
