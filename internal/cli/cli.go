package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/pfrederiksen/rota-merge/internal/config"
	"github.com/pfrederiksen/rota-merge/internal/logger"
	"github.com/pfrederiksen/rota-merge/internal/rota"
	"github.com/pfrederiksen/rota-merge/internal/scraper"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitNoData  = 2
)

// Version information, set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var flagConfig string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rota-merge",
		Short: "Merge published clinic rotas into one feed",
		Long: `rota-merge scrapes the rota tables published at a fixed list of URLs,
merges them, drops duplicate shifts and classifies each shift as
Running, In Progress or Recruiting from its confirmed volunteers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to YAML config file (optional)")

	cmd.AddCommand(newServeCmd(), newFetchCmd(), newValidateCmd(), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rota-merge %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", Commit)
			fmt.Fprintf(out, "  built:  %s\n", Date)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without fetching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Config is valid!")
			fmt.Fprintf(out, "  Port:     %d\n", cfg.Port)
			fmt.Fprintf(out, "  Timeout:  %s\n", cfg.Timeout.Duration())
			fmt.Fprintf(out, "  Selector: %s\n", cfg.TableSelector)
			fmt.Fprintf(out, "  Sources:  %d\n", len(cfg.Sources))
			for _, src := range cfg.Sources {
				fmt.Fprintf(out, "    - %s\n", src)
			}
			return nil
		},
	}
}

// loadConfig loads configuration and applies its log level to the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	configureLogger(cfg)
	return cfg, nil
}

func configureLogger(cfg *config.Config) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logger.LevelInfo
	}
	logger.SetDefault(logger.New(level, os.Stderr))
}

// newAggregator builds the fetch pipeline described by cfg.
func newAggregator(cfg *config.Config) *rota.Aggregator {
	fetcher := scraper.New(
		scraper.WithTimeout(cfg.Timeout.Duration()),
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithExtractor(scraper.NewExtractor(cfg.TableSelector)),
	)
	return rota.NewAggregator(fetcher, cfg.Sources)
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, rota.ErrNoDataAvailable) {
			os.Exit(ExitNoData)
		}
		os.Exit(ExitError)
	}
}
