package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/rota-merge/internal/config"
	"github.com/pfrederiksen/rota-merge/internal/logger"
	"github.com/pfrederiksen/rota-merge/internal/server"
	"github.com/pfrederiksen/rota-merge/web"
	"github.com/spf13/cobra"
)

var (
	flagPort  int
	flagWatch bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the rota API server",
		Long: `Start the HTTP API and frontend.

The server runs until interrupted (Ctrl+C) or it receives SIGTERM.
With --watch, edits to the config file swap the source list without a restart.

Example:
  rota-merge serve
  rota-merge serve -c rota.yaml --port 9090 --watch`,
		RunE: runServe,
	}

	cmd.Flags().IntVar(&flagPort, "port", 0, "Port to listen on (overrides config and PORT)")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "Reload sources when the config file changes")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}

	assets, err := staticAssets(cfg.StaticDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(newAggregator(cfg), cfg.Port, assets)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	logger.Info("Rota merge API started", logger.Fields{
		"port":    cfg.Port,
		"sources": cfg.Sources,
		"timeout": cfg.Timeout.Duration().String(),
	})

	if flagWatch {
		if flagConfig == "" {
			logger.Warn("--watch has no effect without --config", nil)
		} else {
			go func() {
				err := config.Watch(ctx, flagConfig, func(next *config.Config) {
					srv.SetAggregator(newAggregator(next))
				})
				if err != nil {
					logger.Error("Config watch stopped", logger.Fields{"path": flagConfig}, err)
				}
			}()
		}
	}

	<-srv.Done()
	logger.Info("Shutdown complete", nil)
	return nil
}

// staticAssets returns the directory holding rota.html, or the embedded copy when dir is empty.
func staticAssets(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	assets, err := fs.Sub(web.Assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("loading embedded assets: %w", err)
	}
	return assets, nil
}
