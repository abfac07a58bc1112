package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/parley-server/internal/app"
	"github.com/vovakirdan/parley-server/internal/config"
	"github.com/vovakirdan/parley-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		logLevel   string
		dbPath     string
	)

	root := &cobra.Command{
		Use:          "parley-server",
		Short:        "Session and channel messaging server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := log.New("info")

			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}

			// flags win over file and env
			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting parley server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	root.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.Flags().StringVar(&dbPath, "db", "", "path to the sqlite database")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
