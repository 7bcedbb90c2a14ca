package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"tournament-results/internal/config"
	"tournament-results/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resultgen",
		Short:         "Aggregate Battlexo tournament results into ranked standings",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := logger.ParseLevel(logLevel)
			zerolog.SetGlobalLevel(level)
			log := logger.NewConsole(cmd.ErrOrStderr(), level)
			cmd.SetContext(log.WithContext(cmd.Context()))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newLinksCmd(), newTournamentsCmd())
	return root
}

// loadConfig reads the environment config but keeps the --log-level flag.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(logger.ParseLevel(logLevel))
	return cfg, nil
}
