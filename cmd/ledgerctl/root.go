package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"travel-ledger/internal/config"
	"travel-ledger/pkg/logger"
)

var version = "1.0.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the travel ledger from the command line",
	Long: `ledgerctl resolves accounting periods, runs database migrations,
imports bank statements and records monthly exports against the
store selected by STORAGE_DRIVER. Only the postgres driver keeps
data between invocations.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger.Init(cfg.App.LogLevel, "text")
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.WithComponent("ledgerctl").WithError(err).Debug("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
