package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"collegium/internal/app/bootstrap"
)

const programName = "collegium"

var globalFlags = struct {
	debug bool
}{}

func commonRun() *slog.Logger {
	logLevel := slog.LevelInfo
	if globalFlags.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	)
	slog.SetDefault(logger)
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
}

func apiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Run the editorial college HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			logger := commonRun()
			app, err := bootstrap.BuildAPI()
			if err != nil {
				logger.Error("api bootstrap failed", "error", err)
				os.Exit(1)
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("api shutdown close failed", "error", err)
				}
			}()
			ctx, stop := signalContext()
			defer stop()
			if err := app.Run(ctx); err != nil {
				logger.Error("api stopped with error", "error", err)
				os.Exit(1)
			}
		},
	}
}

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the outbox relays, governance sweep, and event consumers",
		Run: func(cmd *cobra.Command, args []string) {
			logger := commonRun()
			app, err := bootstrap.BuildWorker()
			if err != nil {
				logger.Error("worker bootstrap failed", "error", err)
				os.Exit(1)
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("worker shutdown close failed", "error", err)
				}
			}()
			ctx, stop := signalContext()
			defer stop()
			if err := app.Run(ctx); err != nil {
				logger.Error("worker stopped with error", "error", err)
				os.Exit(1)
			}
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Editorial fellowship governance and assignment engine",
	}
	rootCmd.PersistentFlags().BoolVarP(
		&globalFlags.debug,
		"debug",
		"D",
		false,
		"enable debug logging",
	)
	rootCmd.AddCommand(
		apiCommand(),
		workerCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		// cobra already prints the error
		os.Exit(1)
	}
}
