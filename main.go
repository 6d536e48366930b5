package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/cmd"
	"github.com/guestsnap/guestsnap/pkg/logging"
)

func main() {
	fs := afero.NewOsFs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.GetLogger()
	setupSignalHandler(cancel, logger)

	rootCmd := cmd.NewRootCommand(fs, ctx, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupSignalHandler cancels the root context on SIGINT/SIGTERM so the server
// shuts down gracefully.
func setupSignalHandler(cancel context.CancelFunc, logger *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()
}
