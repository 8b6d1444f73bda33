package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/motionbench/internal/server"
	"github.com/cwbudde/motionbench/internal/store"
)

var (
	serveAddr     string
	serveDataDir  string
	noStore       bool
	eventInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	Long: `Starts an HTTP server that runs benchmarks in the background, streams
their progress over SSE and serves stored run history.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for stored runs")
	serveCmd.Flags().BoolVar(&noStore, "no-store", false, "Disable run history")
	serveCmd.Flags().DurationVar(&eventInterval, "event-interval", server.DefaultEventInterval, "Minimum spacing of per-pair progress events")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var runStore store.Store
	if !noStore {
		fsStore, err := store.NewFSStore(serveDataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		runStore = fsStore
	}

	srv := server.NewServer(serveAddr, runStore)
	srv.EventInterval = eventInterval

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
	}

	slog.Info("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
