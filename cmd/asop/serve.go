package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bgbg/asop/internal/server"
	"github.com/bgbg/asop/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves background benchmark jobs with live progress and ask/tell sessions
under /api/v1. Snapshots and traces go to --data-dir; pass an empty value to
keep everything in memory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Directory for snapshots and traces (empty = none)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var st store.Store
	if serveDataDir != "" {
		fs, err := store.NewFSStore(serveDataDir)
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		st = fs
	}

	s := server.NewServer(serveAddr, st)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
