package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/imagepull/internal/handlers"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local JSON API driving the upload and download workflow",
		Long: `Starts a local HTTP API on the specified port.

The API holds a single session at a time: upload a dataset, edit the column
selection, then trigger the download. Retrieved images are saved under the
output folder of the machine running the server.`,
		Example: `  # Start server on default port 8888
  imagepull serve

  # Start server on custom port, talking to a remote extraction service
  imagepull serve --port 3000 --server http://extract.internal:8000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, store := newMachine(cmd)
			handler := handlers.New(machine, store.Root())

			server := &http.Server{
				Addr:              ":" + port,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			return runServer(cmd.Context(), server, machine)
		},
	}

	addServiceFlags(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}

func runServer(ctx context.Context, server *http.Server, machine *workflow.Machine) error {
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Imagepull API available", "addr", server.Addr, "url", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for context cancellation (Ctrl+C) or server error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		// In-flight requests finish but their results are discarded
		machine.Reset()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "err", err)
			return err
		}
		slog.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
