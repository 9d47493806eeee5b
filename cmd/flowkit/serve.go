package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/cli"
	"github.com/aretw0/flowkit/internal/logging"
	httpAdapter "github.com/aretw0/flowkit/pkg/adapters/http"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/schema"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Start the HTTP server",
	Long: `Serves the flow over a JSON API: list and invoke node tools, read the data model,
validate records and schemas. Directory flows are reloaded when their files change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		rt, err := newRuntime(sigCtx, args)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())

		port := rt.Config.HTTP.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		level, err := logging.ParseLevel(rt.Config.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.NewJSON(os.Stderr, level)

		m, err := rt.Kit.Model("")
		if err != nil {
			return err
		}
		locker, err := rt.Locker()
		if err != nil {
			return err
		}
		host, err := rt.NewHost(m, logger)
		if err != nil {
			return err
		}
		lookup := func(edgeID string) (schema.Source, bool) {
			return callbacks.EdgeSchemas(rt.Kit.Flow())(edgeID)
		}
		t, dc := cli.Chain(host, locker, lookup, logger)

		api, err := httpAdapter.NewServer(rt.Kit,
			httpAdapter.WithCallbacks(t, dc),
			httpAdapter.WithMetrics(rt.Metrics),
			httpAdapter.WithWatcher(rt.Kit),
			httpAdapter.WithVersion(flowkit.Version),
			httpAdapter.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		cli.WatchReload(sigCtx, rt.Kit, logger, func(diff *domain.FlowDiff) {
			if diff.SchemasChanged {
				logger.Warn("Input schemas changed; collected records keep the model loaded at startup")
			}
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting flowkit HTTP Server", "address", srv.Addr, "flow", rt.Kit.Flow().ID)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("flowkit HTTP Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
