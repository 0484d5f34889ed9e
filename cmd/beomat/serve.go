package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcvalenti/BEOMAT/internal/api"
	"github.com/mcvalenti/BEOMAT/internal/atmosphere"
	"github.com/mcvalenti/BEOMAT/internal/metrics"
	"github.com/mcvalenti/BEOMAT/internal/tle"
)

var (
	serveAddr   string
	reloadEvery time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve exposes /api/v1/satellites, /api/v1/propagate/{id}, /api/v1/elements/{id},
/api/v1/access/{id} and POST /api/v1/decay, plus /healthz, /readyz and /metrics.
/readyz reports 503 until a catalog has been loaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(os.Stdout, cfg.LogLevel)
		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		tab, err := atmosphere.Default()
		if err != nil {
			return err
		}

		store := tle.NewStore()
		if cfg.CatalogPath == "" {
			logger.Info("no catalog configured, starting without element sets")
		} else if err := reloadCatalog(store, logger); err != nil {
			logger.Warn("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		}

		srv := api.NewServer(addr, logger, cfg.Auth, store, api.Options{
			Sites:       cfg.Sites,
			Propagation: cfg.Propagation,
			OpenWindow:  cfg.OpenWindow,
			Atmosphere:  tab,

			MaxConcurrentPerIP: cfg.MaxConcurrent,
			TrustProxy:         cfg.TrustProxy,
		})

		// Graceful shutdown on SIGINT/SIGTERM.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if reloadEvery > 0 && cfg.CatalogPath != "" {
			go func() {
				ticker := time.NewTicker(reloadEvery)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if err := reloadCatalog(store, logger); err != nil {
							logger.Warn("catalog reload failed, keeping previous", "error", err)
						}
					case <-ctx.Done():
						return
					}
				}
			}()
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", addr, "auth_enabled", cfg.Auth.Enabled, "sites", len(cfg.Sites))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()

		select {
		case err := <-errc:
			logger.Error("server listen error", "error", err)
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

// reloadCatalog swaps in a freshly parsed catalog. An empty result keeps the
// previous catalog.
func reloadCatalog(store *tle.Store, logger *slog.Logger) error {
	cat, err := tle.LoadFile(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}
	if len(cat.Sets) == 0 {
		return errors.New("catalog contains no valid element sets")
	}
	store.Set(cat)
	metrics.SetCatalogSize(len(cat.Sets))
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http_addr)")
	serveCmd.Flags().DurationVar(&reloadEvery, "reload", 0, "re-read the catalog file at this interval (0 disables)")
}
