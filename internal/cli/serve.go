package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/logging"
	"github.com/lazypower/scrapbook/internal/metrics"
	"github.com/lazypower/scrapbook/internal/server"
	"github.com/lazypower/scrapbook/internal/storage"
	"github.com/lazypower/scrapbook/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bucket *storage.Bucket
	if cfg.StorageConfigured() {
		bucket, err = storage.New(ctx, storageOptions(cfg))
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		logger.Info("object storage", zap.String("bucket", bucket.Name()), zap.String("region", cfg.Storage.Region))
	} else {
		logger.Warn("object storage not configured, uploads and signed media disabled")
	}

	var lister storage.Lister
	if bucket != nil {
		lister = bucket
	}
	st, err := store.New(storeOptions(cfg, lister, logger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	m := metrics.New()
	opts := []server.Option{server.WithLogger(logger), server.WithMetrics(m)}
	if bucket != nil {
		opts = append(opts, server.WithPresigner(bucket))
	}
	srv, err := server.New(st, *cfg, VersionString(), opts...)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if f, ok := st.(*store.File); ok && cfg.Store.Watch {
		go func() {
			if err := f.Watch(ctx, store.DefaultDebounce, m.StoreReloads.Inc); err != nil {
				logger.Warn("watch stopped", zap.Error(err), zap.String("path", f.Path()))
			}
		}()
	}

	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("scrapbook serving",
			zap.String("addr", addr),
			zap.String("store", st.Backend()),
			zap.String("version", VersionString()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
