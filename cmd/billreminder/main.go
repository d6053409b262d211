package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"billreminder/internal/backend"
	"billreminder/internal/cache"
	"billreminder/internal/cli"
	"billreminder/internal/config"
	apphttp "billreminder/internal/http"
	"billreminder/internal/log"
	"billreminder/internal/metrics"
	"billreminder/internal/middleware/auth"
	"billreminder/internal/notify"
	"billreminder/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, log.ComponentApp, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	m := metrics.New()
	caches := cache.NewManager(logger)
	factory := backend.NewFactory(logger, m, caches)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	store, err := factory.CreateStorage(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage", log.FieldError, err.Error())
		}
	}()
	if cfg.CacheSize > 0 {
		caches.StartCleanup(cfg.CacheTTL)
		defer caches.Stop()
	}

	sink, err := factory.CreateSink(ctx, bcfg)
	if err != nil {
		return err
	}
	if sink.Cleanup != nil {
		defer sink.Cleanup()
	}

	dispatcher := notify.NewDispatcher(sink.Sink, logger,
		notify.WithQueueSize(cfg.NotifyQueueSize),
		notify.WithDeliveryTimeout(cfg.NotifyTimeout),
		notify.WithMetrics(m))

	bills := services.NewBillService(store.Repository, dispatcher, logger, services.WithMetrics(m))
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Location:        cfg.Location(),
	}, bills, auth.NewAuthenticator(tokens, logger), logger, m)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server",
			"addr", srv.Addr,
			"backend", bcfg.Type.String(),
			"notifications", string(sink.Kind),
			"time_zone", cfg.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Warn("Notification queue not fully drained", log.FieldError, err.Error())
		}
		return nil
	})

	return g.Wait()
}
