package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"billreminder/internal/amqp"
	"billreminder/internal/backend"
	"billreminder/internal/cli"
	"billreminder/internal/config"
	"billreminder/internal/log"
	"billreminder/internal/metrics"
	"billreminder/internal/sheets"
	"billreminder/internal/worker"
)

// metricsAddr serves /metrics for the worker.
const metricsAddr = ":9091"

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	if cfg.AMQPURL == "" {
		fmt.Fprintln(os.Stderr, "configuration validation failed:\n- AMQP_URL is required to run the notification worker")
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, log.ComponentWorker, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	m := metrics.New()
	factory := backend.NewFactory(logger, m, nil)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	sender, err := factory.CreateSender(ctx, bcfg)
	if err != nil {
		return err
	}

	var ledger sheets.BillLedger
	switch l, err := factory.CreateLedger(ctx, bcfg); {
	case errors.Is(err, backend.ErrLedgerDisabled):
		logger.Info("Google Sheets ledger disabled - no GOOGLE_SPREADSHEET_ID provided")
	case err != nil:
		return err
	default:
		ledger = l
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, m)
	if err != nil {
		return fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	defer consumer.Close()

	w := worker.NewNotificationWorker(sender.Sink, ledger, logger, m)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gctx, consumer)
	})

	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	logger.Info("Notification worker running",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"sender", string(sender.Kind),
		"ledger", ledger != nil)

	return g.Wait()
}
