package backend

import (
	"context"
	"errors"
	"fmt"

	"billreminder/internal/amqp"
	"billreminder/internal/cache"
	"billreminder/internal/log"
	"billreminder/internal/metrics"
	"billreminder/internal/notify"
	"billreminder/internal/sheets"
	gsheet "billreminder/internal/sheets/google"
	"billreminder/internal/storage"
	"billreminder/internal/storage/memory"
)

// Factory creates the collaborators described by a Config.
type Factory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
	caches  *cache.Manager
}

// NewFactory creates a new backend factory. Caches it builds are registered
// with caches, which may be nil.
func NewFactory(logger *log.Logger, m *metrics.Metrics, caches *cache.Manager) *Factory {
	return &Factory{
		logger:  logger.WithComponent(log.ComponentApp),
		metrics: m,
		caches:  caches,
	}
}

// CreateStorage opens the configured repository, wrapped in the per-owner
// bill cache when CacheSize is positive.
func (f *Factory) CreateStorage(ctx context.Context, config Config) (*StorageResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var repo storage.Repository
	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		repo = sqliteRepo
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		repo = memory.New()
		f.logger.WarnContext(ctx, "Initialized memory backend, bills are lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.CacheSize > 0 {
		cached := storage.NewCached(repo, config.CacheSize, config.CacheTTL, f.metrics)
		if f.caches != nil {
			f.caches.Register(cached.Cache())
		}
		repo = cached
		f.logger.InfoContext(ctx, "Bill cache enabled", "size", config.CacheSize, "ttl", config.CacheTTL.String())
	}

	return &StorageResult{Repository: repo, Cleanup: repo.Close}, nil
}

// CreateSink picks the notification transport: the broker when AMQP is
// configured, otherwise SMTP, otherwise the log.
func (f *Factory) CreateSink(ctx context.Context, config Config) (*SinkResult, error) {
	switch kind := config.SinkKind(); kind {
	case SinkAMQP:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger, f.metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.InfoContext(ctx, "Notifications go through AMQP",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return &SinkResult{Sink: client, Kind: kind, Cleanup: client.Close}, nil
	case SinkSMTP:
		return f.smtpSink(ctx, config)
	default:
		f.logger.WarnContext(ctx, "No notification transport configured, notifications are only logged")
		return &SinkResult{Sink: notify.NewLogSink(f.logger), Kind: SinkLog}, nil
	}
}

// CreateSender builds the final e-mail transport used by the worker. It
// never returns the AMQP publisher.
func (f *Factory) CreateSender(ctx context.Context, config Config) (*SinkResult, error) {
	if config.SMTP.Host == "" {
		f.logger.WarnContext(ctx, "SMTP not configured, notifications are only logged")
		return &SinkResult{Sink: notify.NewLogSink(f.logger), Kind: SinkLog}, nil
	}
	return f.smtpSink(ctx, config)
}

func (f *Factory) smtpSink(ctx context.Context, config Config) (*SinkResult, error) {
	sender, err := notify.NewSMTPSender(config.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
	}
	f.logger.InfoContext(ctx, "Notifications go through SMTP",
		"host", config.SMTP.Host,
		"port", config.SMTP.Port)
	return &SinkResult{Sink: sender, Kind: SinkSMTP}, nil
}

// ErrLedgerDisabled is returned by CreateLedger when no spreadsheet is set.
var ErrLedgerDisabled = errors.New("ledger disabled")

// CreateLedger connects to the Google Sheets ledger.
func (f *Factory) CreateLedger(ctx context.Context, config Config) (sheets.BillLedger, error) {
	if config.GoogleSpreadsheetID == "" {
		return nil, ErrLedgerDisabled
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return client, nil
}
