package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billreminder/internal/core"
	"billreminder/internal/export"
	"billreminder/internal/log"
	"billreminder/internal/metrics"
	"billreminder/internal/notify"
	"billreminder/internal/storage"
)

// Notifier accepts messages for asynchronous delivery. Enqueue must not
// block.
type Notifier interface {
	Enqueue(msg notify.Message) bool
}

// BillService implements every bill operation for one owner at a time. It
// persists through the repository and hands creation notices to the
// notifier without waiting for delivery.
type BillService struct {
	repo     storage.Repository
	notifier Notifier
	logger   *log.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*BillService)

// WithClock replaces time.Now, used for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *BillService) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BillService) { s.metrics = m }
}

// NewBillService wires the service. notifier may be nil, in which case no
// notifications are sent.
func NewBillService(repo storage.Repository, notifier Notifier, logger *log.Logger, opts ...Option) *BillService {
	s := &BillService{
		repo:     repo,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentBills),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListBills returns the owner's bills ordered by due date.
func (s *BillService) ListBills(ctx context.Context, ownerID string) ([]core.Bill, error) {
	bills, err := s.repo.BillsByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.persistenceError(ctx, log.OpList, ownerID, err)
	}
	return bills, nil
}

// GetBill returns one bill or core.ErrNotFound.
func (s *BillService) GetBill(ctx context.Context, ownerID string, id int64) (core.Bill, error) {
	b, err := s.repo.BillByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Bill{}, core.ErrNotFound
		}
		return core.Bill{}, s.persistenceError(ctx, log.OpRead, ownerID, err)
	}
	return b, nil
}

// NewBillTemplate is the pre-filled input for a new bill: due tomorrow, in
// the default currency, pending.
func (s *BillService) NewBillTemplate(today core.Date) core.BillInput {
	return core.BillInput{
		Currency: core.DefaultCurrency,
		DueDate:  today.AddDays(1).String(),
		Status:   core.StatusPending.String(),
	}
}

// CreateBill validates and stores a new bill for owner, then queues the
// bill-created notification. Notification problems never fail the call.
func (s *BillService) CreateBill(ctx context.Context, owner core.Owner, in core.BillInput) (core.Bill, error) {
	b, err := in.Bill(owner.ID)
	if err != nil {
		s.metrics.BillOperation(log.OpCreate, "invalid")
		return core.Bill{}, err
	}

	created, err := s.repo.Insert(ctx, b)
	if err != nil {
		return core.Bill{}, s.persistenceError(ctx, log.OpCreate, owner.ID, err)
	}
	s.metrics.BillOperation(log.OpCreate, "ok")

	s.logger.InfoContext(ctx, "Bill created",
		log.NewFields().
			WithOwner(owner.ID).
			WithBill(created.ID, created.Title, core.FormatAmount(created.Amount), created.Currency, created.Category, created.DueDate.String()).
			ToSlice()...)

	s.notifyCreated(ctx, owner, created)
	return created, nil
}

func (s *BillService) notifyCreated(ctx context.Context, owner core.Owner, b core.Bill) {
	if s.notifier == nil {
		return
	}
	if owner.Email == "" {
		s.logger.DebugContext(ctx, "Owner has no e-mail address, skipping notification",
			log.FieldOwnerID, owner.ID,
			log.FieldBillID, b.ID)
		return
	}
	s.notifier.Enqueue(notify.NewBillCreatedMessage(owner.Email, b, s.now()))
}

// UpdateBill replaces every editable field of an existing bill. The owner
// lookup runs first, so a foreign or missing id yields core.ErrNotFound even
// when the input is also invalid.
func (s *BillService) UpdateBill(ctx context.Context, ownerID string, id int64, in core.BillInput) (core.Bill, error) {
	if _, err := s.GetBill(ctx, ownerID, id); err != nil {
		return core.Bill{}, err
	}

	b, err := in.Bill(ownerID)
	if err != nil {
		s.metrics.BillOperation(log.OpUpdate, "invalid")
		return core.Bill{}, err
	}
	b.ID = id

	if err := s.repo.Replace(ctx, b); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Bill{}, core.ErrNotFound
		}
		return core.Bill{}, s.persistenceError(ctx, log.OpUpdate, ownerID, err)
	}
	s.metrics.BillOperation(log.OpUpdate, "ok")

	s.logger.InfoContext(ctx, "Bill updated",
		log.FieldOwnerID, ownerID,
		log.FieldBillID, id)
	return b, nil
}

// DeleteBill removes a bill owned by ownerID.
func (s *BillService) DeleteBill(ctx context.Context, ownerID string, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return s.persistenceError(ctx, log.OpDelete, ownerID, err)
	}
	s.metrics.BillOperation(log.OpDelete, "ok")

	s.logger.InfoContext(ctx, "Bill deleted",
		log.FieldOwnerID, ownerID,
		log.FieldBillID, id)
	return nil
}

// Dashboard summarizes the owner's bills as of today.
func (s *BillService) Dashboard(ctx context.Context, ownerID string, today core.Date) (core.Dashboard, error) {
	bills, err := s.ListBills(ctx, ownerID)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.Summarize(bills, today), nil
}

// Report aggregates the owner's bills due within rng.
func (s *BillService) Report(ctx context.Context, ownerID string, rng core.DateRange) (core.Report, error) {
	bills, err := s.ListBills(ctx, ownerID)
	if err != nil {
		return core.Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Report{}, err
	}
	return core.Aggregate(bills, rng), nil
}

// ExportedReport is a rendered report ready to be served as a download.
type ExportedReport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportReport renders the owner's report for rng as PDF.
func (s *BillService) ExportReport(ctx context.Context, ownerID string, rng core.DateRange, generatedAt time.Time) (ExportedReport, error) {
	report, err := s.Report(ctx, ownerID, rng)
	if err != nil {
		return ExportedReport{}, err
	}

	data, err := export.PDF(export.BuildLayout(report, generatedAt), generatedAt)
	if err != nil {
		return ExportedReport{}, fmt.Errorf("export report: %w", err)
	}
	s.metrics.ReportExported()

	s.logger.InfoContext(ctx, "Report exported",
		log.FieldOwnerID, ownerID,
		"from", rng.From.String(),
		"to", rng.To.String(),
		"categories", len(report.Categories),
		"bytes", len(data))

	return ExportedReport{
		Filename:    export.Filename(generatedAt),
		ContentType: export.ContentType,
		Data:        data,
	}, nil
}

// persistenceError logs the storage failure in full and returns an error
// that only exposes core.ErrPersistence to callers.
func (s *BillService) persistenceError(ctx context.Context, op, ownerID string, err error) error {
	s.metrics.BillOperation(op, "error")
	s.logger.ErrorContext(ctx, "Repository operation failed",
		log.NewFields().
			WithOperation(op).
			WithOwner(ownerID).
			WithErrorType(log.ErrorTypeDatabase).
			WithError(err).
			ToSlice()...)
	return fmt.Errorf("%w: %s: %w", core.ErrPersistence, op, err)
}

// Ready reports whether the repository is reachable.
func (s *BillService) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close releases the repository.
func (s *BillService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	return nil
}
