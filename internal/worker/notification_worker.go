// Package worker consumes queued bill notifications, sends them by e-mail
// and mirrors the bill into the spreadsheet ledger.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"billreminder/internal/log"
	"billreminder/internal/metrics"
	"billreminder/internal/notify"
	"billreminder/internal/sheets"
)

// Consumer feeds messages to a handler until ctx ends.
type Consumer interface {
	ConsumeNotifications(ctx context.Context, handler func(context.Context, notify.Message) error) error
}

// NotificationWorker handles one notification at a time.
type NotificationWorker struct {
	sender  notify.Sink
	ledger  sheets.BillLedger
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewNotificationWorker wires the worker. ledger may be nil to skip the
// spreadsheet mirror.
func NewNotificationWorker(sender notify.Sink, ledger sheets.BillLedger, logger *log.Logger, m *metrics.Metrics) *NotificationWorker {
	return &NotificationWorker{
		sender:  sender,
		ledger:  ledger,
		logger:  logger.WithComponent(log.ComponentWorker),
		metrics: m,
	}
}

// HandleNotification sends the e-mail and appends the ledger row
// concurrently. Only a failed e-mail fails the message; ledger problems are
// logged.
func (w *NotificationWorker) HandleNotification(ctx context.Context, msg notify.Message) error {
	logger := w.logger.With(log.FieldMessageID, msg.ID, log.FieldBillID, msg.Bill.ID)
	logger.InfoContext(ctx, "Processing bill notification")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.sender.Deliver(gctx, msg); err != nil {
			w.metrics.Notification("failed")
			return fmt.Errorf("deliver notification %s: %w", msg.ID, err)
		}
		w.metrics.Notification("sent")
		return nil
	})

	if w.ledger != nil {
		g.Go(func() error {
			ref, err := w.ledger.AppendBill(gctx, msg)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.WarnContext(ctx, "Failed to append bill to ledger",
						log.NewFields().WithError(err).WithOperation(log.OpAppend).ToSlice()...)
				}
				return nil
			}
			logger.DebugContext(ctx, "Bill mirrored to ledger", "range", ref)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Bill notification failed",
			log.NewFields().WithError(err).WithOperation(log.OpNotify).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
		return err
	}
	logger.InfoContext(ctx, "Bill notification sent")
	return nil
}

// Run consumes from c until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Notification worker started")
	err := c.ConsumeNotifications(ctx, w.HandleNotification)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	w.logger.InfoContext(ctx, "Notification worker stopped")
	return err
}
