package notify

import (
	"context"
	"sync"
	"time"

	"billreminder/internal/log"
	"billreminder/internal/metrics"
)

const (
	DefaultQueueSize       = 64
	DefaultDeliveryTimeout = 15 * time.Second
)

// Dispatcher hands messages to a Sink on its own goroutine. Enqueue never
// blocks: when the queue is full the message is dropped and counted.
// Delivery is at-most-once with no retry.
type Dispatcher struct {
	sink    Sink
	queue   chan Message
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Message, n)
		}
	}
}

func WithDeliveryTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher starts the delivery goroutine. Call Close to drain and stop.
func NewDispatcher(sink Sink, logger *log.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Message, DefaultQueueSize),
		timeout: DefaultDeliveryTimeout,
		logger:  logger.WithComponent(log.ComponentNotify),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Enqueue schedules msg for delivery and reports whether it was accepted.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.Notification("dropped")
		return false
	}

	select {
	case d.queue <- msg:
		d.metrics.QueueDepth(len(d.queue))
		return true
	default:
		d.metrics.Notification("dropped")
		d.logger.Warn("Notification queue full, dropping message",
			log.FieldMessageID, msg.ID,
			log.FieldBillID, msg.Bill.ID)
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		d.metrics.QueueDepth(len(d.queue))
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, msg); err != nil {
		d.metrics.Notification("failed")
		fields := log.NewFields().
			WithError(err).
			WithOperation(log.OpNotify).
			WithErrorType(log.ErrorTypeNetwork)
		fields[log.FieldMessageID] = msg.ID
		fields[log.FieldBillID] = msg.Bill.ID
		d.logger.Warn("Failed to deliver bill notification", fields.ToSlice()...)
		return
	}

	d.metrics.Notification("sent")
	d.logger.Debug("Delivered bill notification",
		log.FieldMessageID, msg.ID,
		log.FieldBillID, msg.Bill.ID)
}

// Close stops accepting messages and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
