package notify

import (
	"context"

	"billreminder/internal/log"
)

// LogSink writes messages to the log instead of sending them. It is the
// fallback when neither a broker nor an SMTP server is configured.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent(log.ComponentNotify)}
}

func (s *LogSink) Deliver(ctx context.Context, m Message) error {
	s.logger.InfoContext(ctx, "Bill notification (not sent, no transport configured)",
		log.FieldMessageID, m.ID,
		"to", m.To,
		"subject", m.Subject,
		log.FieldBillID, m.Bill.ID)
	return nil
}
