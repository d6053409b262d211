// Package notify composes bill-created notifications and delivers them off
// the request path.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"billreminder/internal/core"
)

// BillSnapshot is the bill as it was when the notification was composed.
type BillSnapshot struct {
	ID       int64  `json:"id"`
	OwnerID  string `json:"ownerId"`
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	DueDate  string `json:"dueDate"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// Message is a plain-text notification addressed to one recipient.
type Message struct {
	ID        string       `json:"id"`
	To        string       `json:"to"`
	Subject   string       `json:"subject"`
	Body      string       `json:"body"`
	Bill      BillSnapshot `json:"bill"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Sink delivers a message somewhere: an SMTP server, a queue, a log.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Message) error

func (f SinkFunc) Deliver(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Snapshot copies the fields of b that travel with a notification.
func Snapshot(b core.Bill) BillSnapshot {
	return BillSnapshot{
		ID:       b.ID,
		OwnerID:  b.OwnerID,
		Title:    b.Title,
		Amount:   core.FormatAmount(b.Amount),
		Currency: b.Currency,
		DueDate:  b.DueDate.String(),
		Category: b.Category,
		Status:   b.Status.String(),
	}
}

// NewBillCreatedMessage composes the message sent after a bill is created.
func NewBillCreatedMessage(to string, b core.Bill, now time.Time) Message {
	snap := Snapshot(b)
	return Message{
		ID:        uuid.NewString(),
		To:        to,
		Subject:   "New Bill Added: " + snap.Title,
		Body:      billCreatedBody(snap),
		Bill:      snap,
		CreatedAt: now,
	}
}

func billCreatedBody(b BillSnapshot) string {
	var sb strings.Builder
	sb.WriteString("Hello,\n\n")
	sb.WriteString("You added a new bill to your Bill Reminder System.\n\n")
	fmt.Fprintf(&sb, "Title   : %s\n", b.Title)
	fmt.Fprintf(&sb, "Amount  : %s %s\n", b.Amount, b.Currency)
	fmt.Fprintf(&sb, "Due Date: %s\n", b.DueDate)
	fmt.Fprintf(&sb, "Category: %s\n", b.Category)
	fmt.Fprintf(&sb, "Status  : %s\n\n", b.Status)
	sb.WriteString("You will receive reminders based on this due date.\n\n")
	sb.WriteString("Regards,\nBill Reminder System")
	return sb.String()
}
