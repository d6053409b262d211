package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"billreminder/internal/core"
	"billreminder/internal/log"
	"billreminder/internal/notify"
	"billreminder/internal/storage/memory"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (f *fakeNotifier) Enqueue(m notify.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
	return true
}

// failingRepo fails every write after construction.
type failingRepo struct {
	*memory.Store
	err error
}

func (r *failingRepo) Insert(context.Context, core.Bill) (core.Bill, error) {
	return core.Bill{}, r.err
}

func (r *failingRepo) Replace(context.Context, core.Bill) error { return r.err }

var (
	alice = core.Owner{ID: "alice", Email: "alice@example.com"}
	bob   = core.Owner{ID: "bob", Email: "bob@example.com"}
	today = core.NewDate(2024, time.May, 15)
	clock = func() time.Time { return time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC) }
)

func newService() (*BillService, *fakeNotifier) {
	n := &fakeNotifier{}
	return NewBillService(memory.New(), n, log.Nop(), WithClock(clock)), n
}

func input(title, amount, due, category, status string) core.BillInput {
	return core.BillInput{Title: title, Amount: amount, DueDate: due, Category: category, Status: status}
}

func TestBillService_CreateNotifies(t *testing.T) {
	svc, n := newService()
	ctx := context.Background()

	b, err := svc.CreateBill(ctx, alice, input("Electricity", "80.5", "2024-05-17", "Utility", ""))
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if b.ID == 0 || b.OwnerID != "alice" || b.Currency != "USD" {
		t.Fatalf("unexpected bill: %+v", b)
	}

	if len(n.msgs) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.msgs))
	}
	msg := n.msgs[0]
	if msg.To != "alice@example.com" || msg.Subject != "New Bill Added: Electricity" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !strings.Contains(msg.Body, "Amount  : 80.50 USD") {
		t.Fatalf("body missing amount:\n%s", msg.Body)
	}
	if !msg.CreatedAt.Equal(clock()) {
		t.Fatalf("createdAt = %v", msg.CreatedAt)
	}
}

func TestBillService_CreateWithoutEmailSkipsNotification(t *testing.T) {
	svc, n := newService()
	if _, err := svc.CreateBill(context.Background(), core.Owner{ID: "anon"}, input("Electricity", "10", "2024-05-17", "Utility", "")); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if len(n.msgs) != 0 {
		t.Fatalf("expected no notification, got %d", len(n.msgs))
	}
}

func TestBillService_CreateInvalidWritesNothing(t *testing.T) {
	svc, n := newService()
	ctx := context.Background()

	_, err := svc.CreateBill(ctx, alice, input("ab", "0", "", "", ""))
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	bills, _ := svc.ListBills(ctx, "alice")
	if len(bills) != 0 {
		t.Fatalf("invalid create wrote %d bills", len(bills))
	}
	if len(n.msgs) != 0 {
		t.Fatalf("invalid create sent a notification")
	}
}

func TestBillService_ForeignBillIsNotFound(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	b, err := svc.CreateBill(ctx, alice, input("Rent", "900", "2024-06-01", "Housing", ""))
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	if _, err := svc.GetBill(ctx, bob.ID, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}

	// invalid input on a foreign bill must still report NotFound
	_, err = svc.UpdateBill(ctx, bob.ID, b.ID, input("x", "-1", "nope", "", "weird"))
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, core.ErrValidation) {
		t.Fatalf("update leaked a validation error for a foreign bill")
	}

	if err := svc.DeleteBill(ctx, bob.ID, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}

	if _, err := svc.GetBill(ctx, alice.ID, b.ID); err != nil {
		t.Fatalf("owner lost access: %v", err)
	}
}

func TestBillService_UpdateAndDelete(t *testing.T) {
	svc, n := newService()
	ctx := context.Background()

	b, _ := svc.CreateBill(ctx, alice, input("Rent", "900", "2024-06-01", "Housing", ""))

	updated, err := svc.UpdateBill(ctx, alice.ID, b.ID, input("Rent June", "950", "2024-06-01", "Housing", "Paid"))
	if err != nil {
		t.Fatalf("UpdateBill: %v", err)
	}
	if updated.ID != b.ID || updated.Status != core.StatusPaid || updated.Title != "Rent June" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	_, err = svc.UpdateBill(ctx, alice.ID, b.ID, input("Rent", "", "2024-06-01", "Housing", ""))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if err := svc.DeleteBill(ctx, alice.ID, b.ID); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}
	if _, err := svc.GetBill(ctx, alice.ID, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(n.msgs) != 1 {
		t.Fatalf("only creation should notify, got %d messages", len(n.msgs))
	}
}

func TestBillService_PersistenceErrorsAreGeneric(t *testing.T) {
	store := memory.New()
	existing, _ := store.Insert(context.Background(), core.Bill{
		OwnerID: "alice", Title: "Rent", Currency: "USD", Category: "Housing", DueDate: today,
	})
	repo := &failingRepo{Store: store, err: errors.New("disk I/O error")}
	n := &fakeNotifier{}
	svc := NewBillService(repo, n, log.Nop())
	ctx := context.Background()

	_, err := svc.CreateBill(ctx, alice, input("Water", "10", "2024-05-20", "Utility", ""))
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("create: expected ErrPersistence, got %v", err)
	}
	if len(n.msgs) != 0 {
		t.Fatalf("failed create must not notify")
	}

	_, err = svc.UpdateBill(ctx, alice.ID, existing.ID, input("Water", "10", "2024-05-20", "Utility", ""))
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("update: expected ErrPersistence, got %v", err)
	}
}

func TestBillService_NotifierFailureDoesNotFailCreate(t *testing.T) {
	dropAll := notifierFunc(func(notify.Message) bool { return false })
	svc := NewBillService(memory.New(), dropAll, log.Nop())

	if _, err := svc.CreateBill(context.Background(), alice, input("Water", "10", "2024-05-20", "Utility", "")); err != nil {
		t.Fatalf("CreateBill should succeed even when the notification is dropped: %v", err)
	}
}

type notifierFunc func(notify.Message) bool

func (f notifierFunc) Enqueue(m notify.Message) bool { return f(m) }

func TestBillService_DashboardAndReport(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	svc.CreateBill(ctx, alice, input("Rent", "100", today.AddDays(-5).String(), "Rent", "Paid"))
	svc.CreateBill(ctx, alice, input("Power", "50", today.AddDays(1).String(), "Utility", ""))
	svc.CreateBill(ctx, bob, input("Bob's bill", "999", today.String(), "Other", ""))

	d, err := svc.Dashboard(ctx, alice.ID, today)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalCount != 2 || d.PaidCount != 1 || d.OverdueCount != 0 || d.DueSoonCount != 1 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}

	r, err := svc.Report(ctx, alice.ID, core.DefaultReportRange(today))
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if core.FormatAmount(r.TotalAmount) != "150.00" || len(r.Categories) != 2 || r.Categories[0].Category != "Rent" {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestBillService_ExportReport(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	svc.CreateBill(ctx, alice, input("Power", "50", today.String(), "Utility", ""))

	generatedAt := time.Date(2024, time.May, 15, 18, 4, 5, 0, time.UTC)
	out, err := svc.ExportReport(ctx, alice.ID, core.DefaultReportRange(today), generatedAt)
	if err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	if out.Filename != "SpendingReport_20240515180405.pdf" {
		t.Fatalf("filename = %q", out.Filename)
	}
	if out.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", out.ContentType)
	}
	if !bytes.HasPrefix(out.Data, []byte("%PDF-")) {
		t.Fatalf("not a PDF")
	}
}

func TestBillService_NewBillTemplate(t *testing.T) {
	svc, _ := newService()
	tpl := svc.NewBillTemplate(today)
	if tpl.DueDate != "2024-05-16" || tpl.Currency != "USD" || tpl.Status != "Pending" {
		t.Fatalf("unexpected template: %+v", tpl)
	}
}
