package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"billreminder/internal/core"
	"billreminder/internal/log"
	"billreminder/internal/middleware/auth"
	"billreminder/internal/notify"
	"billreminder/internal/services"
	"billreminder/internal/storage"
	"billreminder/internal/storage/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = func() time.Time { return time.Date(2024, time.May, 15, 9, 30, 0, 0, time.UTC) }

type captureNotifier struct{ msgs []notify.Message }

func (c *captureNotifier) Enqueue(m notify.Message) bool {
	c.msgs = append(c.msgs, m)
	return true
}

// brokenStore fails every read with a driver-level error.
type brokenStore struct{ *memory.Store }

func (brokenStore) BillsByOwner(context.Context, string) ([]core.Bill, error) {
	return nil, errors.New("disk I/O error at /var/lib/bills.db")
}

type testEnv struct {
	srv      *Server
	tokens   *auth.JWTManager
	notifier *captureNotifier
}

func newTestEnv(t *testing.T, store storage.Repository) *testEnv {
	t.Helper()
	n := &captureNotifier{}
	svc := services.NewBillService(store, n, log.Nop(), services.WithClock(testNow))
	tokens := auth.NewJWTManager(testSecret, "billreminder")
	srv := NewServer(Options{RateLimitPerMin: 1000, Now: testNow}, svc, auth.NewAuthenticator(tokens, log.Nop()), log.Nop(), nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, tokens: tokens, notifier: n}
}

func (e *testEnv) do(t *testing.T, method, path, body string, owner *core.Owner) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != nil {
		tok, err := e.tokens.Generate(*owner, time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

var (
	alice = &core.Owner{ID: "alice", Email: "alice@example.com"}
	bob   = &core.Owner{ID: "bob"}
)

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, memory.New())

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("/metrics without registry status = %d", rec.Code)
	}
}

func TestBillLifecycle(t *testing.T) {
	env := newTestEnv(t, memory.New())

	rec := env.do(t, http.MethodPost, "/api/bills",
		`{"title":"Electricity","amount":80.5,"dueDate":"2024-05-17","category":"Utility"}`, alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}
	created := decode[billResponse](t, rec)
	if created.Amount != "80.50" || created.Currency != "USD" || created.Status != "Pending" {
		t.Fatalf("created = %+v", created)
	}
	if created.ReminderState != "DueSoon" {
		t.Fatalf("reminderState = %q, want DueSoon", created.ReminderState)
	}
	if rec.Header().Get("Location") == "" {
		t.Fatal("Location header missing")
	}
	if len(env.notifier.msgs) != 1 || env.notifier.msgs[0].To != "alice@example.com" {
		t.Fatalf("notifications = %+v", env.notifier.msgs)
	}

	path := "/api/bills/" + strconv.FormatInt(created.ID, 10)

	rec = env.do(t, http.MethodPut, path,
		`{"title":"Electricity","amount":"80.50","dueDate":"2024-05-10","category":"Utility","status":"Pending"}`, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[billResponse](t, rec); got.ReminderState != "Overdue" {
		t.Fatalf("updated reminderState = %q", got.ReminderState)
	}

	rec = env.do(t, http.MethodGet, "/api/bills", "", alice)
	if list := decode[[]billResponse](t, rec); len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	if rec := env.do(t, http.MethodDelete, path, "", alice); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, path, "", alice); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestOwnerIsolation(t *testing.T) {
	env := newTestEnv(t, memory.New())

	rec := env.do(t, http.MethodPost, "/api/bills",
		`{"title":"Rent","amount":"1200","dueDate":"2024-06-01","category":"Housing","ownerId":"bob"}`, alice)
	created := decode[billResponse](t, rec)
	path := "/api/bills/" + strconv.FormatInt(created.ID, 10)

	tests := []struct {
		name   string
		method string
		body   string
	}{
		{"get", http.MethodGet, ""},
		{"update with invalid input", http.MethodPut, `{"title":"x"}`},
		{"delete", http.MethodDelete, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, path, tt.body, bob)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
		})
	}

	rec = env.do(t, http.MethodGet, "/api/bills", "", bob)
	if list := decode[[]billResponse](t, rec); len(list) != 0 {
		t.Fatalf("bob sees %d bills", len(list))
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, memory.New())

	rec := env.do(t, http.MethodPost, "/api/bills", `{"title":"ab","amount":"0","category":""}`, alice)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := decode[errorBody](t, rec)
	fields := map[string]bool{}
	for _, f := range body.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"title", "amount", "dueDate", "category"} {
		if !fields[want] {
			t.Errorf("missing field error for %s in %+v", want, body.Fields)
		}
	}
	if len(env.notifier.msgs) != 0 {
		t.Fatal("invalid create must not notify")
	}

	if rec := env.do(t, http.MethodPost, "/api/bills", `{"title":`, alice); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestUnauthenticated(t *testing.T) {
	env := newTestEnv(t, memory.New())

	for _, path := range []string{"/api/bills", "/api/bills/new", "/api/reports", "/api/reports/export"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/dashboard", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous dashboard status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"authenticated":false}` {
		t.Fatalf("anonymous dashboard body = %s", got)
	}
}

func TestNewBillTemplate(t *testing.T) {
	env := newTestEnv(t, memory.New())

	rec := env.do(t, http.MethodGet, "/api/bills/new", "", alice)
	got := decode[core.BillInput](t, rec)
	if got.DueDate != "2024-05-16" || got.Currency != "USD" || got.Status != "Pending" {
		t.Fatalf("template = %+v", got)
	}
}

func TestDashboardAndReport(t *testing.T) {
	env := newTestEnv(t, memory.New())

	seed := []string{
		`{"title":"Rent","amount":"1000","dueDate":"2024-05-01","category":"Housing","status":"Paid"}`,
		`{"title":"Power","amount":"60.25","dueDate":"2024-05-14","category":"Utility"}`,
		`{"title":"Water","amount":"30","dueDate":"2024-05-16","category":"Utility"}`,
		`{"title":"Phone","amount":"45","dueDate":"2024-06-20","category":"Utility"}`,
	}
	for _, b := range seed {
		if rec := env.do(t, http.MethodPost, "/api/bills", b, alice); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d body = %s", rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/api/dashboard", "", alice)
	dash := decode[dashboardResponse](t, rec)
	if !dash.Authenticated || dash.TotalCount != 4 || dash.OverdueCount != 1 || dash.DueSoonCount != 1 || dash.PaidCount != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}
	if len(dash.Upcoming) != 2 || dash.Upcoming[0].Title != "Water" {
		t.Fatalf("upcoming = %+v", dash.Upcoming)
	}

	rec = env.do(t, http.MethodGet, "/api/reports", "", alice)
	rep := decode[reportResponse](t, rec)
	if rep.From != "2024-04-15" || rep.To != "2024-05-15" {
		t.Fatalf("range = %s..%s", rep.From, rep.To)
	}
	if rep.TotalAmount != "1060.25" || rep.TotalPaid != "1000.00" || rep.TotalPending != "60.25" || rep.BillCount != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Categories) != 2 || rep.Categories[0].Category != "Housing" {
		t.Fatalf("categories = %+v", rep.Categories)
	}

	rec = env.do(t, http.MethodGet, "/api/reports?from=2030-01-01&to=2030-12-31", "", alice)
	if got := decode[reportResponse](t, rec); got.Categories == nil || len(got.Categories) != 0 || got.TotalAmount != "0.00" {
		t.Fatalf("empty report = %+v", got)
	}
}

func TestExportReport(t *testing.T) {
	env := newTestEnv(t, memory.New())
	env.do(t, http.MethodPost, "/api/bills",
		`{"title":"Rent","amount":"1000","dueDate":"2024-05-01","category":"Housing"}`, alice)

	rec := env.do(t, http.MethodGet, "/api/reports/export", "", alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="SpendingReport_20240515093000.pdf"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF")
	}
}

func TestPersistenceFailureHidesCause(t *testing.T) {
	env := newTestEnv(t, brokenStore{memory.New()})

	rec := env.do(t, http.MethodGet, "/api/bills", "", alice)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
	if got := decode[errorBody](t, rec); got.Error != "operation failed" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestBadBillIDIsNotFound(t *testing.T) {
	env := newTestEnv(t, memory.New())
	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/bills/abc", ""},
		{http.MethodGet, "/api/bills/0", ""},
		{http.MethodPut, "/api/bills/-4", `{"title":"x"}`},
		{http.MethodDelete, "/api/bills/1x", ""},
		{http.MethodGet, "/api/bills/999", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body, alice)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			if got := decode[errorBody](t, rec); got.Error != "bill not found" {
				t.Fatalf("error = %q", got.Error)
			}
		})
	}
}
