package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var today = NewDate(2024, time.May, 15)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		due    Date
		want   ReminderState
	}{
		{"paid overdue", StatusPaid, today.AddDays(-10), ReminderNone},
		{"paid due today", StatusPaid, today, ReminderNone},
		{"pending yesterday", StatusPending, today.AddDays(-1), ReminderOverdue},
		{"pending today", StatusPending, today, ReminderDueSoon},
		{"pending today+3", StatusPending, today.AddDays(3), ReminderDueSoon},
		{"pending today+4", StatusPending, today.AddDays(4), ReminderNone},
		{"pending far future", StatusPending, today.AddDays(60), ReminderNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.status, tt.due, today); got != tt.want {
				t.Fatalf("Classify(%v, %s) = %v, want %v", tt.status, tt.due, got, tt.want)
			}
		})
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	late := DateOf(time.Date(2024, time.May, 15, 23, 59, 0, 0, time.UTC))
	if got := Classify(StatusPending, late, today); got != ReminderDueSoon {
		t.Fatalf("expected DueSoon for same calendar day, got %v", got)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", StatusPending, false},
		{"Pending", StatusPending, false},
		{"PAID", StatusPaid, false},
		{"1", StatusPaid, false},
		{"0", StatusPending, false},
		{"overdue", StatusPending, true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseStatus(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBillInput_Bill(t *testing.T) {
	valid := BillInput{
		Title:    "  Electricity  ",
		Amount:   "120,505",
		DueDate:  "2024-05-20",
		Category: "Utility",
	}

	b, err := valid.Bill("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.OwnerID != "user-1" {
		t.Fatalf("owner = %q", b.OwnerID)
	}
	if b.Title != "Electricity" {
		t.Fatalf("title not trimmed: %q", b.Title)
	}
	if !b.Amount.Equal(decimal.RequireFromString("120.51")) {
		t.Fatalf("amount = %s, want 120.51", b.Amount)
	}
	if b.Currency != DefaultCurrency {
		t.Fatalf("currency = %q, want default", b.Currency)
	}
	if b.Status != StatusPending {
		t.Fatalf("status = %v, want Pending", b.Status)
	}
	if !b.DueDate.Equal(NewDate(2024, time.May, 20)) {
		t.Fatalf("due = %s", b.DueDate)
	}
}

func TestBillInput_BillValidation(t *testing.T) {
	tests := []struct {
		name   string
		input  BillInput
		fields []string
	}{
		{
			name:   "everything missing",
			input:  BillInput{},
			fields: []string{"title", "amount", "dueDate", "category"},
		},
		{
			name:   "short title",
			input:  BillInput{Title: "ab", Amount: "10", DueDate: "2024-05-20", Category: "x"},
			fields: []string{"title"},
		},
		{
			name:   "long title",
			input:  BillInput{Title: strings.Repeat("a", 101), Amount: "10", DueDate: "2024-05-20", Category: "x"},
			fields: []string{"title"},
		},
		{
			name:   "amount below minimum after rounding",
			input:  BillInput{Title: "Water", Amount: "0.004", DueDate: "2024-05-20", Category: "x"},
			fields: []string{"amount"},
		},
		{
			name:   "amount above maximum",
			input:  BillInput{Title: "Water", Amount: "1000000.01", DueDate: "2024-05-20", Category: "x"},
			fields: []string{"amount"},
		},
		{
			name:   "amount not a number",
			input:  BillInput{Title: "Water", Amount: "ten", DueDate: "2024-05-20", Category: "x"},
			fields: []string{"amount"},
		},
		{
			name:   "bad date and long currency",
			input:  BillInput{Title: "Water", Amount: "10", Currency: "DOLLARS-US-X", DueDate: "20/05/2024", Category: "x"},
			fields: []string{"currency", "dueDate"},
		},
		{
			name:   "long category and unknown status",
			input:  BillInput{Title: "Water", Amount: "10", DueDate: "2024-05-20", Category: strings.Repeat("c", 51), Status: "late"},
			fields: []string{"category", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.Bill("user-1")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if len(ve.Fields) != len(tt.fields) {
				t.Fatalf("fields = %+v, want %v", ve.Fields, tt.fields)
			}
			for i, f := range tt.fields {
				if ve.Fields[i].Field != f {
					t.Fatalf("field[%d] = %q, want %q", i, ve.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestBillInput_AmountBounds(t *testing.T) {
	for _, amt := range []string{"0.01", "1000000", "0.005"} {
		in := BillInput{Title: "Rent", Amount: amt, DueDate: "2024-05-20", Category: "Housing"}
		if _, err := in.Bill("u"); err != nil {
			t.Fatalf("amount %s should be accepted: %v", amt, err)
		}
	}
}

func TestBill_Validate(t *testing.T) {
	b := Bill{
		Title:    "Rent",
		Amount:   decimal.NewFromInt(900),
		Currency: "EUR",
		DueDate:  today,
		Category: "Housing",
		Status:   StatusPaid,
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.Status = Status(7)
	b.Amount = decimal.Zero
	err := b.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}
