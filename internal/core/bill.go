// Package core holds the bill model, the urgency classifier and the
// dashboard and report aggregators. Nothing in here reads a clock or an
// ambient identity: "today" and the owner are always parameters.
package core

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency = "USD"

	// DueSoonWindowDays is how far ahead of today a bill counts as due soon.
	DueSoonWindowDays = 3

	titleMinLen    = 3
	titleMaxLen    = 100
	currencyMaxLen = 10
	categoryMaxLen = 50
)

// Status is the persisted payment state of a bill.
type Status int

const (
	StatusPending Status = iota
	StatusPaid
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPaid:
		return "Paid"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// ParseStatus accepts the status name in any case or its numeric value.
// An empty string yields the default, Pending.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending", "0":
		return StatusPending, nil
	case "paid", "1":
		return StatusPaid, nil
	default:
		return StatusPending, ErrInvalidStatus
	}
}

// ReminderState is the derived urgency of a bill. It is recomputed on every
// read and never stored.
type ReminderState int

const (
	ReminderNone ReminderState = iota
	ReminderDueSoon
	ReminderOverdue
)

func (r ReminderState) String() string {
	switch r {
	case ReminderDueSoon:
		return "DueSoon"
	case ReminderOverdue:
		return "Overdue"
	default:
		return "None"
	}
}

// Classify derives the reminder state. Paid always wins; otherwise a bill is
// overdue strictly before today and due soon from today to today+3 inclusive.
func Classify(status Status, due, today Date) ReminderState {
	if status == StatusPaid {
		return ReminderNone
	}
	if due.Before(today) {
		return ReminderOverdue
	}
	if !due.After(today.AddDays(DueSoonWindowDays)) {
		return ReminderDueSoon
	}
	return ReminderNone
}

// Bill is a financial obligation owned by exactly one user.
type Bill struct {
	ID       int64
	OwnerID  string
	Title    string
	Amount   decimal.Decimal
	Currency string
	DueDate  Date
	Category string
	Status   Status
}

// ReminderState classifies the bill against today.
func (b Bill) ReminderState(today Date) ReminderState {
	return Classify(b.Status, b.DueDate, today)
}

// IsPaid reports whether the bill has been paid.
func (b Bill) IsPaid() bool {
	return b.Status == StatusPaid
}

// Validate checks every user-editable field and reports all failures at once.
func (b Bill) Validate() error {
	ve := &ValidationError{}
	validateTitle(ve, b.Title)
	validateAmount(ve, b.Amount)
	validateCurrency(ve, b.Currency)
	if b.DueDate.IsZero() {
		ve.add("dueDate", "is required")
	}
	validateCategory(ve, b.Category)
	if !b.Status.Valid() {
		ve.add("status", "must be Pending or Paid")
	}
	return ve.errOrNil()
}

// BillInput is the raw, user-supplied form of a bill. OwnerID and ID are
// deliberately absent: they never come from input.
type BillInput struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	DueDate  string `json:"dueDate"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// Bill parses and validates the input into a bill for ownerID. Currency and
// status fall back to their defaults when empty. The returned error is a
// *ValidationError listing every bad field.
func (in BillInput) Bill(ownerID string) (Bill, error) {
	ve := &ValidationError{}
	b := Bill{
		OwnerID:  ownerID,
		Title:    strings.TrimSpace(in.Title),
		Currency: strings.TrimSpace(in.Currency),
		Category: strings.TrimSpace(in.Category),
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}

	validateTitle(ve, b.Title)

	if amt, err := ParseAmount(in.Amount); err != nil {
		ve.add("amount", "must be a number")
	} else {
		b.Amount = amt
		validateAmount(ve, amt)
	}

	validateCurrency(ve, b.Currency)

	if strings.TrimSpace(in.DueDate) == "" {
		ve.add("dueDate", "is required")
	} else if d, err := ParseDate(in.DueDate); err != nil {
		ve.add("dueDate", "must be a date in YYYY-MM-DD format")
	} else {
		b.DueDate = d
	}

	validateCategory(ve, b.Category)

	if st, err := ParseStatus(in.Status); err != nil {
		ve.add("status", "must be Pending or Paid")
	} else {
		b.Status = st
	}

	if err := ve.errOrNil(); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func validateTitle(ve *ValidationError, title string) {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		ve.add("title", "is required")
	} else if n < titleMinLen || n > titleMaxLen {
		ve.add("title", "must be between 3 and 100 characters")
	}
}

func validateAmount(ve *ValidationError, amount decimal.Decimal) {
	if amount.LessThan(MinAmount) || amount.GreaterThan(MaxAmount) {
		ve.add("amount", "must be between 0.01 and 1000000")
	}
}

func validateCurrency(ve *ValidationError, currency string) {
	n := utf8.RuneCountInString(strings.TrimSpace(currency))
	if n == 0 {
		ve.add("currency", "is required")
	} else if n > currencyMaxLen {
		ve.add("currency", "must be at most 10 characters")
	}
}

func validateCategory(ve *ValidationError, category string) {
	n := utf8.RuneCountInString(strings.TrimSpace(category))
	if n == 0 {
		ve.add("category", "is required")
	} else if n > categoryMaxLen {
		ve.add("category", "must be at most 50 characters")
	}
}
