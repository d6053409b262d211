// Package memory is an in-process ledger used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"billreminder/internal/notify"
	"billreminder/internal/sheets"
)

var _ sheets.BillLedger = (*Ledger)(nil)

type Ledger struct {
	mu   sync.Mutex
	rows [][]any
	seen map[string]bool
}

func New() *Ledger {
	return &Ledger{seen: make(map[string]bool)}
}

// AppendBill stores the row and returns a synthetic A1 reference. A message
// already appended is ignored and yields the empty reference.
func (l *Ledger) AppendBill(_ context.Context, msg notify.Message) (string, error) {
	if msg.Bill.ID == 0 {
		return "", errors.New("message carries no bill")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.ID != "" && l.seen[msg.ID] {
		return "", nil
	}
	l.seen[msg.ID] = true
	l.rows = append(l.rows, sheets.Row(msg))

	// row 1 holds the header
	n := len(l.rows) + 1
	return fmt.Sprintf("mem!A%d:I%d", n, n), nil
}

// Rows returns a copy of the appended rows.
func (l *Ledger) Rows() [][]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]any, len(l.rows))
	copy(out, l.rows)
	return out
}
