// Package sheets mirrors created bills into a spreadsheet ledger.
package sheets

import (
	"context"

	"billreminder/internal/notify"
)

// Columns is the ledger header row, in column order.
var Columns = []string{"Bill ID", "Owner", "Title", "Amount", "Currency", "Due Date", "Category", "Status", "Notified At"}

// BillLedger appends one row per created bill.
type BillLedger interface {
	AppendBill(ctx context.Context, msg notify.Message) (rowRef string, err error)
}

// Row renders msg as ledger cells in Columns order.
func Row(msg notify.Message) []any {
	b := msg.Bill
	return []any{
		b.ID,
		b.OwnerID,
		b.Title,
		b.Amount,
		b.Currency,
		b.DueDate,
		b.Category,
		b.Status,
		msg.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
