package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategorySummary is the per-category slice of a report.
type CategorySummary struct {
	Category string
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Pending  decimal.Decimal
}

// Report aggregates one owner's spending over a date range. Amounts are
// summed across currencies without conversion.
type Report struct {
	Range        DateRange
	TotalAmount  decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalPending decimal.Decimal
	BillCount    int
	// Categories is ordered by Total descending; ties keep first appearance.
	Categories []CategorySummary
}

// Aggregate builds the report for bills whose due date lies in rng. A range
// with From after To selects nothing.
func Aggregate(bills []Bill, rng DateRange) Report {
	r := Report{
		Range:        rng,
		TotalAmount:  decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
		Categories:   []CategorySummary{},
	}

	index := make(map[string]int)
	for _, b := range bills {
		if !rng.Contains(b.DueDate) {
			continue
		}
		r.BillCount++
		r.TotalAmount = r.TotalAmount.Add(b.Amount)

		i, ok := index[b.Category]
		if !ok {
			i = len(r.Categories)
			index[b.Category] = i
			r.Categories = append(r.Categories, CategorySummary{
				Category: b.Category,
				Total:    decimal.Zero,
				Paid:     decimal.Zero,
				Pending:  decimal.Zero,
			})
		}
		c := &r.Categories[i]
		c.Total = c.Total.Add(b.Amount)

		if b.IsPaid() {
			r.TotalPaid = r.TotalPaid.Add(b.Amount)
			c.Paid = c.Paid.Add(b.Amount)
		} else {
			r.TotalPending = r.TotalPending.Add(b.Amount)
			c.Pending = c.Pending.Add(b.Amount)
		}
	}

	sort.SliceStable(r.Categories, func(i, j int) bool {
		return r.Categories[i].Total.GreaterThan(r.Categories[j].Total)
	})
	return r
}
