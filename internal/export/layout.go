// Package export turns an aggregated report into a fixed document layout and
// renders that layout as PDF.
package export

import (
	"fmt"
	"time"

	"billreminder/internal/core"
)

const (
	ContentType = "application/pdf"

	Title          = "Bill Reminder System – Spending Report"
	CategoryHeader = "By Category"

	filenameLayout  = "20060102150405"
	generatedLayout = "2006-01-02 15:04"
)

// Line is a labeled summary value.
type Line struct {
	Label string
	Value string
}

// Layout is the structured, renderer-independent description of a report
// document. Elements appear in field order.
type Layout struct {
	Title        string
	DateRange    string
	Summary      []Line
	SectionTitle string
	Columns      []string
	Rows         [][]string
	Footer       string
}

// BuildLayout describes the document for report. Category rows keep the
// report's order. generatedAt only affects the footer.
func BuildLayout(report core.Report, generatedAt time.Time) Layout {
	rows := make([][]string, 0, len(report.Categories))
	for _, c := range report.Categories {
		rows = append(rows, []string{
			c.Category,
			core.FormatAmount(c.Total),
			core.FormatAmount(c.Paid),
			core.FormatAmount(c.Pending),
		})
	}

	return Layout{
		Title:     Title,
		DateRange: fmt.Sprintf("Date range: %s to %s", report.Range.From, report.Range.To),
		Summary: []Line{
			{Label: "Total Amount", Value: core.FormatAmount(report.TotalAmount)},
			{Label: "Total Paid", Value: core.FormatAmount(report.TotalPaid)},
			{Label: "Total Pending", Value: core.FormatAmount(report.TotalPending)},
		},
		SectionTitle: CategoryHeader,
		Columns:      []string{"Category", "Total", "Paid", "Pending"},
		Rows:         rows,
		Footer:       "Generated on " + generatedAt.Format(generatedLayout),
	}
}

// Filename is the download name for a report generated at t.
func Filename(t time.Time) string {
	return "SpendingReport_" + t.Format(filenameLayout) + ".pdf"
}
