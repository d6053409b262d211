package http

import "billreminder/internal/core"

type billResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	DueDate       string `json:"dueDate"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	ReminderState string `json:"reminderState"`
}

func newBillResponse(b core.Bill, today core.Date) billResponse {
	return billResponse{
		ID:            b.ID,
		Title:         b.Title,
		Amount:        core.FormatAmount(b.Amount),
		Currency:      b.Currency,
		DueDate:       b.DueDate.String(),
		Category:      b.Category,
		Status:        b.Status.String(),
		ReminderState: b.ReminderState(today).String(),
	}
}

func newBillResponses(bills []core.Bill, today core.Date) []billResponse {
	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, newBillResponse(b, today))
	}
	return out
}

type dashboardResponse struct {
	Authenticated bool           `json:"authenticated"`
	TotalCount    int            `json:"totalCount"`
	OverdueCount  int            `json:"overdueCount"`
	DueSoonCount  int            `json:"dueSoonCount"`
	PaidCount     int            `json:"paidCount"`
	Upcoming      []billResponse `json:"upcoming"`
}

// anonymousDashboard is the placeholder shown before sign-in.
type anonymousDashboard struct {
	Authenticated bool `json:"authenticated"`
}

func newDashboardResponse(d core.Dashboard, today core.Date) dashboardResponse {
	return dashboardResponse{
		Authenticated: true,
		TotalCount:    d.TotalCount,
		OverdueCount:  d.OverdueCount,
		DueSoonCount:  d.DueSoonCount,
		PaidCount:     d.PaidCount,
		Upcoming:      newBillResponses(d.Upcoming, today),
	}
}

type categoryResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Paid     string `json:"paid"`
	Pending  string `json:"pending"`
}

type reportResponse struct {
	From         string             `json:"from"`
	To           string             `json:"to"`
	TotalAmount  string             `json:"totalAmount"`
	TotalPaid    string             `json:"totalPaid"`
	TotalPending string             `json:"totalPending"`
	BillCount    int                `json:"billCount"`
	Categories   []categoryResponse `json:"categories"`
}

func newReportResponse(r core.Report) reportResponse {
	cats := make([]categoryResponse, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, categoryResponse{
			Category: c.Category,
			Total:    core.FormatAmount(c.Total),
			Paid:     core.FormatAmount(c.Paid),
			Pending:  core.FormatAmount(c.Pending),
		})
	}
	return reportResponse{
		From:         r.Range.From.String(),
		To:           r.Range.To.String(),
		TotalAmount:  core.FormatAmount(r.TotalAmount),
		TotalPaid:    core.FormatAmount(r.TotalPaid),
		TotalPending: core.FormatAmount(r.TotalPending),
		BillCount:    r.BillCount,
		Categories:   cats,
	}
}
