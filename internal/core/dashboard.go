package core

import "sort"

// UpcomingLimit caps the upcoming list on the dashboard.
const UpcomingLimit = 5

// Dashboard is the at-a-glance summary for one owner.
type Dashboard struct {
	TotalCount   int
	OverdueCount int
	DueSoonCount int
	PaidCount    int
	// Upcoming holds the earliest-due unpaid bills that are not overdue,
	// ascending by due date.
	Upcoming []Bill
}

// Summarize builds the dashboard from one owner's bills. The input slice is
// not modified. Bills sharing a due date keep their input order.
func Summarize(bills []Bill, today Date) Dashboard {
	d := Dashboard{TotalCount: len(bills)}
	upcoming := make([]Bill, 0, len(bills))

	for _, b := range bills {
		switch b.ReminderState(today) {
		case ReminderOverdue:
			d.OverdueCount++
		case ReminderDueSoon:
			d.DueSoonCount++
		}
		if b.IsPaid() {
			d.PaidCount++
			continue
		}
		if !b.DueDate.Before(today) {
			upcoming = append(upcoming, b)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(upcoming[j].DueDate)
	})
	if len(upcoming) > UpcomingLimit {
		upcoming = upcoming[:UpcomingLimit]
	}
	d.Upcoming = upcoming
	return d
}
