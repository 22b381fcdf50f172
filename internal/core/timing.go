package core

import "time"

// Timing holds the derived temporal fields for a product at a given instant.
// It is never stored; web, chat and the due scan all derive it here so the
// countdown can't disagree between surfaces.
type Timing struct {
	RunsOutAt     time.Time
	RemindAt      time.Time
	DaysRemaining int
}

// Project computes a product's timing relative to now.
//
// DaysRemaining is whole days from now until RunsOutAt, truncated toward
// zero, so it equals DaysUntilEmpty at the restock instant and goes negative
// once the product is overdue.
func Project(p *Product, now time.Time) Timing {
	runsOut := p.LastRestockedAt.AddDate(0, 0, p.DaysUntilEmpty)
	remindAt := runsOut.AddDate(0, 0, -p.RemindDaysBefore)
	days := int(runsOut.Sub(now).Hours() / 24)
	return Timing{
		RunsOutAt:     runsOut,
		RemindAt:      remindAt,
		DaysRemaining: days,
	}
}

// Urgency classifies a product's countdown for list views.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyOK      Urgency = "ok"
)

// UrgencyOf maps a timing onto the three-tier scale used by the overview.
func UrgencyOf(p *Product, t Timing) Urgency {
	switch {
	case t.DaysRemaining <= 0:
		return UrgencyOverdue
	case t.DaysRemaining <= p.RemindDaysBefore:
		return UrgencyUrgent
	default:
		return UrgencyOK
	}
}

// DueForReminder reports whether the scan should pick the product up:
// still stocked and past its remind moment.
func DueForReminder(p *Product, now time.Time) bool {
	if !p.IsActive || p.Status != StatusStocked {
		return false
	}
	return !Project(p, now).RemindAt.After(now)
}

// OverdueOn compares only the calendar-date portions, so a reminder due
// today is not overdue until tomorrow regardless of time of day. Product
// timing deliberately does not share this truncation.
func OverdueOn(dueDate, now time.Time) bool {
	dy, dm, dd := dueDate.Date()
	ny, nm, nd := now.Date()
	due := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// ProductWithTiming pairs a product with its projection, mirroring the
// ordering key the listings sort on.
type ProductWithTiming struct {
	Product *Product
	Timing  Timing
}
