package core

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectRoundTrip(t *testing.T) {
	restock := day(2025, time.January, 1)
	p := &Product{
		DaysUntilEmpty:   7,
		RemindDaysBefore: 2,
		LastRestockedAt:  restock,
		Status:           StatusStocked,
		IsActive:         true,
	}

	timing := Project(p, restock)
	if want := day(2025, time.January, 8); !timing.RunsOutAt.Equal(want) {
		t.Fatalf("runs out at %v, want %v", timing.RunsOutAt, want)
	}
	if want := day(2025, time.January, 6); !timing.RemindAt.Equal(want) {
		t.Fatalf("remind at %v, want %v", timing.RemindAt, want)
	}
	if timing.DaysRemaining != 7 {
		t.Fatalf("days remaining at restock = %d, want 7", timing.DaysRemaining)
	}
}

func TestProjectDailyDecrement(t *testing.T) {
	restock := day(2025, time.January, 1)
	p := &Product{DaysUntilEmpty: 7, RemindDaysBefore: 2, LastRestockedAt: restock, Status: StatusStocked, IsActive: true}

	for i := 0; i <= 7; i++ {
		now := restock.AddDate(0, 0, i)
		got := Project(p, now).DaysRemaining
		if got != 7-i {
			t.Fatalf("day %d: days remaining = %d, want %d", i, got, 7-i)
		}
	}
}

func TestProjectMilkScenario(t *testing.T) {
	// Restocked new year's day, evaluated the evening of the 6th: one whole
	// day left, inside the two-day remind window.
	p := &Product{
		Name:             "Milk",
		DaysUntilEmpty:   7,
		RemindDaysBefore: 2,
		LastRestockedAt:  day(2025, time.January, 1),
		Status:           StatusStocked,
		IsRecurring:      true,
		IsActive:         true,
	}
	now := time.Date(2025, time.January, 6, 18, 0, 0, 0, time.UTC)

	timing := Project(p, now)
	if timing.DaysRemaining != 1 {
		t.Fatalf("days remaining = %d, want 1", timing.DaysRemaining)
	}
	if got := UrgencyOf(p, timing); got != UrgencyUrgent {
		t.Fatalf("urgency = %s, want %s", got, UrgencyUrgent)
	}
	if !DueForReminder(p, now) {
		t.Fatal("expected product to be due for a reminder")
	}
}

func TestProjectOverdue(t *testing.T) {
	restock := day(2025, time.January, 1)
	p := &Product{DaysUntilEmpty: 7, RemindDaysBefore: 2, LastRestockedAt: restock, Status: StatusStocked, IsActive: true}

	now := restock.AddDate(0, 0, 9)
	timing := Project(p, now)
	if timing.DaysRemaining != -2 {
		t.Fatalf("days remaining = %d, want -2", timing.DaysRemaining)
	}
	if got := UrgencyOf(p, timing); got != UrgencyOverdue {
		t.Fatalf("urgency = %s, want %s", got, UrgencyOverdue)
	}
}

func TestProjectResetsOnRestock(t *testing.T) {
	p := &Product{DaysUntilEmpty: 7, RemindDaysBefore: 2, LastRestockedAt: day(2025, time.January, 1), Status: StatusStocked, IsActive: true}

	now := day(2025, time.January, 10)
	if got := Project(p, now).DaysRemaining; got >= 0 {
		t.Fatalf("days remaining before restock = %d, want negative", got)
	}

	p.LastRestockedAt = now
	if got := Project(p, now).DaysRemaining; got != 7 {
		t.Fatalf("days remaining after restock = %d, want 7", got)
	}
}

func TestDueForReminderStatusGating(t *testing.T) {
	restock := day(2025, time.January, 1)
	now := restock.AddDate(0, 0, 6)

	cases := []struct {
		name    string
		status  ProductStatus
		active  bool
		wantDue bool
	}{
		{"stocked", StatusStocked, true, true},
		{"on list", StatusOnList, true, false},
		{"already reminded", StatusReminded, true, false},
		{"inactive", StatusStocked, false, false},
	}

	for _, tc := range cases {
		p := &Product{DaysUntilEmpty: 7, RemindDaysBefore: 2, LastRestockedAt: restock, Status: tc.status, IsActive: tc.active}
		if got := DueForReminder(p, now); got != tc.wantDue {
			t.Errorf("%s: due = %v, want %v", tc.name, got, tc.wantDue)
		}
	}
}

func TestOverdueOnComparesDatesOnly(t *testing.T) {
	now := time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC)

	dueLaterToday := time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC)
	if OverdueOn(dueLaterToday, now) {
		t.Fatal("a reminder due today should not be overdue yet")
	}

	dueEarlierToday := time.Date(2025, time.March, 10, 0, 30, 0, 0, time.UTC)
	if OverdueOn(dueEarlierToday, now) {
		t.Fatal("same-day due reminders are never overdue")
	}

	dueYesterday := time.Date(2025, time.March, 9, 23, 59, 0, 0, time.UTC)
	if !OverdueOn(dueYesterday, now) {
		t.Fatal("a reminder due yesterday should be overdue")
	}
}
