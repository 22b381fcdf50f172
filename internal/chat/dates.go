package chat

import "time"

// parseTaskDate parses a due-date token in one of the accepted forms:
// 2025-02-15, 15-02-2025 or 15/02. The year-less form resolves to the
// current year, rolling to next year once that date has already passed.
func parseTaskDate(token string, now time.Time) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", token); err == nil {
		return t, true
	}
	if t, err := time.Parse("02-01-2006", token); err == nil {
		return t, true
	}
	if t, err := time.Parse("02/01", token); err == nil {
		due := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if due.Before(today) {
			due = due.AddDate(1, 0, 0)
		}
		return due, true
	}
	return time.Time{}, false
}
