package store

import (
	"database/sql"
	"fmt"
	"time"

	"pantry-monolith/internal/core"
)

const reminderColumns = "id, household_id, title, description, due_date, repeat_days, is_done, created_at, updated_at"

func scanReminder(scan func(dest ...interface{}) error) (*core.Reminder, error) {
	reminder := &core.Reminder{}
	var description sql.NullString
	var repeatDays sql.NullInt64

	err := scan(
		&reminder.ID,
		&reminder.HouseholdID,
		&reminder.Title,
		&description,
		&reminder.DueDate,
		&repeatDays,
		&reminder.IsDone,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reminder.Description = description.String
	if repeatDays.Valid {
		days := int(repeatDays.Int64)
		reminder.RepeatDays = &days
	}
	return reminder, nil
}

// CreateReminder inserts a new reminder and returns the stored row
func (s *Store) CreateReminder(r *core.Reminder) (*core.Reminder, error) {
	var repeatDays interface{}
	if r.RepeatDays != nil {
		repeatDays = *r.RepeatDays
	}

	result, err := s.DB.Exec(
		"INSERT INTO reminders (household_id, title, description, due_date, repeat_days, is_done) VALUES (?, ?, ?, ?, ?, ?)",
		r.HouseholdID, r.Title, nullable(r.Description), r.DueDate, repeatDays, r.IsDone,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetReminderByID(id)
}

// GetReminderByID retrieves a reminder by ID
func (s *Store) GetReminderByID(id int64) (*core.Reminder, error) {
	row := s.DB.QueryRow("SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)

	reminder, err := scanReminder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("reminder not found")
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return reminder, nil
}

// GetRemindersByHousehold retrieves all reminders of a household, earliest
// due date first
func (s *Store) GetRemindersByHousehold(householdID int64) ([]*core.Reminder, error) {
	rows, err := s.DB.Query(
		"SELECT "+reminderColumns+" FROM reminders WHERE household_id = ? ORDER BY due_date ASC, id ASC",
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// GetDueReminders retrieves open reminders past their due date across all
// households, for the due-item scan
func (s *Store) GetDueReminders(now time.Time) ([]*core.Reminder, error) {
	rows, err := s.DB.Query(
		"SELECT "+reminderColumns+" FROM reminders WHERE is_done = 0 AND due_date <= ? ORDER BY household_id ASC, due_date ASC",
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func collectReminders(rows *sql.Rows) ([]*core.Reminder, error) {
	var reminders []*core.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// UpdateReminder updates a reminder's attributes
func (s *Store) UpdateReminder(id int64, title, description string, dueDate time.Time, repeatDays *int, now time.Time) error {
	var repeat interface{}
	if repeatDays != nil {
		repeat = *repeatDays
	}

	_, err := s.DB.Exec(
		"UPDATE reminders SET title = ?, description = ?, due_date = ?, repeat_days = ?, updated_at = ? WHERE id = ?",
		title, nullable(description), dueDate, repeat, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	return nil
}

// SetReminderDone flips the done flag
func (s *Store) SetReminderDone(id int64, done bool, now time.Time) error {
	_, err := s.DB.Exec(
		"UPDATE reminders SET is_done = ?, updated_at = ? WHERE id = ?",
		done, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set reminder done: %w", err)
	}

	return nil
}

// AdvanceReminderDueDate moves a recurring reminder to its next cycle
// without touching the done flag
func (s *Store) AdvanceReminderDueDate(id int64, dueDate time.Time, now time.Time) error {
	_, err := s.DB.Exec(
		"UPDATE reminders SET due_date = ?, updated_at = ? WHERE id = ?",
		dueDate, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to advance reminder due date: %w", err)
	}

	return nil
}

// DeleteReminder hard-deletes a reminder
func (s *Store) DeleteReminder(id int64) error {
	_, err := s.DB.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	return nil
}
