package store

import (
	"fmt"

	"pantry-monolith/internal/core"
)

// AppendDispatchLog records a delivered product notification
func (s *Store) AppendDispatchLog(entry *core.DispatchLogEntry) error {
	_, err := s.DB.Exec(
		"INSERT INTO reminder_log (run_id, product_id, message) VALUES (?, ?, ?)",
		entry.RunID, entry.ProductID, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to append dispatch log: %w", err)
	}

	return nil
}
