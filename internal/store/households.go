package store

import (
	"database/sql"
	"fmt"

	"pantry-monolith/internal/core"
)

// CreateHousehold creates a new household
func (s *Store) CreateHousehold(name, inviteCode, language string) (*core.Household, error) {
	result, err := s.DB.Exec(
		"INSERT INTO households (name, invite_code, language) VALUES (?, ?, ?)",
		name, inviteCode, language,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetHouseholdByID(id)
}

func scanHousehold(row *sql.Row) (*core.Household, error) {
	household := &core.Household{}
	var chatID sql.NullString
	var language sql.NullString

	err := row.Scan(&household.ID, &household.Name, &household.InviteCode, &chatID, &language, &household.CreatedAt)
	if err != nil {
		return nil, err
	}

	if chatID.Valid {
		household.TelegramChatID = &chatID.String
	}
	household.Language = "en"
	if language.Valid && language.String != "" {
		household.Language = language.String
	}

	return household, nil
}

const householdColumns = "id, name, invite_code, telegram_chat_id, language, created_at"

// GetHouseholdByID retrieves a household by ID
func (s *Store) GetHouseholdByID(id int64) (*core.Household, error) {
	household, err := scanHousehold(s.DB.QueryRow(
		"SELECT "+householdColumns+" FROM households WHERE id = ?", id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("household not found")
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return household, nil
}

// GetHouseholdByInviteCode retrieves a household by invite code
func (s *Store) GetHouseholdByInviteCode(inviteCode string) (*core.Household, error) {
	household, err := scanHousehold(s.DB.QueryRow(
		"SELECT "+householdColumns+" FROM households WHERE invite_code = ?", inviteCode,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid invite code")
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return household, nil
}

// GetHouseholdByChatID retrieves the household linked to a Telegram chat
func (s *Store) GetHouseholdByChatID(chatID string) (*core.Household, error) {
	household, err := scanHousehold(s.DB.QueryRow(
		"SELECT "+householdColumns+" FROM households WHERE telegram_chat_id = ?", chatID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no household linked to this chat")
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return household, nil
}

// GetHouseholdsByUserID retrieves all households a user is a member of
func (s *Store) GetHouseholdsByUserID(userID int64) ([]*core.Household, error) {
	rows, err := s.DB.Query(
		`SELECT h.id, h.name, h.invite_code, h.telegram_chat_id, h.language, h.created_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = ?
		ORDER BY m.joined_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query households: %w", err)
	}
	defer rows.Close()

	var households []*core.Household
	for rows.Next() {
		household := &core.Household{}
		var chatID sql.NullString
		var language sql.NullString

		if err := rows.Scan(&household.ID, &household.Name, &household.InviteCode, &chatID, &language, &household.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}

		if chatID.Valid {
			household.TelegramChatID = &chatID.String
		}
		household.Language = "en"
		if language.Valid && language.String != "" {
			household.Language = language.String
		}

		households = append(households, household)
	}

	return households, nil
}

// UpdateHousehold updates a household's settings. A nil chat id unlinks the
// household from its notification channel.
func (s *Store) UpdateHousehold(id int64, name string, telegramChatID *string, language string) error {
	var chatID interface{}
	if telegramChatID != nil {
		chatID = *telegramChatID
	}

	_, err := s.DB.Exec(
		"UPDATE households SET name = ?, telegram_chat_id = ?, language = ? WHERE id = ?",
		name, chatID, language, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}

	return nil
}

// AddUserToHousehold adds a user to a household
func (s *Store) AddUserToHousehold(userID, householdID int64) error {
	_, err := s.DB.Exec(
		"INSERT INTO household_members (user_id, household_id) VALUES (?, ?)",
		userID, householdID,
	)
	if err != nil {
		return fmt.Errorf("failed to add user to household: %w", err)
	}

	return nil
}

// IsUserInHousehold checks whether a user is a member of a household
func (s *Store) IsUserInHousehold(userID, householdID int64) (bool, error) {
	var count int
	err := s.DB.QueryRow(
		"SELECT COUNT(*) FROM household_members WHERE user_id = ? AND household_id = ?",
		userID, householdID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return count > 0, nil
}
