package store

import (
	"database/sql"
	"fmt"

	"pantry-monolith/internal/core"
)

// CreateUser creates a new user
func (s *Store) CreateUser(username string) (*core.User, error) {
	result, err := s.DB.Exec(
		"INSERT INTO users (username) VALUES (?)",
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetUserByID(id)
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(id int64) (*core.User, error) {
	user := &core.User{}

	err := s.DB.QueryRow(
		"SELECT id, username, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(username string) (*core.User, error) {
	user := &core.User{}

	err := s.DB.QueryRow(
		"SELECT id, username, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
