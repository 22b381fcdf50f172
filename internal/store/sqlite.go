package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the database connection
type Store struct {
	DB *sql.DB
}

// NewStore creates a new Store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{DB: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates all necessary tables
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS households (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		invite_code TEXT UNIQUE NOT NULL,
		telegram_chat_id TEXT,
		language TEXT DEFAULT 'en',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS household_members (
		user_id INTEGER,
		household_id INTEGER,
		joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, household_id),
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		household_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		days_until_empty INTEGER NOT NULL,
		remind_days_before INTEGER NOT NULL DEFAULT 2,
		last_restocked_at DATETIME NOT NULL,
		status TEXT CHECK(status IN ('stocked', 'on_list', 'reminded', 'bought')) NOT NULL DEFAULT 'stocked',
		is_recurring BOOLEAN DEFAULT 1,
		shop_url TEXT,
		is_active BOOLEAN DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		household_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		due_date DATETIME NOT NULL,
		repeat_days INTEGER,
		is_done BOOLEAN DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(household_id) REFERENCES households(id)
	);

	CREATE TABLE IF NOT EXISTS reminder_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(product_id) REFERENCES products(id)
	);
	`

	_, err := s.DB.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	// Run migrations for existing databases
	if err := s.migrateShopURL(); err != nil {
		return fmt.Errorf("failed to migrate shop_url column: %w", err)
	}

	if err := s.migrateHouseholdLanguage(); err != nil {
		return fmt.Errorf("failed to migrate household language column: %w", err)
	}

	if err := s.migrateIndexes(); err != nil {
		return fmt.Errorf("failed to migrate indexes: %w", err)
	}

	return nil
}

// migrateShopURL adds the shop_url column to products if it doesn't exist
func (s *Store) migrateShopURL() error {
	_, err := s.DB.Exec(`ALTER TABLE products ADD COLUMN shop_url TEXT`)
	if err != nil && err.Error() != "duplicate column name: shop_url" {
		return err
	}
	return nil
}

// migrateHouseholdLanguage adds the language column to households if it doesn't exist
func (s *Store) migrateHouseholdLanguage() error {
	_, err := s.DB.Exec(`ALTER TABLE households ADD COLUMN language TEXT DEFAULT 'en'`)
	if err != nil && err.Error() != "duplicate column name: language" {
		return err
	}
	return nil
}

// migrateIndexes creates indexes for the due-item scan queries
func (s *Store) migrateIndexes() error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_products_active_stocked
		 ON products(household_id, status)
		 WHERE is_active = 1;`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due_pending
		 ON reminders(due_date)
		 WHERE is_done = 0;`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.DB.Close()
}
