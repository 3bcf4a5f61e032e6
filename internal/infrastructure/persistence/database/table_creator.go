// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the database tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialSettings adds the default operator settings when missing.
func (tc *TableCreator) SeedInitialSettings(db *sql.DB) error {
	defaults := map[string]string{
		"pixel_id":              "",
		"welcome_video_embed":   "",
		"explainer_video_embed": "",
		"interlude_video_embed": "",
	}

	for key, value := range defaults {
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM settings WHERE key = ?)", key).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check for setting %s: %w", key, err)
		}
		if !exists {
			if _, err := db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
				return fmt.Errorf("failed to insert default setting %s: %w", key, err)
			}
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS user_records (id TEXT PRIMARY KEY, name TEXT NOT NULL, total_earned REAL NOT NULL DEFAULT 0, final_balance REAL NOT NULL DEFAULT 0, withdrawal_full_name TEXT, withdrawal_pix_key TEXT, withdrawal_whatsapp TEXT, allow_future_contact BOOLEAN NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS evaluations (id TEXT PRIMARY KEY, record_id TEXT NOT NULL REFERENCES user_records(id), product_id INTEGER NOT NULL, product_name TEXT NOT NULL, rating TEXT NOT NULL, feedback TEXT, earned_amount REAL NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_evaluations_record_id ON evaluations(record_id)`,
	`CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_user_records_created_at ON user_records(created_at)`,
}
