// Package ledger persists raw acquirer transactions, corrections and the
// settlement results keyed by NSU.
package ledger

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

// Monetary columns are stored as TEXT: decimal strings survive the round
// trip exactly, REAL would not.
func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS extract_batches (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			ingested_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			nsu TEXT PRIMARY KEY,
			store_id TEXT NOT NULL,
			store_name TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			channel_name TEXT NOT NULL,
			reference_instant TEXT NOT NULL,
			brand TEXT NOT NULL,
			purchase_type TEXT NOT NULL,
			installments INTEGER NOT NULL,
			gross_value TEXT NOT NULL,
			original_value TEXT NOT NULL,
			split_value TEXT NOT NULL,
			gross_per_installment TEXT NOT NULL,
			membership_id TEXT,
			admin_fee_pct TEXT NOT NULL,
			monthly_fee_pct TEXT NOT NULL,
			approval_status TEXT NOT NULL,
			payment_status TEXT,
			cancellation_date TEXT,
			scheduled_payment_date TEXT,
			batch_id TEXT NOT NULL,
			ingested_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_store ON transactions(store_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_batch ON transactions(batch_id)`,

		`CREATE TABLE IF NOT EXISTS corrections (
			nsu TEXT PRIMARY KEY,
			paid_value TEXT NOT NULL,
			paid_scheduled_date TEXT,
			supplemental_value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settlements (
			nsu TEXT PRIMARY KEY,
			store_id TEXT NOT NULL,
			store_name TEXT NOT NULL,
			mode TEXT NOT NULL,
			purchase_type TEXT NOT NULL,
			brand TEXT NOT NULL,
			plan INTEGER NOT NULL,
			reference_date DATETIME NOT NULL,
			final_value TEXT,
			cashback_value TEXT NOT NULL,
			receivable_status TEXT NOT NULL,
			classification TEXT NOT NULL,
			approval TEXT NOT NULL,
			payment_date TEXT,
			result_json TEXT NOT NULL,
			computed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_store ON settlements(store_id)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_status ON settlements(receivable_status)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_approval ON settlements(approval)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_reference ON settlements(reference_date)`,

		`CREATE TABLE IF NOT EXISTS processing_failures (
			id TEXT PRIMARY KEY,
			nsu TEXT NOT NULL,
			store_id TEXT,
			batch_id TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			detected_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_type ON processing_failures(type)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_batch ON processing_failures(batch_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
