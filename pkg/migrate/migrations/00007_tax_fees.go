package migrations

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upTaxFees, downTaxFees)
}

// Fees replace the single storePpn tax setting. The old percentage moves into
// a default tax Fee named PPN and the setting is removed.
func upTaxFees(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fees (
		    id INTEGER PRIMARY KEY AUTOINCREMENT,
		    remote_id TEXT,
		    name TEXT NOT NULL,
		    type TEXT NOT NULL,
		    value REAL NOT NULL,
		    is_default INTEGER NOT NULL DEFAULT 0,
		    is_tax INTEGER NOT NULL DEFAULT 0,
		    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transaction_fees (
		    id INTEGER PRIMARY KEY AUTOINCREMENT,
		    transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		    fee_id INTEGER NOT NULL,
		    name TEXT NOT NULL,
		    type TEXT NOT NULL,
		    value REAL NOT NULL,
		    amount INTEGER NOT NULL
		)
	`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS ix_transaction_fees_transaction_id ON transaction_fees(transaction_id)
	`); err != nil {
		return err
	}

	var raw string
	err := tx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'storePpn'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if value, parseErr := strconv.ParseFloat(strings.TrimSpace(raw), 64); parseErr == nil && value > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fees (name, type, value, is_default, is_tax)
			VALUES ('PPN', 'percentage', ?, 1, 1)
		`, value); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM settings WHERE key = 'storePpn'`)
	return err
}

func downTaxFees(ctx context.Context, tx *sql.Tx) error {
	var value float64
	err := tx.QueryRowContext(ctx,
		`SELECT value FROM fees WHERE name = 'PPN' AND is_tax = 1 LIMIT 1`,
	).Scan(&value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO settings (key, value) VALUES ('storePpn', ?)
		`, strconv.FormatFloat(value, 'f', -1, 64)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS transaction_fees`); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS fees`)
	return err
}
