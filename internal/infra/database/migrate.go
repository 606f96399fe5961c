package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id             UUID PRIMARY KEY,
		email          TEXT NOT NULL UNIQUE,
		name           TEXT,
		phone          TEXT,
		quiz_responses JSONB NOT NULL DEFAULT '{}'::jsonb,
		fbp            TEXT,
		fbc            TEXT,
		user_agent     TEXT,
		ip_address     TEXT,
		event_id       TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id                     UUID PRIMARY KEY,
		email                  TEXT NOT NULL,
		hotmart_transaction_id TEXT NOT NULL UNIQUE,
		hotmart_order_date     TIMESTAMPTZ,
		hotmart_approved_date  TIMESTAMPTZ,
		product_id             TEXT,
		product_name           TEXT,
		value                  NUMERIC(12, 2) NOT NULL CHECK (value >= 0),
		currency               TEXT NOT NULL DEFAULT 'BRL',
		buyer_name             TEXT,
		buyer_phone            TEXT,
		buyer_document         TEXT,
		buyer_address          JSONB,
		payment_type           TEXT,
		payment_installments   INTEGER NOT NULL DEFAULT 1,
		hotmart_status         TEXT,
		hotmart_data           JSONB NOT NULL,
		meta_event_id          TEXT,
		meta_sent              BOOLEAN NOT NULL DEFAULT FALSE,
		meta_sent_at           TIMESTAMPTZ,
		meta_attempts          INTEGER NOT NULL DEFAULT 0,
		meta_last_error        TEXT,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT purchases_meta_sent_requires_event CHECK (NOT meta_sent OR meta_event_id IS NOT NULL)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_email ON purchases (email)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_unattributed ON purchases (updated_at) WHERE meta_sent = FALSE`,
}

// Migrate cria as tabelas do funil se ainda não existirem.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	return nil
}
