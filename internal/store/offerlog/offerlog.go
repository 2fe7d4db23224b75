// Package offerlog records offer state changes in SQLite.
package offerlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tf2automatic/internal/offer"
	"tf2automatic/internal/store"
	"tf2automatic/internal/store/model"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

var _ store.OfferLog = (*DB)(nil)

// Open opens or creates the offer log at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open offer log: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate offer log: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS offers (
		id TEXT PRIMARY KEY,
		partner TEXT NOT NULL,
		state INTEGER NOT NULL,
		ours INTEGER NOT NULL,
		handled_by_us INTEGER NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_offers_partner_state ON offers(partner, state);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordOffer upserts rec. created_at is kept from the first write.
func (db *DB) RecordOffer(ctx context.Context, rec model.OfferRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("offer log: record has no id")
	}
	now := db.now().UnixMilli()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO offers (id, partner, state, ours, handled_by_us, summary, created_at, updated_at)
		VALUES (:id, :partner, :state, :ours, :handled_by_us, :summary, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			handled_by_us = excluded.handled_by_us,
			summary = CASE WHEN excluded.summary = '' THEN offers.summary ELSE excluded.summary END,
			updated_at = excluded.updated_at`, rec)
	return err
}

func (db *DB) GetOffer(ctx context.Context, id string) (*model.OfferRecord, error) {
	var rec model.OfferRecord
	err := db.conn.GetContext(ctx, &rec, `SELECT * FROM offers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (db *DB) ActiveOffer(ctx context.Context, partner string) (string, bool, error) {
	var id string
	err := db.conn.GetContext(ctx, &id, `
		SELECT id FROM offers
		WHERE partner = ? AND state = ? AND ours = 1
		ORDER BY updated_at DESC LIMIT 1`, partner, int(offer.StateActive))
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
