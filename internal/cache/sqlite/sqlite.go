// Package sqlite implements a syncstore.LocalCache on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

type Cache struct {
	db *sql.DB
}

// Open creates the database file if needed and applies migrations.
func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Load reads meta and records inside one read-only transaction so a concurrent
// Save cannot interleave versions.
func (c *Cache) Load(ctx context.Context) (syncstore.Snapshot, error) {
	dbTx, err := c.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer dbTx.Rollback()

	var (
		version   int64
		syncedAt  string
		watermark string
	)

	err = dbTx.QueryRowContext(ctx, `SELECT version, synced_at, watermark FROM snapshot_meta WHERE id = 1`).
		Scan(&version, &syncedAt, &watermark)
	if errors.Is(err, sql.ErrNoRows) {
		return syncstore.Snapshot{}, syncstore.ErrCacheMiss
	}

	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("reading snapshot meta: %w", err)
	}

	synced, err := time.Parse(time.RFC3339Nano, syncedAt)
	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("%w: synced_at %q", syncstore.ErrCorrupt, syncedAt)
	}

	// empty for snapshots saved before watermarks existed
	var mark time.Time
	if watermark != "" {
		if mark, err = time.Parse(time.RFC3339Nano, watermark); err != nil {
			return syncstore.Snapshot{}, fmt.Errorf("%w: watermark %q", syncstore.ErrCorrupt, watermark)
		}
	}

	if version < 0 {
		return syncstore.Snapshot{}, fmt.Errorf("%w: negative version %d", syncstore.ErrCorrupt, version)
	}

	rows, err := dbTx.QueryContext(ctx, `
		SELECT id, amount, type, date, category_id, category_name, category_budget, category_icon, note
		FROM snapshot_records
		ORDER BY position ASC`)
	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("listing snapshot records: %w", err)
	}
	defer rows.Close()

	var records []transaction.Transaction

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return syncstore.Snapshot{}, err
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("iterating snapshot records: %w", err)
	}

	snap, err := syncstore.NewSnapshot(uint64(version), synced, records)
	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("%w: %w", syncstore.ErrCorrupt, err)
	}

	snap.Watermark = mark

	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord expects columns: id, amount, type, date, category_id, category_name,
// category_budget, category_icon, note.
func scanRecord(s scanner) (transaction.Transaction, error) {
	var id, amount, typ, date, catID, catName, catBudget, icon, note string

	if err := s.Scan(&id, &amount, &typ, &date, &catID, &catName, &catBudget, &icon, &note); err != nil {
		return transaction.Transaction{}, fmt.Errorf("scanning snapshot record: %w", err)
	}

	corrupt := func(field, value string) error {
		return fmt.Errorf("%w: record %s: bad %s %q", syncstore.ErrCorrupt, id, field, value)
	}

	var (
		tx  transaction.Transaction
		err error
	)

	if tx.ID, err = uuid.Parse(id); err != nil {
		return tx, corrupt("id", id)
	}

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return tx, corrupt("amount", amount)
	}

	if tx.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
		return tx, corrupt("date", date)
	}

	if tx.Category.ID, err = uuid.Parse(catID); err != nil {
		return tx, corrupt("category_id", catID)
	}

	if tx.Category.BudgetLimit, err = decimal.NewFromString(catBudget); err != nil {
		return tx, corrupt("category_budget", catBudget)
	}

	tx.Type = transaction.Type(typ)
	tx.Category.Name = catName
	tx.Category.Icon = icon
	tx.Note = note

	if err := tx.Validate(); err != nil {
		return tx, fmt.Errorf("%w: %w", syncstore.ErrCorrupt, err)
	}

	return tx, nil
}

// Save replaces the stored snapshot in a single SQL transaction.
func (c *Cache) Save(ctx context.Context, snap syncstore.Snapshot) error {
	dbTx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM snapshot_records`); err != nil {
		return fmt.Errorf("clearing snapshot records: %w", err)
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, version, synced_at, watermark) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			version = excluded.version,
			synced_at = excluded.synced_at,
			watermark = excluded.watermark`,
		int64(snap.Version), snap.SyncedAt.UTC().Format(time.RFC3339Nano), formatWatermark(snap.Watermark))
	if err != nil {
		return fmt.Errorf("writing snapshot meta: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO snapshot_records
			(id, position, amount, type, date, category_id, category_name, category_budget, category_icon, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range snap.Records() {
		_, err := stmt.ExecContext(ctx,
			r.ID.String(),
			i,
			r.Amount.String(),
			string(r.Type),
			r.Date.UTC().Format(time.RFC3339Nano),
			r.Category.ID.String(),
			r.Category.Name,
			r.Category.BudgetLimit.String(),
			r.Category.Icon,
			r.Note,
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	return nil
}

func formatWatermark(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}
