// Package ledger reads transactions from the Postgres bank ledger.
//
// Expected schema:
//
//	categories(id uuid, name text, budget_limit numeric, icon text)
//	transactions(id uuid, amount numeric, type text, date timestamptz, note text,
//	             category_id uuid, updated_at timestamptz, deleted_at timestamptz)
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

type Source struct {
	db *sql.DB
}

func New(db *sql.DB) *Source {
	return &Source{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type row struct {
	tx        transaction.Transaction
	updatedAt time.Time
	deletedAt sql.NullTime
}

// changedAt is the row's latest change on the database clock.
func (r row) changedAt() time.Time {
	if r.deletedAt.Valid && r.deletedAt.Time.After(r.updatedAt) {
		return r.deletedAt.Time
	}

	return r.updatedAt
}

// scanRow reads a ledger row.
// Expected column order: id, amount, type, date, note, category id, name, budget_limit, icon, updated_at, deleted_at
func scanRow(s scanner) (row, error) {
	var (
		r       row
		typeStr string
		note    sql.NullString
		icon    sql.NullString
	)

	if err := s.Scan(
		&r.tx.ID, &r.tx.Amount, &typeStr, &r.tx.Date, &note,
		&r.tx.Category.ID, &r.tx.Category.Name, &r.tx.Category.BudgetLimit, &icon,
		&r.updatedAt, &r.deletedAt,
	); err != nil {
		return row{}, err
	}

	r.tx.Type = transaction.Type(typeStr)
	r.tx.Note = note.String
	r.tx.Category.Icon = icon.String
	r.tx.Date = r.tx.Date.UTC()

	return r, nil
}

const selectColumns = `
	t.id, t.amount, t.type, t.date, t.note,
	c.id, c.name, c.budget_limit, c.icon, t.updated_at, t.deleted_at
`

func buildQuery(since *syncstore.Cursor) (string, []any) {
	query := `SELECT ` + selectColumns + `
		FROM transactions t
		JOIN categories c ON t.category_id = c.id`

	if since == nil || since.Watermark.IsZero() {
		return query + ` WHERE t.deleted_at IS NULL ORDER BY t.date ASC, t.id ASC`, nil
	}

	// >= re-reads rows stamped at the watermark itself; merging them again is a no-op.
	return query + ` WHERE t.updated_at >= $1 OR t.deleted_at >= $1 ORDER BY t.date ASC, t.id ASC`,
		[]any{since.Watermark.UTC()}
}

// Fetch returns every live row when since is nil, otherwise the rows touched at or
// after since.Watermark with soft-deleted ones reported as tombstones. The batch
// watermark is the latest updated_at or deleted_at seen, so it stays on the
// database clock.
func (s *Source) Fetch(ctx context.Context, since *syncstore.Cursor) (syncstore.Batch, error) {
	query, args := buildQuery(since)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return syncstore.Batch{}, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	batch := syncstore.Batch{IsFull: len(args) == 0}
	if since != nil && !batch.IsFull {
		batch.Watermark = since.Watermark
	}

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return syncstore.Batch{}, fmt.Errorf("%w: scanning ledger row: %w", syncstore.ErrMalformed, err)
		}

		if at := r.changedAt(); at.After(batch.Watermark) {
			batch.Watermark = at.UTC()
		}

		if r.deletedAt.Valid {
			batch.Deleted = append(batch.Deleted, r.tx.ID)
			continue
		}

		batch.Records = append(batch.Records, r.tx)
	}

	if err := rows.Err(); err != nil {
		return syncstore.Batch{}, fmt.Errorf("iterating ledger rows: %w", err)
	}

	return batch, nil
}
