// Package file implements a syncstore.LocalCache backed by a single JSON document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

const formatVersion = 1

type document struct {
	Format    int         `json:"format"`
	Version   uint64      `json:"version"`
	SyncedAt  time.Time   `json:"synced_at"`
	Watermark time.Time   `json:"watermark,omitzero"`
	Records   []recordDoc `json:"records"`
}

type recordDoc struct {
	ID       uuid.UUID        `json:"id"`
	Amount   decimal.Decimal  `json:"amount"`
	Type     transaction.Type `json:"type"`
	Date     time.Time        `json:"date"`
	Category categoryDoc      `json:"category"`
	Note     string           `json:"note,omitempty"`
}

type categoryDoc struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
	Icon        string          `json:"icon,omitempty"`
}

type Cache struct {
	mu   sync.Mutex
	path string
}

func New(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{path: path}, nil
}

func (c *Cache) Load(ctx context.Context) (syncstore.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return syncstore.Snapshot{}, syncstore.ErrCacheMiss
	}

	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return syncstore.Snapshot{}, syncstore.ErrCacheMiss
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("%w: parse cache file: %w", syncstore.ErrCorrupt, err)
	}

	if doc.Format != formatVersion {
		return syncstore.Snapshot{}, fmt.Errorf("%w: unsupported format %d", syncstore.ErrCorrupt, doc.Format)
	}

	records := make([]transaction.Transaction, len(doc.Records))

	for i, r := range doc.Records {
		records[i] = transaction.Transaction{
			ID:     r.ID,
			Amount: r.Amount,
			Type:   r.Type,
			Date:   r.Date,
			Category: transaction.Category{
				ID:          r.Category.ID,
				Name:        r.Category.Name,
				BudgetLimit: r.Category.BudgetLimit,
				Icon:        r.Category.Icon,
			},
			Note: r.Note,
		}

		if err := records[i].Validate(); err != nil {
			return syncstore.Snapshot{}, fmt.Errorf("%w: record %d: %w", syncstore.ErrCorrupt, i, err)
		}
	}

	snap, err := syncstore.NewSnapshot(doc.Version, doc.SyncedAt, records)
	if err != nil {
		return syncstore.Snapshot{}, fmt.Errorf("%w: %w", syncstore.ErrCorrupt, err)
	}

	snap.Watermark = doc.Watermark

	return snap, nil
}

// Save writes the snapshot to a temp file and renames it over the cache file, so
// a crash mid-write never leaves a truncated cache behind.
func (c *Cache) Save(ctx context.Context, snap syncstore.Snapshot) error {
	doc := document{
		Format:    formatVersion,
		Version:   snap.Version,
		SyncedAt:  snap.SyncedAt,
		Watermark: snap.Watermark,
		Records:   make([]recordDoc, 0, snap.Len()),
	}

	for _, r := range snap.Records() {
		doc.Records = append(doc.Records, recordDoc{
			ID:     r.ID,
			Amount: r.Amount,
			Type:   r.Type,
			Date:   r.Date,
			Category: categoryDoc{
				ID:          r.Category.ID,
				Name:        r.Category.Name,
				BudgetLimit: r.Category.BudgetLimit,
				Icon:        r.Category.Icon,
			},
			Note: r.Note,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}
