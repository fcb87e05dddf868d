// Package statement serves a bank CSV statement on disk as a remote source.
package statement

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://coinbag.app/statement"))

type Source struct {
	path        string
	categorizer *Categorizer
}

func New(path string, categorizer *Categorizer) *Source {
	if categorizer == nil {
		categorizer = NewCategorizer(nil)
	}

	return &Source{path: path, categorizer: categorizer}
}

// Fetch always returns the whole statement as a full batch; a statement has no
// notion of change since a cursor.
func (s *Source) Fetch(ctx context.Context, _ *syncstore.Cursor) (syncstore.Batch, error) {
	if err := ctx.Err(); err != nil {
		return syncstore.Batch{}, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return syncstore.Batch{}, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return syncstore.Batch{}, fmt.Errorf("%w: parsing %s: %w", syncstore.ErrMalformed, s.path, err)
	}

	return syncstore.Batch{Records: s.toRecords(entries), IsFull: true}, nil
}

// toRecords assigns stable IDs. Identical movements on the same day are told
// apart by their occurrence index in file order.
func (s *Source) toRecords(entries []Entry) []transaction.Transaction {
	seen := make(map[string]int, len(entries))
	records := make([]transaction.Transaction, 0, len(entries))

	for _, e := range entries {
		key := entryKey(e)
		occurrence := seen[key]
		seen[key]++

		records = append(records, transaction.Transaction{
			ID:       uuid.NewSHA1(namespace, []byte(key+"|"+strconv.Itoa(occurrence))),
			Amount:   e.Amount,
			Type:     e.Type,
			Date:     e.Date,
			Category: s.categorizer.Categorize(e.Description),
			Note:     e.Description,
		})
	}

	return records
}

func entryKey(e Entry) string {
	return e.Date.Format(dateLayout) + "|" + e.Amount.StringFixed(2) + "|" + string(e.Type) + "|" + e.Description
}
