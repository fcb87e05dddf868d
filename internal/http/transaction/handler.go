package transaction

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

// SnapshotReader is satisfied by *syncstore.Store.
type SnapshotReader interface {
	CurrentSnapshot() syncstore.Snapshot
}

type Handler struct {
	store SnapshotReader
}

func NewHandler(store SnapshotReader) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type listFilter struct {
	category  string
	startDate *time.Time
	endDate   *time.Time
}

func (f listFilter) match(tx transaction.Transaction) bool {
	if f.category != "" && !strings.EqualFold(tx.Category.Name, f.category) && tx.Category.ID.String() != f.category {
		return false
	}

	if f.startDate != nil && tx.Date.Before(*f.startDate) {
		return false
	}

	// end_date is inclusive of the whole day
	if f.endDate != nil && !tx.Date.Before(f.endDate.AddDate(0, 0, 1)) {
		return false
	}

	return true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := listFilter{category: r.URL.Query().Get("category")}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			http.Error(w, "invalid start_date", http.StatusBadRequest)
			return
		}

		filter.startDate = new(t)
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			http.Error(w, "invalid end_date", http.StatusBadRequest)
			return
		}

		filter.endDate = new(t)
	}

	snap := h.store.CurrentSnapshot()

	var txs []transaction.Transaction

	for _, tx := range snap.Records() {
		if filter.match(tx) {
			txs = append(txs, tx)
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toListResponse(snap, txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	tx, ok := h.store.CurrentSnapshot().Get(id)
	if !ok {
		http.Error(w, transaction.ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
