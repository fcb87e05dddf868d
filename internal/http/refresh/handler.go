package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

// Syncer is satisfied by *syncstore.Store.
type Syncer interface {
	Refresh(ctx context.Context, mode syncstore.Mode) (syncstore.Result, error)
	Status() syncstore.Status
}

type Handler struct {
	store Syncer
}

func NewHandler(store Syncer) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.refresh)
	r.Get("/status", h.status)
}

type refreshResponse struct {
	Version  uint64    `json:"version"`
	SyncedAt time.Time `json:"synced_at"`
	Records  int       `json:"records"`
	Stale    bool      `json:"stale"`
	Error    string    `json:"error,omitempty"`
	Kind     string    `json:"kind,omitempty"`
}

type statusResponse struct {
	State         string     `json:"state"`
	Version       uint64     `json:"version"`
	SyncedAt      time.Time  `json:"synced_at"`
	Records       int        `json:"records"`
	LastError     string     `json:"last_error,omitempty"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	LastSaveError string     `json:"last_save_error,omitempty"`
	Closed        bool       `json:"closed"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	mode, err := syncstore.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.store.Refresh(r.Context(), mode)

	resp := refreshResponse{
		Version:  res.Snapshot.Version,
		SyncedAt: res.Snapshot.SyncedAt,
		Records:  res.Snapshot.Len(),
		Stale:    res.Stale,
	}

	status := http.StatusOK

	if err != nil {
		resp.Error = err.Error()
		status = statusFor(err)

		if kind, ok := syncstore.KindOf(err); ok {
			resp.Kind = kind.String()
		}
	}

	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, syncstore.ErrStoreTornDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	st := h.store.Status()

	resp := statusResponse{
		State:    st.State.String(),
		Version:  st.Version,
		SyncedAt: st.SyncedAt,
		Records:  st.Records,
		Closed:   st.Closed,
	}

	if st.LastError != nil {
		resp.LastError = st.LastError.Error()
	}

	if !st.LastFailureAt.IsZero() {
		resp.LastFailureAt = new(st.LastFailureAt)
	}

	if st.LastSaveError != nil {
		resp.LastSaveError = st.LastSaveError.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
