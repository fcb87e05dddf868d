package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

// Refresher is the part of *syncstore.Store the consumer drives.
type Refresher interface {
	Refresh(ctx context.Context, mode syncstore.Mode) (syncstore.Result, error)
}

// Acknowledger is satisfied by amqp091.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type RefreshHandler struct {
	store  Refresher
	logger *slog.Logger
}

func NewRefreshHandler(store Refresher, logger *slog.Logger) *RefreshHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RefreshHandler{store: store, logger: logger.With("component", "notify")}
}

// Handle runs one refresh request. Malformed requests are dropped. A failed
// refresh is acknowledged as well: the store keeps serving the stale snapshot and
// the next request or poll retries.
func (h *RefreshHandler) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	req, err := RefreshRequestFromJSON(body)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal refresh request", "error", err)
		h.settle(ctx, "nack", ack.Nack(false, false))

		return
	}

	mode, err := syncstore.ParseMode(req.Mode)
	if err != nil {
		h.logger.ErrorContext(ctx, "invalid refresh request", "mode", req.Mode, "error", err)
		h.settle(ctx, "nack", ack.Nack(false, false))

		return
	}

	res, err := h.store.Refresh(ctx, mode)

	switch {
	case errors.Is(err, syncstore.ErrStoreTornDown):
		h.logger.InfoContext(ctx, "store closed, requeueing refresh request")
		h.settle(ctx, "requeue", ack.Nack(false, true))

		return
	case err != nil:
		h.logger.WarnContext(ctx, "requested refresh failed", "mode", mode, "version", res.Snapshot.Version, "error", err)
	default:
		h.logger.InfoContext(ctx, "requested refresh done", "mode", mode, "version", res.Snapshot.Version)
	}

	h.settle(ctx, "ack", ack.Ack(false))
}

// settle logs a failed ack or nack. The broker redelivers unsettled messages once
// the channel closes, so there is nothing else to do.
func (h *RefreshHandler) settle(ctx context.Context, action string, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to settle refresh request", "action", action, "error", err)
	}
}
