package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/portfolio"
)

// Reporter is satisfied by *portfolio.Service.
type Reporter interface {
	Overview(ctx context.Context) (portfolio.Overview, error)
}

type Handler struct {
	reporter Reporter
}

func NewHandler(reporter Reporter) *Handler {
	return &Handler{reporter: reporter}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.overview)
}

type holdingResponse struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
}

type accountResponse struct {
	Type        string          `json:"type"`
	Institution string          `json:"institution"`
	Balance     decimal.Decimal `json:"balance"`
}

type overviewResponse struct {
	Holdings    []holdingResponse `json:"holdings"`
	Performance decimal.Decimal   `json:"performance"`
	TotalValue  decimal.Decimal   `json:"total_value"`
	Accounts    []accountResponse `json:"accounts"`
	NetWorth    decimal.Decimal   `json:"net_worth"`
	AsOf        time.Time         `json:"as_of"`
	FetchedAt   time.Time         `json:"fetched_at"`
	Stale       bool              `json:"stale"`
	Error       string            `json:"error,omitempty"`
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.reporter.Overview(r.Context())
	if errors.Is(err, portfolio.ErrNoOverview) {
		writeJSON(w, statusFor(err), overviewResponse{Error: err.Error()})
		return
	}

	resp := overviewResponse{
		Holdings:    make([]holdingResponse, 0, len(o.Portfolio.Holdings)),
		Performance: o.Portfolio.Performance,
		TotalValue:  o.Portfolio.TotalValue(),
		Accounts:    make([]accountResponse, 0, len(o.Accounts)),
		NetWorth:    o.NetWorth(),
		AsOf:        o.Portfolio.AsOf,
		FetchedAt:   o.FetchedAt,
		Stale:       o.Stale,
	}

	for _, hd := range o.Portfolio.Holdings {
		resp.Holdings = append(resp.Holdings, holdingResponse{
			Symbol:   hd.Symbol,
			Quantity: hd.Quantity,
			Price:    hd.Price,
			Value:    hd.Value(),
		})
	}

	for _, a := range o.Accounts {
		resp.Accounts = append(resp.Accounts, accountResponse{
			Type:        string(a.Type),
			Institution: a.Institution,
			Balance:     a.Balance,
		})
	}

	if err != nil {
		resp.Error = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
