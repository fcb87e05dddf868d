package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/insights"
)

// Reporter is satisfied by *insights.Service.
type Reporter interface {
	Overspending(period insights.Period) insights.OverspendingReport
	Dashboard(period insights.Period) insights.Dashboard
}

type Handler struct {
	reports Reporter
	now     func() time.Time
}

func NewHandler(reports Reporter) *Handler {
	return &Handler{reports: reports, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/overspending", h.overspending)
	r.Get("/overspending/chart.png", h.chart)
	r.Get("/dashboard", h.dashboard)
}

type periodResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type categorySpendingResponse struct {
	CategoryID  uuid.UUID       `json:"category_id"`
	Name        string          `json:"name"`
	Icon        string          `json:"icon,omitempty"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
	Spent       decimal.Decimal `json:"spent"`
	Overspent   decimal.Decimal `json:"overspent"`
	Count       int             `json:"count"`
}

type overspendingResponse struct {
	Version    uint64                     `json:"version"`
	Period     periodResponse             `json:"period"`
	Categories []categorySpendingResponse `json:"categories"`
}

type dashboardResponse struct {
	Version       uint64                     `json:"version"`
	Period        periodResponse             `json:"period"`
	Income        decimal.Decimal            `json:"income"`
	Expense       decimal.Decimal            `json:"expense"`
	Net           decimal.Decimal            `json:"net"`
	Count         int                        `json:"count"`
	TopCategories []categorySpendingResponse `json:"top_categories"`
}

func toCategories(in []insights.CategorySpending) []categorySpendingResponse {
	out := make([]categorySpendingResponse, len(in))

	for i, c := range in {
		out[i] = categorySpendingResponse{
			CategoryID:  c.Category.ID,
			Name:        c.Category.Name,
			Icon:        c.Category.Icon,
			BudgetLimit: c.Category.BudgetLimit,
			Spent:       c.Spent,
			Overspent:   c.Overspent,
			Count:       c.Count,
		}
	}

	return out
}

// period reads ?month=YYYY-MM, defaulting to the current UTC month.
func (h *Handler) period(r *http.Request) (insights.Period, error) {
	if s := r.URL.Query().Get("month"); s != "" {
		return insights.ParseMonth(s)
	}

	return insights.Month(h.now().UTC()), nil
}

func (h *Handler) overspending(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report := h.reports.Overspending(p)

	writeJSON(w, overspendingResponse{
		Version:    report.Version,
		Period:     periodResponse{Start: p.Start, End: p.End},
		Categories: toCategories(report.Categories),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d := h.reports.Dashboard(p)

	writeJSON(w, dashboardResponse{
		Version:       d.Version,
		Period:        periodResponse{Start: p.Start, End: p.End},
		Income:        d.Income,
		Expense:       d.Expense,
		Net:           d.Net,
		Count:         d.Count,
		TopCategories: toCategories(d.TopCategories),
	})
}

func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer

	if err := insights.RenderSpendingChart(&buf, h.reports.Overspending(p)); err != nil {
		if errors.Is(err, insights.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		slog.Error("failed to render chart", "period", p.String(), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
