// Package bankapi fetches transactions from a bank aggregation HTTP API.
package bankapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

const (
	maxErrorBody = 512
	maxBody      = 32 << 20
)

// ErrUnavailable marks responses worth retrying later (5xx, 429).
var ErrUnavailable = errors.New("bank api unavailable")

type categoryPayload struct {
	ID          string          `json:"id"           validate:"required,uuid"`
	Name        string          `json:"name"         validate:"required"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
	Icon        string          `json:"icon"`
}

type transactionPayload struct {
	ID       string          `json:"id"     validate:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"   validate:"required,oneof=income expense"`
	Date     time.Time       `json:"date"`
	Category categoryPayload `json:"category"`
	Note     string          `json:"note"`
}

type pagePayload struct {
	Full bool `json:"full"`
	// Watermark is the server-side time the page is current up to.
	Watermark    time.Time            `json:"watermark"`
	Transactions []transactionPayload `json:"transactions" validate:"dive"`
	Deleted      []string             `json:"deleted"      validate:"dive,uuid"`
}

type Source struct {
	base     *url.URL
	token    string
	client   *http.Client
	validate *validator.Validate
}

// New builds a source for baseURL. A zero timeout leaves the client without one.
func New(baseURL, token string, timeout time.Duration) (*Source, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing bank api url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bank api url must be http(s), got %q", baseURL)
	}

	return &Source{
		base:     u,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *Source) Fetch(ctx context.Context, since *syncstore.Cursor) (syncstore.Batch, error) {
	q := url.Values{}

	if since != nil && !since.Watermark.IsZero() {
		q.Set("since", since.Watermark.UTC().Format(time.RFC3339Nano))
		q.Set("since_version", strconv.FormatUint(since.Version, 10))
	}

	var page pagePayload
	if err := s.get(ctx, "/transactions", q, &page); err != nil {
		return syncstore.Batch{}, err
	}

	return toBatch(page)
}

// get decodes the JSON body at path into dst and validates it.
func (s *Source) get(ctx context.Context, path string, q url.Values, dst any) error {
	u := s.base.JoinPath(path)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling bank api: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding bank api response: %w", syncstore.ErrMalformed, err)
	}

	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", syncstore.ErrMalformed, err)
	}

	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}

	return fmt.Errorf("%w: status %d: %s", syncstore.ErrMalformed, resp.StatusCode, msg)
}

func toBatch(page pagePayload) (syncstore.Batch, error) {
	batch := syncstore.Batch{
		IsFull:    page.Full,
		Watermark: page.Watermark.UTC(),
		Records:   make([]transaction.Transaction, 0, len(page.Transactions)),
	}

	for _, p := range page.Transactions {
		tx := transaction.Transaction{
			ID:     uuid.MustParse(p.ID),
			Amount: p.Amount,
			Type:   transaction.Type(p.Type),
			Date:   p.Date.UTC(),
			Category: transaction.Category{
				ID:          uuid.MustParse(p.Category.ID),
				Name:        p.Category.Name,
				BudgetLimit: p.Category.BudgetLimit,
				Icon:        p.Category.Icon,
			},
			Note: p.Note,
		}

		if err := tx.Validate(); err != nil {
			return syncstore.Batch{}, fmt.Errorf("%w: %w", syncstore.ErrMalformed, err)
		}

		batch.Records = append(batch.Records, tx)
	}

	for _, id := range page.Deleted {
		batch.Deleted = append(batch.Deleted, uuid.MustParse(id))
	}

	return batch, nil
}
