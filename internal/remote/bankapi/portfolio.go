package bankapi

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/portfolio"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

type investmentPayload struct {
	Symbol   string          `json:"symbol"   validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type portfolioPayload struct {
	Holdings    []investmentPayload `json:"holdings"    validate:"dive"`
	Performance decimal.Decimal     `json:"performance"`
	AsOf        time.Time           `json:"as_of"`
}

type accountPayload struct {
	Type        string          `json:"type"        validate:"required,oneof=checking savings credit brokerage"`
	Institution string          `json:"institution" validate:"required"`
	Balance     decimal.Decimal `json:"balance"`
}

type accountsPayload struct {
	Accounts []accountPayload `json:"accounts" validate:"dive"`
}

func (s *Source) FetchPortfolio(ctx context.Context) (portfolio.Portfolio, error) {
	var payload portfolioPayload
	if err := s.get(ctx, "/portfolio", nil, &payload); err != nil {
		return portfolio.Portfolio{}, err
	}

	p := portfolio.Portfolio{
		Holdings:    make([]portfolio.Investment, 0, len(payload.Holdings)),
		Performance: payload.Performance,
		AsOf:        payload.AsOf.UTC(),
	}

	for _, h := range payload.Holdings {
		if h.Quantity.IsNegative() || h.Price.IsNegative() {
			return portfolio.Portfolio{}, fmt.Errorf("%w: holding %s has a negative quantity or price", syncstore.ErrMalformed, h.Symbol)
		}

		p.Holdings = append(p.Holdings, portfolio.Investment{Symbol: h.Symbol, Quantity: h.Quantity, Price: h.Price})
	}

	return p, nil
}

func (s *Source) FetchAccounts(ctx context.Context) ([]portfolio.Account, error) {
	var payload accountsPayload
	if err := s.get(ctx, "/accounts", nil, &payload); err != nil {
		return nil, err
	}

	accounts := make([]portfolio.Account, 0, len(payload.Accounts))
	for _, a := range payload.Accounts {
		accounts = append(accounts, portfolio.Account{
			Type:        portfolio.AccountType(a.Type),
			Institution: a.Institution,
			Balance:     a.Balance,
		})
	}

	return accounts, nil
}
