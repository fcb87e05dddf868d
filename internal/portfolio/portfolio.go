// Package portfolio reports investment holdings and linked account balances
// from the bank aggregation API.
package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountChecking  AccountType = "checking"
	AccountSavings   AccountType = "savings"
	AccountCredit    AccountType = "credit"
	AccountBrokerage AccountType = "brokerage"
)

// Investment is one holding. Quantity is fractional for funds and ETFs.
type Investment struct {
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

func (i Investment) Value() decimal.Decimal {
	return i.Quantity.Mul(i.Price)
}

// Portfolio is the brokerage view. Performance is the period return as a
// fraction, e.g. 0.042 for 4.2%.
type Portfolio struct {
	Holdings    []Investment
	Performance decimal.Decimal
	AsOf        time.Time
}

func (p Portfolio) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.Value())
	}

	return total
}

type Account struct {
	Type        AccountType
	Institution string
	Balance     decimal.Decimal
}

// Overview combines the portfolio with every linked account.
type Overview struct {
	Portfolio Portfolio
	Accounts  []Account
	FetchedAt time.Time
	// Stale is set when the overview is a previous result served after a failed fetch.
	Stale bool
}

// NetWorth is the account balances plus the portfolio value. Credit balances
// are owed and subtract.
func (o Overview) NetWorth() decimal.Decimal {
	total := o.Portfolio.TotalValue()

	for _, a := range o.Accounts {
		if a.Type == AccountCredit {
			total = total.Sub(a.Balance.Abs())
			continue
		}

		total = total.Add(a.Balance)
	}

	return total
}
