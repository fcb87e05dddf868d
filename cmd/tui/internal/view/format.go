package view

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

// The store never times out a fetch; the screen stops waiting after this.
const refreshTimeout = 30 * time.Second

// FormatAmount renders the amount with two decimals, negative for expenses.
func FormatAmount(tx transaction.Transaction) string {
	return tx.Signed().StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// RefreshCtx bounds how long a screen waits on a refresh.
func RefreshCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), refreshTimeout)
}
