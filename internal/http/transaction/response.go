package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

type categoryResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
	Icon        string          `json:"icon,omitempty"`
}

type transactionResponse struct {
	ID       uuid.UUID        `json:"id"`
	Amount   decimal.Decimal  `json:"amount"`
	Type     transaction.Type `json:"type"`
	Date     time.Time        `json:"date"`
	Category categoryResponse `json:"category"`
	Note     string           `json:"note,omitempty"`
}

type listResponse struct {
	Version      uint64                `json:"version"`
	SyncedAt     time.Time             `json:"synced_at"`
	Transactions []transactionResponse `json:"transactions"`
}

func toResponse(tx transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:     tx.ID,
		Amount: tx.Amount,
		Type:   tx.Type,
		Date:   tx.Date,
		Category: categoryResponse{
			ID:          tx.Category.ID,
			Name:        tx.Category.Name,
			BudgetLimit: tx.Category.BudgetLimit,
			Icon:        tx.Category.Icon,
		},
		Note: tx.Note,
	}
}

func toListResponse(snap syncstore.Snapshot, txs []transaction.Transaction) listResponse {
	resp := listResponse{
		Version:      snap.Version,
		SyncedAt:     snap.SyncedAt,
		Transactions: make([]transactionResponse, len(txs)),
	}

	for i, tx := range txs {
		resp.Transactions[i] = toResponse(tx)
	}

	return resp
}
