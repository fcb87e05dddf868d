package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("transaction not found")
	ErrInvalid  = errors.New("invalid transaction")
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category groups transactions under a spending budget.
// Icon is an opaque handle owned by the presentation layer.
type Category struct {
	ID          uuid.UUID
	Name        string
	BudgetLimit decimal.Decimal
	Icon        string
}

// Transaction represents a financial transaction as reported by the remote source.
// Values are immutable once they enter a snapshot.
type Transaction struct {
	ID       uuid.UUID
	Amount   decimal.Decimal // Always non-negative; direction comes from Type
	Type     Type
	Date     time.Time
	Category Category
	Note     string
}

func (t Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}

	if !t.Type.Valid() {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalid, t.ID, t.Type)
	}

	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: %s: negative amount %s", ErrInvalid, t.ID, t.Amount)
	}

	if t.Category.BudgetLimit.IsNegative() {
		return fmt.Errorf("%w: %s: negative budget limit", ErrInvalid, t.ID)
	}

	return nil
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}

	return t.Amount
}

// hashable is the flattened form fed to the hasher. Decimals are hashed by their
// canonical string, so 10.5 and 10.50 hash the same.
type hashable struct {
	ID          string
	Amount      string
	Type        string
	Date        int64
	CategoryID  string
	Category    string
	BudgetLimit string
	Icon        string
	Note        string
}

// ContentHash returns a hash over every content field of the transaction.
func (t Transaction) ContentHash() (uint64, error) {
	h, err := hashstructure.Hash(hashable{
		ID:          t.ID.String(),
		Amount:      t.Amount.String(),
		Type:        string(t.Type),
		Date:        t.Date.UnixNano(),
		CategoryID:  t.Category.ID.String(),
		Category:    t.Category.Name,
		BudgetLimit: t.Category.BudgetLimit.String(),
		Icon:        t.Category.Icon,
		Note:        t.Note,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hashing transaction %s: %w", t.ID, err)
	}

	return h, nil
}

// Equal reports whether both transactions carry the same content.
func (t Transaction) Equal(other Transaction) bool {
	return t.ID == other.ID &&
		t.Amount.Equal(other.Amount) &&
		t.Type == other.Type &&
		t.Date.Equal(other.Date) &&
		t.Category.ID == other.Category.ID &&
		t.Category.Name == other.Category.Name &&
		t.Category.BudgetLimit.Equal(other.Category.BudgetLimit) &&
		t.Category.Icon == other.Category.Icon &&
		t.Note == other.Note
}
