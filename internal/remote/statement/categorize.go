package statement

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

// Rule assigns Category to entries whose description contains Pattern (case-insensitive).
type Rule struct {
	Pattern  string
	Category transaction.Category
}

// Categorizer resolves statement descriptions to categories. First matching rule wins.
type Categorizer struct {
	rules    []Rule
	fallback transaction.Category
}

func NewCategorizer(rules []Rule) *Categorizer {
	normalized := make([]Rule, 0, len(rules))

	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}

		normalized = append(normalized, Rule{Pattern: p, Category: r.Category})
	}

	return &Categorizer{
		rules: normalized,
		fallback: transaction.Category{
			ID:   uuid.NewSHA1(namespace, []byte("category|uncategorized")),
			Name: "Uncategorized",
		},
	}
}

func (c *Categorizer) Categorize(description string) transaction.Category {
	desc := strings.ToLower(description)

	for _, r := range c.rules {
		if strings.Contains(desc, r.Pattern) {
			return r.Category
		}
	}

	return c.fallback
}

type ruleFile struct {
	Rules []struct {
		Pattern     string          `json:"pattern"`
		Category    string          `json:"category"`
		BudgetLimit decimal.Decimal `json:"budget_limit"`
		Icon        string          `json:"icon"`
	} `json:"rules"`
}

// LoadRules reads categorization rules from a JSON file. Category IDs are derived
// from the category name so they stay stable across edits of the file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var f ruleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	rules := make([]Rule, 0, len(f.Rules))

	for i, r := range f.Rules {
		if r.Pattern == "" || r.Category == "" {
			return nil, fmt.Errorf("rule %d: pattern and category are required", i)
		}

		rules = append(rules, Rule{
			Pattern: r.Pattern,
			Category: transaction.Category{
				ID:          uuid.NewSHA1(namespace, []byte("category|"+strings.ToLower(r.Category))),
				Name:        r.Category,
				BudgetLimit: r.BudgetLimit,
				Icon:        r.Icon,
			},
		})
	}

	return rules, nil
}
