package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

const dateLayout = "02-01-2006"

var ErrUnknownLayout = errors.New("no known statement layout found")

// Entry is one movement read from a statement, before identity and category are assigned.
type Entry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        transaction.Type
}

type columns map[string]int

// Parse reads a CGD CSV export in any of the known layouts.
func Parse(r io.Reader) ([]Entry, error) {
	ur, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(ur)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	l, cols, headerIdx, ok := detectLayout(rows)
	if !ok {
		return nil, ErrUnknownLayout
	}

	var entries []Entry

	for i, row := range rows[headerIdx+1:] {
		date, ok := parseDate(cell(row, cols[l.dateCol]))
		if !ok {
			continue
		}

		desc := cell(row, cols[l.descCol])
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", headerIdx+i+2)
		}

		amount, typ, ok, err := readAmount(l, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", headerIdx+i+2, err)
		}

		if !ok {
			continue
		}

		entries = append(entries, Entry{Date: date, Description: desc, Amount: amount, Type: typ})
	}

	return entries, nil
}

func detectLayout(rows [][]string) (layout, columns, int, bool) {
	for rowIdx, row := range rows {
		cols := make(columns)

		for i, c := range row {
			if name := strings.TrimSpace(c); name != "" {
				cols[name] = i
			}
		}

		for _, l := range layouts {
			if hasAll(cols, l.requiredCols()) {
				return l, cols, rowIdx, true
			}
		}
	}

	return layout{}, nil, 0, false
}

func hasAll(cols columns, names []string) bool {
	for _, n := range names {
		if _, ok := cols[n]; !ok {
			return false
		}
	}

	return true
}

// parseDate rejects empty and footer cells.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// readAmount reports ok=false for rows without a movement. A cell that holds
// something other than a number is an error.
func readAmount(l layout, cols columns, row []string) (decimal.Decimal, transaction.Type, bool, error) {
	if l.mode == amountSigned {
		d, ok, err := nonZeroAmount(cell(row, cols[l.amountCol]))
		if err != nil || !ok {
			return decimal.Zero, "", false, err
		}

		if d.IsNegative() {
			return d.Neg(), transaction.TypeExpense, true, nil
		}

		return d, transaction.TypeIncome, true, nil
	}

	debit, ok, err := nonZeroAmount(cell(row, cols[l.debitCol]))
	if err != nil {
		return decimal.Zero, "", false, err
	}

	if ok {
		return debit.Abs(), transaction.TypeExpense, true, nil
	}

	credit, ok, err := nonZeroAmount(cell(row, cols[l.creditCol]))
	if err != nil || !ok {
		return decimal.Zero, "", false, err
	}

	return credit.Abs(), transaction.TypeIncome, true, nil
}

func nonZeroAmount(s string) (decimal.Decimal, bool, error) {
	if s == "" {
		return decimal.Zero, false, nil
	}

	d, err := parseEuropeanAmount(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid amount %q", s)
	}

	return d, !d.IsZero(), nil
}

// parseEuropeanAmount reads "1.234,56" as 1234.56.
func parseEuropeanAmount(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(s, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	return decimal.NewFromString(clean)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
