package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

func TestTimeframe_Period(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	type testCase struct {
		name      string
		timeframe Timeframe
		wantStart time.Time
		wantEnd   time.Time
		wantOK    bool
	}

	tests := []testCase{
		{
			name:      "all time is unbounded",
			timeframe: TimeframeAll,
		},
		{
			name:      "this month",
			timeframe: TimeframeThisMonth,
			wantStart: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "last month",
			timeframe: TimeframeLastMonth,
			wantStart: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "this year",
			timeframe: TimeframeThisYear,
			wantStart: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.timeframe.Period(now)

			assert.Equal(t, tt.wantOK, ok)

			if !tt.wantOK {
				return
			}

			assert.True(t, got.Start.Equal(tt.wantStart), "start %s", got.Start)
			assert.True(t, got.End.Equal(tt.wantEnd), "end %s", got.End)
		})
	}
}

func TestTimeframe_NextWraps(t *testing.T) {
	assert.Equal(t, TimeframeThisMonth, TimeframeAll.Next())
	assert.Equal(t, TimeframeAll, TimeframeThisYear.Next())
}

func TestFormatAmount(t *testing.T) {
	tx := transaction.Transaction{Amount: decimal.RequireFromString("12.5"), Type: transaction.TypeExpense}
	assert.Equal(t, "-12.50", FormatAmount(tx))

	tx.Type = transaction.TypeIncome
	assert.Equal(t, "12.50", FormatAmount(tx))
}
