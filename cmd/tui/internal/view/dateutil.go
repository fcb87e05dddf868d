package view

import (
	"time"

	"github.com/MrJamesThe3rd/coinbag/internal/insights"
)

type Timeframe int

const (
	TimeframeAll Timeframe = iota
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeThisYear

	timeframeCount
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeAll:
		return "All Time"
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframeThisYear:
		return "This Year"
	}

	return "Unknown"
}

// Next cycles through the timeframes.
func (t Timeframe) Next() Timeframe {
	return (t + 1) % timeframeCount
}

// Period returns the range covered by t relative to now. ok is false for All Time.
func (t Timeframe) Period(now time.Time) (insights.Period, bool) {
	switch t {
	case TimeframeThisMonth:
		return insights.Month(now), true
	case TimeframeLastMonth:
		return insights.Month(now).Prev(), true
	case TimeframeThisYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return insights.Period{Start: start, End: start.AddDate(1, 0, 0)}, true
	}

	return insights.Period{}, false
}
