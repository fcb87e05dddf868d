package insights

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoData = errors.New("no spending to chart")

// RenderSpendingChart draws a PNG bar chart of spending per category.
// Overspent categories are drawn in red.
func RenderSpendingChart(w io.Writer, report OverspendingReport) error {
	if len(report.Categories) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(report.Categories))

	for _, c := range report.Categories {
		fill := drawing.ColorFromHex("8B5E3C")
		if c.IsOverspent() {
			fill = chart.ColorRed
		}

		bars = append(bars, chart.Value{
			Label: c.Category.Name,
			Value: c.Spent.InexactFloat64(),
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
			},
		})
	}

	graph := chart.BarChart{
		Title: fmt.Sprintf("Spending %s", report.Period.Start.Format("January 2006")),
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    1000,
		Height:   500,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}

				return ""
			},
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering spending chart: %w", err)
	}

	return nil
}
