// Package charts renders budget views as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
)

// ErrNoData is returned when a view has nothing to draw.
var ErrNoData = errors.New("no allocations to chart")

// Slices under this share of the total are folded into "Other".
const minShare = 0.01

var typeColors = map[model.CategoryType]drawing.Color{
	model.Debt:   drawing.ColorFromHex("D14D41"),
	model.Need:   drawing.ColorFromHex("4385BE"),
	model.Want:   drawing.ColorFromHex("DA702C"),
	model.Saving: drawing.ColorFromHex("879A39"),
}

func background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
		FillColor: chart.ColorWhite,
	}
}

// Pie draws one slice per selected category for the given view.
func Pie(res *pipeline.Result, view pipeline.View) ([]byte, error) {
	rows := pipeline.CategoryRows(pipeline.BuildRows(res))

	var total float64
	for _, r := range rows {
		total += r.Value(view)
	}
	if total <= 0 {
		return nil, ErrNoData
	}

	var values []chart.Value
	var other float64
	for _, r := range rows {
		v := r.Value(view)
		if v <= 0 {
			continue
		}
		if v/total < minShare {
			other += v
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", r.Name, cli.FormatMoney(v), v/total*100),
			Value: v,
			Style: chart.Style{
				FillColor:   typeColors[r.Type],
				StrokeColor: chart.ColorWhite,
				FontSize:    11,
				FontColor:   chart.ColorBlack,
			},
		})
	}
	if other > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Other: %s", cli.FormatMoney(other)),
			Value: other,
		})
	}

	pie := chart.PieChart{
		Title:      fmt.Sprintf("%s (%s per paycheck)", view.Title(), cli.FormatMoney(res.Snapshot.Paycheck)),
		Width:      900,
		Height:     900,
		Values:     values,
		Background: background(),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("rendering pie chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// Comparison draws entered, recommended and perfect totals side by side for
// each category type.
func Comparison(s budget.Summary) ([]byte, error) {
	var bars []chart.Value
	for _, t := range model.CategoryTypes {
		for _, v := range []struct {
			name   string
			totals budget.TypeTotals
			alpha  uint8
		}{
			{"entered", s.Entered, 255},
			{"recommended", s.Recommended, 170},
			{"perfect", s.Perfect, 90},
		} {
			amount, ok := v.totals[t]
			if !ok {
				continue
			}
			bars = append(bars, chart.Value{
				Label: fmt.Sprintf("%s %s", t.Label(), v.name),
				Value: amount,
				Style: chart.Style{
					FillColor:   typeColors[t].WithAlpha(v.alpha),
					StrokeColor: typeColors[t],
				},
			})
		}
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	graph := chart.BarChart{
		Title:      "Budget by type",
		Width:      1200,
		Height:     600,
		BarWidth:   40,
		Background: background(),
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return cli.FormatCompact(f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("rendering comparison chart: %w", err)
	}
	return buffer.Bytes(), nil
}
