package export

import (
	"bytes"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mcoot/cardtally/internal/services/report"
)

const (
	chartWidth  = 800
	chartHeight = 400
)

// RunningTotalsChart renders a PNG line chart of each player's cumulative
// score after every round. Players are drawn in the given order.
func RunningTotalsChart(groups []report.RoundGroup, players []string) ([]byte, error) {
	if len(groups) == 0 || len(players) == 0 {
		return renderNoDataPlaceholder()
	}

	// Every series starts at round 0 with a score of 0
	xValues := make([]float64, len(groups)+1)
	for i := range xValues {
		xValues[i] = float64(i)
	}

	running := make(map[string]float64, len(players))
	yValues := make(map[string][]float64, len(players))
	for _, p := range players {
		yValues[p] = []float64{0}
	}

	minY, maxY := 0.0, 0.0
	for _, g := range groups {
		for _, e := range g.Entries {
			running[e.Player] += float64(e.Score)
		}
		for _, p := range players {
			v := running[p]
			yValues[p] = append(yValues[p], v)
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
	}

	series := make([]chart.Series, 0, len(players))
	for _, p := range players {
		series = append(series, chart.ContinuousSeries{
			Name:    p,
			XValues: xValues,
			YValues: yValues[p],
			Style: chart.Style{
				StrokeWidth: 2,
				DotWidth:    3,
			},
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Round",
			ValueFormatter: roundFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Running total",
			// Padded so an all-zero game still has a drawable range
			Range: &chart.ContinuousRange{Min: minY - 1, Max: maxY + 1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func roundFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return chart.IntValueFormatter(int(f))
	}
	return ""
}

func renderNoDataPlaceholder() ([]byte, error) {
	const msg = "No rounds recorded"

	graph := chart.Chart{
		Width:  chartWidth / 2,
		Height: chartHeight / 2,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis: chart.YAxis{
			Style: chart.Hidden(),
			Range: &chart.ContinuousRange{Min: -1, Max: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
