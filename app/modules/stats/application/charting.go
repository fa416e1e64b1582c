package statsservice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// ChartPalette holds the colors of the rating chart.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultChartPalette is a dark theme matching the club's Discord embeds.
func DefaultChartPalette() ChartPalette {
	return ChartPalette{
		Background:  drawing.Color{R: 0x1e, G: 0x22, B: 0x28, A: 0xff},
		PrimaryLine: drawing.Color{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff},
		AccentLine:  drawing.Color{R: 0xff, G: 0xc1, B: 0x07, A: 0xff},
		TextColor:   drawing.Color{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
	}
}

// RenderRatingChart produces a PNG line chart of the player's rating
// progression from their ledger history. Entries without a usable timestamp
// are skipped; an empty history renders a placeholder instead of failing.
func (s *StatsService) RenderRatingChart(ctx context.Context, playerID apptypes.PlayerID) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "RenderRatingChart")
	defer span.End()

	history, err := s.ratings.History(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}

	var xValues []time.Time
	var yValues []float64
	for _, entry := range history {
		at, ok := entry.EffectiveTime()
		if !ok {
			continue
		}
		xValues = append(xValues, at)
		yValues = append(yValues, float64(entry.Rating))
	}

	// go-chart needs at least two points to place a time axis.
	if len(xValues) < 2 {
		s.logger.InfoContext(ctx, "Not enough rated games for a chart, rendering placeholder",
			attr.PlayerID("player_id", playerID),
			attr.Int("entries", len(xValues)),
		)
		return s.renderNoDataPlaceholder()
	}

	tierName, _ := s.tier(apptypes.Rating(yValues[len(yValues)-1]))

	mainSeries := chart.TimeSeries{
		Name:    fmt.Sprintf("%s (%s)", playerID, tierName),
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: s.palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    s.palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: s.palette.Background,
		},
		Canvas: chart.Style{
			FillColor: s.palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: s.palette.TextColor,
			},
		},
		YAxis: chart.YAxis{
			Name: "Rating",
			Style: chart.Style{
				FontColor: s.palette.TextColor,
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render rating chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func (s *StatsService) renderNoDataPlaceholder() ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No rated games yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: s.palette.Background,
		},
		Canvas: chart.Style{
			FillColor: s.palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(s.palette.TextColor)
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
