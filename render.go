package csvplot

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Figure geometry: 12x8 inches at 300 DPI, like the chart this tool
// reproduces. go-chart scales fonts by DPI but takes stroke and dot widths
// in pixels, so point-based sizes go through pxPerPoint.
const (
	renderDPI    = 300.0
	renderWidth  = 12 * renderDPI
	renderHeight = 8 * renderDPI
	pxPerPoint   = renderDPI / 72.0

	seriesStrokePoints = 2.0
	seriesDotPoints    = 3.0
	legendFontPoints   = 10.0
)

// 30% alpha over the plot background.
var gridColor = drawing.Color{R: 0x99, G: 0x99, B: 0x99, A: 0x4d}

// Render reads the table at source, applies the configured transforms and
// writes a line chart PNG next to it. The output file name is the source
// name with its extension replaced by "_recreated.png"; the path is returned
// on success. Nothing is written when loading or validation fails.
func Render(source string, options RenderOptions) (string, error) {
	logger := logrus.WithField("tag", "Renderer")

	input, err := prepare(source, options)
	if err != nil {
		return "", err
	}

	graph := buildChart(input, options)

	output := OutputPath(source)
	f, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", output, err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		os.Remove(output)
		return "", fmt.Errorf("rendering chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", output, err)
	}

	logger.Infof("chart written to %s", output)
	return output, nil
}

// OutputPath derives the output file path for a source: same directory, same
// stem, "_recreated.png" suffix.
func OutputPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + "_recreated.png"
}

func sourceStem(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// renderInput is the fully prepared chart content: cleaned table, resolved
// labels, and the original row keys that color lookup stays keyed on.
type renderInput struct {
	table     *Table
	originals []string
	xLabels   []string
	title     string
	unit      YUnit
}

// prepare runs the data half of the pipeline: load, clean, rescale, remap.
// It fails before any output file exists, so a validation error can never
// leave a partial PNG behind.
func prepare(source string, options RenderOptions) (*renderInput, error) {
	logger := logrus.WithField("tag", "Renderer")

	table, err := LoadTable(source)
	if err != nil {
		return nil, err
	}

	unit, err := ParseYUnit(string(options.YUnit))
	if err != nil {
		return nil, err
	}

	err = table.Apply(
		func(t *Table) error {
			t.DropEmpty()
			if len(t.Rows) == 0 || len(t.Columns) == 0 {
				return &EmptyDataError{Path: source}
			}
			return nil
		},
		func(t *Table) error {
			if unit != UnitProportion {
				return nil
			}
			// Best effort: a table with no computable maximum is left as-is
			// rather than failing the render.
			max, ok := t.Max()
			switch {
			case !ok:
				logger.Warn("cannot determine table maximum, leaving values unscaled")
			case max > 1+unitEpsilon:
				t.Scale(1.0 / 100.0)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	originals := append([]string(nil), table.Rows...)
	table.RenameRows(options.LabelMap)

	xLabels, err := resolveXLabels(options.XLabels, table.Columns)
	if err != nil {
		return nil, err
	}

	title := options.Title
	if title == "" {
		title = sourceStem(source)
	}

	return &renderInput{
		table:     table,
		originals: originals,
		xLabels:   xLabels,
		title:     title,
		unit:      unit,
	}, nil
}

func buildChart(input *renderInput, options RenderOptions) chart.Chart {
	table := input.table

	series := make([]chart.Series, 0, len(table.Rows))
	for i, name := range table.Rows {
		// Skip NaN cells so the line breaks at gaps instead of feeding NaN
		// coordinates to the rasterizer.
		var xs, ys []float64
		for j, v := range table.Cells[i] {
			if math.IsNaN(v) {
				continue
			}
			xs = append(xs, float64(j))
			ys = append(ys, v)
		}

		color := resolveSeriesColor(input.originals[i], options.Colors, i)
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: seriesStrokePoints * pxPerPoint,
				StrokeColor: color,
				DotWidth:    seriesDotPoints * pxPerPoint,
				DotColor:    color,
			},
		})
	}

	xTicks := make([]chart.Tick, len(input.xLabels))
	for j, label := range input.xLabels {
		xTicks[j] = chart.Tick{Value: float64(j), Label: label}
	}

	yMax := input.unit.axisMax()
	yTicks := make([]chart.Tick, 0, 6)
	for i := 0; i <= 5; i++ {
		value := yMax * float64(i) / 5
		yTicks = append(yTicks, chart.Tick{Value: value, Label: chart.FloatValueFormatter(value)})
	}

	graph := chart.Chart{
		Title:  input.title,
		Width:  renderWidth,
		Height: renderHeight,
		DPI:    renderDPI,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Bottom: 20,
				Right:  legendPadding(table.Rows),
			},
		},
		XAxis: chart.XAxis{
			Ticks: xTicks,
			Range: &chart.ContinuousRange{
				Min: -0.5,
				Max: float64(len(input.xLabels)) - 0.5,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: gridColor,
				StrokeWidth: 1.0,
			},
		},
		YAxis: chart.YAxis{
			Name: input.unit.axisName(),
			// go-chart puts the primary y axis on the right; the secondary
			// axis type flips it to the left, freeing the right margin for
			// the legend.
			AxisType:       chart.YAxisSecondary,
			Ticks:          yTicks,
			Range:          &chart.ContinuousRange{Min: 0, Max: yMax},
			GridMajorStyle: chart.Style{
				StrokeColor: gridColor,
				StrokeWidth: 1.0,
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		outsideLegend(&graph, chart.Style{FontSize: legendFontPoints}),
	}

	return graph
}

// legendPadding reserves right margin for the external legend, sized from
// the longest series display name. The estimate is deliberately generous;
// unused margin just becomes whitespace.
func legendPadding(names []string) int {
	longest := 0
	for _, name := range names {
		longest = Max(longest, len(name))
	}
	text := float64(longest) * legendFontPoints * 0.62 * pxPerPoint
	return Max(300, int(text)+legendSwatchLength+4*legendGap)
}
