package csvplot

import (
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	legendGap          = 15
	legendSwatchLength = 50
	legendItemSpacing  = 20
)

// outsideLegend is go-chart's stock Legend renderable re-anchored to the
// margin right of the canvas box, so the legend never covers data. The chart
// must reserve enough Background padding on the right for it (see
// legendPadding).
func outsideLegend(c *chart.Chart, userDefaults ...chart.Style) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, chartDefaults chart.Style) {
		legendDefaults := chart.Style{
			FillColor:   drawing.ColorWhite,
			FontColor:   chart.DefaultTextColor,
			FontSize:    legendFontPoints,
			StrokeColor: chart.DefaultAxisColor,
			StrokeWidth: chart.DefaultAxisLineWidth,
		}

		var legendStyle chart.Style
		if len(userDefaults) > 0 {
			legendStyle = userDefaults[0].InheritFrom(chartDefaults.InheritFrom(legendDefaults))
		} else {
			legendStyle = chartDefaults.InheritFrom(legendDefaults)
		}

		var labels []string
		var lines []chart.Style
		for _, s := range c.Series {
			if s.GetStyle().Hidden {
				continue
			}
			labels = append(labels, s.GetName())
			lines = append(lines, s.GetStyle())
		}

		legendStyle.GetTextOptions().WriteToRenderer(r)

		// Measure pass to size the box.
		contentWidth := 0
		contentHeight := 0
		count := 0
		for _, label := range labels {
			if label == "" {
				continue
			}
			bounds := r.MeasureText(label)
			if count > 0 {
				contentHeight += legendItemSpacing
			}
			contentHeight += bounds.Height()
			contentWidth = Max(contentWidth, legendSwatchLength+legendGap+bounds.Width())
			count++
		}
		if count == 0 {
			return
		}

		box := chart.Box{
			Top:  canvasBox.Top,
			Left: canvasBox.Right + legendGap,
		}
		box.Right = box.Left + contentWidth + 2*legendGap
		box.Bottom = box.Top + contentHeight + 2*legendGap

		chart.Draw.Box(r, box, legendStyle)
		legendStyle.GetTextOptions().WriteToRenderer(r)

		textLeft := box.Left + legendGap
		cursor := box.Top + legendGap
		count = 0
		for i, label := range labels {
			if label == "" {
				continue
			}
			if count > 0 {
				cursor += legendItemSpacing
			}
			bounds := r.MeasureText(label)
			baseline := cursor + bounds.Height()

			// Color swatch, then the label, matching the source chart's
			// legend layout.
			swatchY := baseline - bounds.Height()/2
			r.SetStrokeColor(lines[i].GetStrokeColor())
			r.SetStrokeWidth(lines[i].GetStrokeWidth())
			r.SetStrokeDashArray(lines[i].GetStrokeDashArray())
			r.MoveTo(textLeft, swatchY)
			r.LineTo(textLeft+legendSwatchLength, swatchY)
			r.Stroke()

			r.Text(label, textLeft+legendSwatchLength+legendGap, baseline)

			cursor += bounds.Height()
			count++
		}
	}
}
