package csvplot

import (
	"fmt"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Series colors are keyed by the ORIGINAL row key, before any label remap,
// so renaming "Asia" to "ASIA" for display does not change its color. Keys
// that match no canonical continent fall back to go-chart's rotating default
// colors.

// continentPalette holds matplotlib's tab10 colors for the canonical
// continent names.
var continentPalette = map[string]drawing.Color{
	"south america": {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"north america": {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	"europe":        {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"asia":          {R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
	"africa":        {R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	"oceania":       {R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	"antarctica":    {R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

// continentAliases maps the abbreviated forms seen in real datasets onto the
// canonical names. Lookup is case-insensitive.
var continentAliases = map[string]string{
	"s amer":    "south america",
	"s america": "south america",
	"sam":       "south america",
	"n amer":    "north america",
	"n america": "north america",
	"nam":       "north america",
	"eur":       "europe",
	"afr":       "africa",
	"asi":       "asia",
	"oce":       "oceania",
	"ant":       "antarctica",
}

// SeriesColor resolves a series key against the continent palette. ok is
// false for unrecognized keys.
func SeriesColor(key string) (drawing.Color, bool) {
	norm := strings.ToLower(strings.TrimSpace(key))
	if canonical, ok := continentAliases[norm]; ok {
		norm = canonical
	}
	color, ok := continentPalette[norm]
	return color, ok
}

// resolveSeriesColor layers per-render overrides over the palette. index
// feeds go-chart's default color rotation for unknown keys.
func resolveSeriesColor(key string, overrides map[string]string, index int) drawing.Color {
	if hex, ok := overrides[key]; ok {
		if color, err := parseHexColor(hex); err == nil {
			return color
		}
	}
	if color, ok := SeriesColor(key); ok {
		return color
	}
	return chart.GetDefaultColor(index)
}

func parseHexColor(raw string) (drawing.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("color %q is not RRGGBB", raw)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return drawing.Color{}, fmt.Errorf("color %q is not RRGGBB: %w", raw, err)
	}
	return drawing.Color{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xff,
	}, nil
}
