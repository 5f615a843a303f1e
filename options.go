package csvplot

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// YUnit selects the y axis unit and bounds.
type YUnit string

const (
	// UnitPercent draws the y axis from 0 to 100. This is the default.
	UnitPercent YUnit = "percent"

	// UnitProportion draws the y axis from 0 to 1. Source values are divided
	// by 100 when the table maximum exceeds 1, so percentage-shaped inputs
	// can be rendered as proportions without editing the file.
	UnitProportion YUnit = "proportion"
)

// Tolerance when deciding whether a table already holds proportions. Values
// that are ≈1 due to float noise must not trigger the /100 rescale.
const unitEpsilon = 1e-9

func ParseYUnit(raw string) (YUnit, error) {
	switch raw {
	case "", string(UnitPercent):
		return UnitPercent, nil
	case string(UnitProportion):
		return UnitProportion, nil
	default:
		return "", &ValidationError{Reason: fmt.Sprintf("unknown y unit %q (want percent or proportion)", raw)}
	}
}

func (u YUnit) axisName() string {
	if u == UnitProportion {
		return "Proportion"
	}
	return "Percent"
}

func (u YUnit) axisMax() float64 {
	if u == UnitProportion {
		return 1.0
	}
	return 100.0
}

// XLabels decides the display labels for the x axis. The three cases are an
// explicit ordered list (ExplicitLabels), a per-column remap (ColumnRemap),
// and nil, which keeps the source column labels verbatim.
type XLabels interface {
	apply(columns []string) ([]string, error)
}

// ExplicitLabels replaces the column labels wholesale. Its length must match
// the column count exactly.
type ExplicitLabels []string

func (l ExplicitLabels) apply(columns []string) ([]string, error) {
	if len(l) != len(columns) {
		return nil, &ValidationError{Labels: len(l), Columns: len(columns)}
	}
	return append([]string(nil), l...), nil
}

// ColumnRemap rewrites individual column labels; columns without an entry
// keep their original label.
type ColumnRemap map[string]string

func (m ColumnRemap) apply(columns []string) ([]string, error) {
	labels := make([]string, len(columns))
	for i, column := range columns {
		if display, ok := m[column]; ok {
			labels[i] = display
		} else {
			labels[i] = column
		}
	}
	return labels, nil
}

func resolveXLabels(x XLabels, columns []string) ([]string, error) {
	if x == nil {
		return append([]string(nil), columns...), nil
	}
	return x.apply(columns)
}

// RenderOptions configures a single render. The zero value renders with the
// title derived from the source file name, original labels and a percent
// axis.
type RenderOptions struct {
	Title    string
	XLabels  XLabels
	LabelMap map[string]string
	YUnit    YUnit

	// Colors overrides the built-in palette per original series key, as
	// RRGGBB hex strings (leading # allowed).
	Colors map[string]string
}

// optionsFile is the TOML schema for --options. Label maps and color tables
// are unwieldy as flags, so they live in a file.
type optionsFile struct {
	Title     string            `toml:"title"`
	XLabels   []string          `toml:"x_labels"`
	XLabelMap map[string]string `toml:"x_label_map"`
	LabelMap  map[string]string `toml:"label_map"`
	YUnit     string            `toml:"y_unit"`
	Colors    map[string]string `toml:"colors"`
}

// LoadRenderOptions decodes a TOML options file into RenderOptions.
func LoadRenderOptions(path string) (RenderOptions, error) {
	var file optionsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return RenderOptions{}, fmt.Errorf("decoding options file %s: %w", path, err)
	}

	if len(file.XLabels) > 0 && len(file.XLabelMap) > 0 {
		return RenderOptions{}, &ValidationError{Reason: "x_labels and x_label_map are mutually exclusive"}
	}

	unit, err := ParseYUnit(file.YUnit)
	if err != nil {
		return RenderOptions{}, err
	}

	options := RenderOptions{
		Title:    file.Title,
		LabelMap: file.LabelMap,
		YUnit:    unit,
		Colors:   file.Colors,
	}
	if len(file.XLabels) > 0 {
		options.XLabels = ExplicitLabels(file.XLabels)
	} else if len(file.XLabelMap) > 0 {
		options.XLabels = ColumnRemap(file.XLabelMap)
	}
	return options, nil
}
