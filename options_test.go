package csvplot

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestResolveXLabels(t *testing.T) {
	columns := []string{"V1", "V2"}

	t.Run("NilKeepsOriginals", func(t *testing.T) {
		labels, err := resolveXLabels(nil, columns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(labels, columns) {
			t.Fatalf("unexpected labels: %v", labels)
		}
	})

	t.Run("ExplicitMatch", func(t *testing.T) {
		labels, err := resolveXLabels(ExplicitLabels{"one", "two"}, columns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(labels, []string{"one", "two"}) {
			t.Fatalf("unexpected labels: %v", labels)
		}
	})

	t.Run("ExplicitLengthMismatch", func(t *testing.T) {
		_, err := resolveXLabels(ExplicitLabels{"one", "two", "three"}, columns)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
		if validationErr.Labels != 3 || validationErr.Columns != 2 {
			t.Fatalf("expected lengths 3 and 2 in error, got %+v", validationErr)
		}
		// The message must name both lengths.
		if !strings.Contains(err.Error(), "3") || !strings.Contains(err.Error(), "2") {
			t.Fatalf("error message does not name both lengths: %q", err.Error())
		}
	})

	t.Run("RemapWithFallback", func(t *testing.T) {
		labels, err := resolveXLabels(ColumnRemap{"V1": "First"}, columns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(labels, []string{"First", "V2"}) {
			t.Fatalf("unexpected labels: %v", labels)
		}
	})
}

func TestParseYUnit(t *testing.T) {
	t.Run("EmptyDefaultsToPercent", func(t *testing.T) {
		unit, err := ParseYUnit("")
		if err != nil || unit != UnitPercent {
			t.Fatalf("ParseYUnit(\"\") = %v, %v", unit, err)
		}
	})

	t.Run("Proportion", func(t *testing.T) {
		unit, err := ParseYUnit("proportion")
		if err != nil || unit != UnitProportion {
			t.Fatalf("ParseYUnit(proportion) = %v, %v", unit, err)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseYUnit("furlongs")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
	})
}

func TestYUnitAxis(t *testing.T) {
	if UnitPercent.axisName() != "Percent" || UnitPercent.axisMax() != 100 {
		t.Fatalf("unexpected percent axis: %q %v", UnitPercent.axisName(), UnitPercent.axisMax())
	}
	if UnitProportion.axisName() != "Proportion" || UnitProportion.axisMax() != 1 {
		t.Fatalf("unexpected proportion axis: %q %v", UnitProportion.axisName(), UnitProportion.axisMax())
	}
}

func TestLoadRenderOptions(t *testing.T) {
	t.Run("FullFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.toml")
		writeFile(t, path, `
title = "Continents"
y_unit = "proportion"
x_labels = ["V1", "V2"]

[label_map]
Afr = "Africa"

[colors]
Asia = "#17becf"
`)
		options, err := LoadRenderOptions(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if options.Title != "Continents" {
			t.Fatalf("unexpected title: %q", options.Title)
		}
		if options.YUnit != UnitProportion {
			t.Fatalf("unexpected y unit: %q", options.YUnit)
		}
		if !reflect.DeepEqual(options.XLabels, ExplicitLabels{"V1", "V2"}) {
			t.Fatalf("unexpected x labels: %#v", options.XLabels)
		}
		if options.LabelMap["Afr"] != "Africa" {
			t.Fatalf("unexpected label map: %v", options.LabelMap)
		}
		if options.Colors["Asia"] != "#17becf" {
			t.Fatalf("unexpected colors: %v", options.Colors)
		}
	})

	t.Run("XLabelMapVariant", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.toml")
		writeFile(t, path, `
[x_label_map]
V1 = "First"
`)
		options, err := LoadRenderOptions(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(options.XLabels, ColumnRemap{"V1": "First"}) {
			t.Fatalf("unexpected x labels: %#v", options.XLabels)
		}
	})

	t.Run("ConflictingXLabelForms", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.toml")
		writeFile(t, path, `
x_labels = ["a"]

[x_label_map]
V1 = "First"
`)
		_, err := LoadRenderOptions(path)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
	})

	t.Run("BadTOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.toml")
		writeFile(t, path, "title = ")
		if _, err := LoadRenderOptions(path); err == nil {
			t.Fatal("expected decode error")
		}
	})
}
