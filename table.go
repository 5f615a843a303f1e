package csvplot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// The pipeline starts with a source file which is loaded into a Table. The
// Table is then transformed in place (dropping empty rows/columns, unit
// rescaling, row renames) before the renderer turns it into series. Missing
// or non-numeric cells are represented as NaN throughout.

// Table is a dense numeric table. Rows holds the series keys (first column of
// the source), Columns holds the category labels (header row), and
// Cells[i][j] is the value of series i at category j, or NaN when missing.
type Table struct {
	Rows    []string
	Columns []string
	Cells   [][]float64
}

// Operator transforms a Table in place. Operators are applied in order and
// the first error aborts the chain.
type Operator func(*Table) error

func (t *Table) Apply(ops ...Operator) error {
	for _, op := range ops {
		if err := op(t); err != nil {
			return err
		}
	}
	return nil
}

// LoadTable reads the table at path, choosing a loader by file extension.
// Anything that is not a spreadsheet is treated as CSV.
func LoadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadTableXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		table, err := ReadTable(f)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErr.Path = path
			}
			return nil, err
		}
		return table, nil
	}
}

// ReadTable parses CSV input into a Table. The first record is the header
// (its first field names the index column and is discarded), and the first
// field of every following record is the row key. Cells that do not parse as
// numbers become NaN rather than failing the whole read; structurally broken
// input (ragged rows, bad quoting) is a ParseError.
func ReadTable(input io.Reader) (*Table, error) {
	csvReader := csv.NewReader(input)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: errors.New("no header row")}
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	table := &Table{Columns: header[1:]}
	logger := logrus.WithField("tag", "Table")

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The reader locks the field count to the header's, so ragged
			// rows surface here as a csv.ParseError.
			return nil, &ParseError{Err: err}
		}

		cells := make([]float64, len(table.Columns))
		for j := range cells {
			cells[j] = coerceCell(record[j+1])
		}
		if allNaN(cells) {
			logger.WithField("row", record[0]).Debug("row has no numeric values")
		}

		table.Rows = append(table.Rows, strings.TrimSpace(record[0]))
		table.Cells = append(table.Cells, cells)
	}

	return table, nil
}

// coerceCell parses one cell, returning NaN when it is empty or not numeric.
func coerceCell(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

func allNaN(cells []float64) bool {
	for _, v := range cells {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// DropEmpty removes rows whose cells are all NaN, then columns that are NaN
// in every remaining row. Order of the survivors is preserved.
func (t *Table) DropEmpty() {
	keptRows := make([]int, 0, len(t.Rows))
	for i := range t.Rows {
		if !allNaN(t.Cells[i]) {
			keptRows = append(keptRows, i)
		}
	}

	keptCols := make([]int, 0, len(t.Columns))
	for j := range t.Columns {
		for _, i := range keptRows {
			if !math.IsNaN(t.Cells[i][j]) {
				keptCols = append(keptCols, j)
				break
			}
		}
	}

	rows := make([]string, 0, len(keptRows))
	cells := make([][]float64, 0, len(keptRows))
	for _, i := range keptRows {
		row := make([]float64, 0, len(keptCols))
		for _, j := range keptCols {
			row = append(row, t.Cells[i][j])
		}
		rows = append(rows, t.Rows[i])
		cells = append(cells, row)
	}

	columns := make([]string, 0, len(keptCols))
	for _, j := range keptCols {
		columns = append(columns, t.Columns[j])
	}

	t.Rows = rows
	t.Columns = columns
	t.Cells = cells
}

// Max returns the largest non-NaN cell. ok is false when the table holds no
// numeric data at all.
func (t *Table) Max() (max float64, ok bool) {
	max = math.Inf(-1)
	for i := range t.Cells {
		for _, v := range t.Cells[i] {
			if !math.IsNaN(v) && v > max {
				max = v
				ok = true
			}
		}
	}
	if !ok {
		return 0, false
	}
	return max, true
}

// Scale multiplies every cell by factor. NaN cells stay NaN.
func (t *Table) Scale(factor float64) {
	for i := range t.Cells {
		for j := range t.Cells[i] {
			t.Cells[i][j] *= factor
		}
	}
}

// RenameRows rewrites row keys through the given mapping. Keys without an
// entry pass through unchanged; no rows are added or removed.
func (t *Table) RenameRows(mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	for i, key := range t.Rows {
		if display, ok := mapping[key]; ok {
			t.Rows[i] = display
		}
	}
}
