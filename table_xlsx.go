package csvplot

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadTableXLSX loads the first sheet of an XLSX workbook into a Table, with
// the same shape rules as ReadTable: header row for column labels, first
// column for row keys. Excelize trims trailing empty cells per row, so short
// rows are padded back out with NaN instead of being rejected.
func ReadTableXLSX(path string) (*Table, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("workbook has no sheets")}
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	rows = Filter(rows, func(row []string) bool { return len(row) > 0 })
	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("sheet %q is empty", sheets[0])}
	}

	table := &Table{Columns: rows[0][1:]}
	for _, record := range rows[1:] {
		cells := make([]float64, len(table.Columns))
		for j := range cells {
			if j+1 < len(record) {
				cells[j] = coerceCell(record[j+1])
			} else {
				cells[j] = math.NaN()
			}
		}
		table.Rows = append(table.Rows, strings.TrimSpace(record[0]))
		table.Cells = append(table.Cells, cells)
	}

	return table, nil
}
