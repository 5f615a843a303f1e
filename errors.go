package csvplot

import "fmt"

// ParseError indicates the source could be opened but does not contain
// well-formed tabular data (ragged rows, broken quoting, empty workbook).
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing table: %v", e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError indicates the render options are inconsistent with each
// other or with the table. The zero Reason form is the x-label length
// mismatch, which must name both lengths.
type ValidationError struct {
	Reason  string
	Labels  int
	Columns int
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("x labels length mismatch: %d labels for %d columns", e.Labels, e.Columns)
}

// EmptyDataError indicates nothing numeric survived cleaning, so there is
// nothing to draw.
type EmptyDataError struct {
	Path string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("%s: no numeric data left after dropping empty rows and columns", e.Path)
}
