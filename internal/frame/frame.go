// Package frame provides a small tabular data type shared by the
// spreadsheet reader, the cache layer and the collector.
//
// Cells are strings. The empty string is the missing value.
package frame

import (
	"slices"
	"strings"
)

// NA is the missing cell value.
const NA = ""

// Frame is a table of named columns and string rows.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New builds a frame, padding short rows with NA and truncating long ones.
func New(columns []string, rows [][]string) *Frame {
	f := &Frame{
		Columns: slices.Clone(columns),
		Rows:    make([][]string, 0, len(rows)),
	}

	for _, row := range rows {
		f.Rows = append(f.Rows, fit(row, len(columns)))
	}

	return f
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)

	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}

	return len(f.Rows)
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	if f == nil {
		return 0
	}

	return len(f.Columns)
}

// Copy returns a deep copy.
func (f *Frame) Copy() *Frame {
	if f == nil {
		return nil
	}

	out := &Frame{
		Columns: slices.Clone(f.Columns),
		Rows:    make([][]string, len(f.Rows)),
	}

	for i, row := range f.Rows {
		out.Rows[i] = slices.Clone(row)
	}

	return out
}

// ColumnIndex returns the position of name, or -1.
func (f *Frame) ColumnIndex(name string) int {
	return slices.Index(f.Columns, name)
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]string, bool) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}

	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}

	return out, true
}

// Equal reports whether two frames have the same columns and cells.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}

	if !slices.Equal(f.Columns, other.Columns) || len(f.Rows) != len(other.Rows) {
		return false
	}

	for i := range f.Rows {
		if !slices.Equal(f.Rows[i], other.Rows[i]) {
			return false
		}
	}

	return true
}

// Concat stacks frames vertically. The result has the union of all columns
// in first-seen order; cells for columns a frame lacks are NA. Nil frames
// are ignored.
func Concat(frames ...*Frame) *Frame {
	var columns []string

	seen := make(map[string]int)

	for _, f := range frames {
		if f == nil {
			continue
		}

		for _, c := range f.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	out := &Frame{Columns: columns, Rows: [][]string{}}

	for _, f := range frames {
		if f == nil {
			continue
		}

		for _, row := range f.Rows {
			merged := make([]string, len(columns))

			for i, c := range f.Columns {
				if i < len(row) {
					merged[seen[c]] = row[i]
				}
			}

			out.Rows = append(out.Rows, merged)
		}
	}

	return out
}

// naSpellings is matched case-sensitively.
var naSpellings = map[string]struct{}{
	"nan":  {},
	"NaN":  {},
	"None": {},
	"<NA>": {},
	"null": {},
}

// IsNA reports whether a cell spells a missing value.
func IsNA(cell string) bool {
	if cell == NA {
		return true
	}

	_, ok := naSpellings[cell]

	return ok
}

// Normalize returns a copy with trimmed cells and every missing-value
// spelling replaced by NA.
func Normalize(f *Frame) *Frame {
	out := f.Copy()
	if out == nil {
		return nil
	}

	for i, c := range out.Columns {
		out.Columns[i] = strings.TrimSpace(c)
	}

	for _, row := range out.Rows {
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if IsNA(cell) {
				cell = NA
			}

			row[j] = cell
		}
	}

	return out
}
