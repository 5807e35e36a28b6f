// Package excel reads and writes xlsx workbooks as frames and provides a
// reader that caches every sheet it loads.
package excel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSheetNotFound is returned when a selector names a missing sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// SheetSelector picks the sheets to read. The zero value selects the first
// sheet.
type SheetSelector struct {
	Names   []string
	Indexes []int
	All     bool
}

// SheetIndex selects one sheet by position.
func SheetIndex(i int) SheetSelector {
	return SheetSelector{Indexes: []int{i}}
}

// SheetName selects one sheet by name.
func SheetName(name string) SheetSelector {
	return SheetSelector{Names: []string{name}}
}

// AllSheets selects every sheet in workbook order.
func AllSheets() SheetSelector {
	return SheetSelector{All: true}
}

// ParseSheetSelector understands "*" (all sheets), comma-separated indexes
// and comma-separated names. Empty input selects the first sheet.
func ParseSheetSelector(s string) SheetSelector {
	s = strings.TrimSpace(s)

	switch s {
	case "":
		return SheetSelector{}
	case "*":
		return AllSheets()
	}

	var sel SheetSelector

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if i, err := strconv.Atoi(part); err == nil {
			sel.Indexes = append(sel.Indexes, i)
			continue
		}

		sel.Names = append(sel.Names, part)
	}

	return sel
}

// Key renders the selector for use in cache file names. The default
// selection renders as "".
func (s SheetSelector) Key() string {
	if s.All {
		return "all"
	}

	if len(s.Names) == 0 && (len(s.Indexes) == 0 || (len(s.Indexes) == 1 && s.Indexes[0] == 0)) {
		return ""
	}

	parts := make([]string, 0, len(s.Names)+len(s.Indexes))
	for _, i := range s.Indexes {
		parts = append(parts, strconv.Itoa(i))
	}

	parts = append(parts, s.Names...)

	return strings.Join(parts, "+")
}

// resolve maps the selector onto the sheet list of a workbook.
func (s SheetSelector) resolve(available []string) ([]string, error) {
	if s.All {
		return available, nil
	}

	if len(s.Names) == 0 && len(s.Indexes) == 0 {
		if len(available) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}

		return available[:1], nil
	}

	var out []string

	for _, i := range s.Indexes {
		if i < 0 || i >= len(available) {
			return nil, fmt.Errorf("%w: index %d (workbook has %d)", ErrSheetNotFound, i, len(available))
		}

		out = append(out, available[i])
	}

	for _, name := range s.Names {
		found := false

		for _, a := range available {
			if a == name {
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
		}

		out = append(out, name)
	}

	return out, nil
}
