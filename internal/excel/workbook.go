package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/inovacc/datapull/internal/frame"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used when writing a single frame.
const DefaultSheet = "Sheet1"

// Sheet is one worksheet converted to a frame.
type Sheet struct {
	Name  string
	Frame *frame.Frame
}

// ReadFile loads the selected sheets of an xlsx workbook. The first row of
// each sheet is its header.
func ReadFile(path string, sel SheetSelector) ([]Sheet, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = wb.Close() }()

	names, err := sel.resolve(wb.GetSheetList())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sheets := make([]Sheet, 0, len(names))

	for _, name := range names {
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", name, path, err)
		}

		sheets = append(sheets, Sheet{Name: name, Frame: rowsToFrame(rows)})
	}

	return sheets, nil
}

// ReadFrame loads the selected sheets and stacks them into one frame.
func ReadFrame(path string, sel SheetSelector) (*frame.Frame, error) {
	sheets, err := ReadFile(path, sel)
	if err != nil {
		return nil, err
	}

	if len(sheets) == 1 {
		return sheets[0].Frame, nil
	}

	frames := make([]*frame.Frame, len(sheets))
	for i, s := range sheets {
		frames[i] = s.Frame
	}

	return frame.Concat(frames...), nil
}

func rowsToFrame(rows [][]string) *frame.Frame {
	if len(rows) == 0 {
		return frame.New(nil, nil)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	header := make([]string, width)
	copy(header, rows[0])

	return frame.New(headerNames(header), rows[1:])
}

// headerNames names blank headers "Unnamed: <i>" and suffixes duplicates
// with ".1", ".2", ...
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))

	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}

		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}

		used[name] = true
		out[i] = name
	}

	return out
}

// WriteFile writes f as the only sheet of a new workbook at path. The file
// is replaced atomically.
func WriteFile(path, sheet string, f *frame.Frame) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if sheet != DefaultSheet {
		if err := wb.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet %q: %w", sheet, err)
		}
	}

	sw, err := wb.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	if err := writeRow(sw, 1, f.Columns); err != nil {
		return err
	}

	for i, row := range f.Rows {
		if err := writeRow(sw, i+2, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending workbook: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if err := wb.Write(pendingFile); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace workbook %s: %w", path, err)
	}

	return nil
}

func writeRow(sw *excelize.StreamWriter, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}

	return nil
}
