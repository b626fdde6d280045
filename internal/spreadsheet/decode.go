// Package spreadsheet turns uploaded workbook bytes into header-keyed rows.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/leads-import-worker/constants"
)

// ErrDecode is returned for unsupported formats and malformed files.
var ErrDecode = errors.New("spreadsheet: cannot decode file")

// Row is one data row keyed by header text. Values are string, float64 or bool;
// absent cells are "".
type Row = map[string]any

const emptyHeader = "__EMPTY"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses the first sheet of data. The format is picked from path's extension.
func Decode(data []byte, path string) ([]Row, error) {
	switch constants.MapPathToFormat(path) {
	case constants.XLSX:
		return decodeXLSX(data)
	case constants.CSV:
		return decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrDecode, path)
	}
}

func decodeXLSX(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrDecode, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDecode)
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrDecode, sheet, err)
	}

	return buildRows(raw, func(rowIdx, colIdx int, text string) any {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
		if err != nil {
			return text
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			return text
		}
		return typedValue(typ, text)
	}), nil
}

// typedValue maps a raw cell to the Go type a reader of the sheet would expect.
func typedValue(typ excelize.CellType, text string) any {
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(text, 64); err == nil {
			return n
		}
	case excelize.CellTypeBool:
		switch text {
		case "1", "TRUE", "true":
			return true
		case "0", "FALSE", "false":
			return false
		}
	}
	return text
}

func decodeCSV(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var raw [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", ErrDecode, err)
		}
		raw = append(raw, rec)
	}
	return buildRows(raw, func(_, _ int, text string) any { return text }), nil
}

// buildRows uses raw[0] as the header and keys every following non-blank row by it.
func buildRows(raw [][]string, value func(rowIdx, colIdx int, text string) any) []Row {
	if len(raw) == 0 {
		return []Row{}
	}

	width := 0
	for _, r := range raw {
		if len(r) > width {
			width = len(r)
		}
	}
	headers := headerKeys(raw[0], width)

	rows := make([]Row, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		if isBlank(raw[i]) {
			continue
		}
		row := make(Row, width)
		for c, key := range headers {
			if c >= len(raw[i]) || raw[i][c] == "" {
				row[key] = ""
				continue
			}
			row[key] = value(i, c, raw[i][c])
		}
		rows = append(rows, row)
	}
	return rows
}

// headerKeys names every column: empty headers become __EMPTY, __EMPTY_1, ...
// and repeats get a numeric suffix.
func headerKeys(header []string, width int) []string {
	keys := make([]string, width)
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(header) {
			base = strings.TrimSpace(header[i])
		}
		if base == "" {
			base = emptyHeader
		}
		key := base
		for n := 1; used[key]; n++ {
			key = fmt.Sprintf("%s_%d", base, n)
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
