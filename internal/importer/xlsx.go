package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Built-in number formats that render dates. 27-36 and 50-58 are the
// East Asian locale date formats Japanese Excel uses.
var builtinDateFormats = map[int]struct{}{
	14: {}, 15: {}, 16: {}, 17: {}, 22: {},
	27: {}, 28: {}, 29: {}, 30: {}, 31: {}, 32: {}, 33: {}, 34: {}, 35: {}, 36: {},
	50: {}, 51: {}, 52: {}, 53: {}, 54: {}, 55: {}, 56: {}, 57: {}, 58: {},
}

// xlsxSheet is the active worksheet of a workbook, read with raw values so
// that date cells keep their serial numbers.
type xlsxSheet struct {
	file     *excelize.File
	name     string
	rows     [][]string
	date1904 bool
}

func openXLSX(r io.Reader) (*xlsxSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, fmt.Errorf("xlsx has no sheets")
		}
		name = sheets[0]
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
	}

	s := &xlsxSheet{file: f, name: name, rows: rows}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}
	return s, nil
}

func (s *xlsxSheet) Close() error {
	return s.file.Close()
}

func (s *xlsxSheet) Rows() int {
	return len(s.rows)
}

func (s *xlsxSheet) Cols(row int) int {
	if row < 1 || row > len(s.rows) {
		return 0
	}
	return len(s.rows[row-1])
}

func (s *xlsxSheet) Value(row, col int) string {
	if col < 1 || col > s.Cols(row) {
		return ""
	}
	return s.rows[row-1][col-1]
}

func (s *xlsxSheet) Date(row, col int) (time.Time, bool) {
	raw := strings.TrimSpace(s.Value(row, col))
	if raw == "" {
		return time.Time{}, false
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return time.Time{}, false
	}

	typ, err := s.file.GetCellType(s.name, ref)
	if err != nil {
		return time.Time{}, false
	}
	switch typ {
	case excelize.CellTypeDate:
		return parseISODate(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
	default:
		return time.Time{}, false
	}

	if !s.hasDateFormat(ref) {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, s.date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *xlsxSheet) hasDateFormat(ref string) bool {
	styleID, err := s.file.GetCellStyle(s.name, ref)
	if err != nil {
		return false
	}
	style, err := s.file.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		return customFormatHasDate(*style.CustomNumFmt)
	}
	_, ok := builtinDateFormats[style.NumFmt]
	return ok
}

// customFormatHasDate looks for year or day tokens outside quoted literals,
// bracketed sections and escaped characters. Month alone is ambiguous with
// minutes, so it does not count.
func customFormatHasDate(code string) bool {
	code = strings.ToLower(code)
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}

var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseISODate(raw string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
