package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"
)

// CellError reports a count cell that is not a number. It aborts the import
// of the file it came from.
type CellError struct {
	File  string
	Cell  string
	Value string
}

func (e *CellError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("cell %s: %q is not a number", e.Cell, e.Value)
	}
	return fmt.Sprintf("%s: cell %s: %q is not a number", e.File, e.Cell, e.Value)
}

// Result is the outcome of parsing one sheet.
type Result struct {
	// Found is false when no header row was found; Counts is then empty.
	Found     bool
	HeaderRow int
	Counts    map[string]map[domain.Size]int
}

type dateColumn struct {
	col  int
	date string
}

type header struct {
	row     int
	columns []dateColumn
}

// Parse extracts per-date size counts from a sheet in two passes: find the
// header row carrying the dates, then read every labelled row beneath it.
func Parse(sheet Sheet, layout Layout) (Result, error) {
	layout = layout.withDefaults()

	hdr, ok := findHeader(sheet, layout)
	if !ok {
		return Result{}, nil
	}

	counts, err := readCounts(sheet, layout, hdr)
	if err != nil {
		return Result{}, err
	}
	return Result{Found: true, HeaderRow: hdr.row, Counts: counts}, nil
}

// findHeader returns the first of the leading rows holding at least one date.
func findHeader(sheet Sheet, layout Layout) (header, bool) {
	last := min(layout.HeaderScanRows, sheet.Rows())
	for row := 1; row <= last; row++ {
		var cols []dateColumn
		for col := 1; col <= sheet.Cols(row); col++ {
			if t, ok := sheet.Date(row, col); ok {
				cols = append(cols, dateColumn{col: col, date: t.Format(domain.DateLayout)})
			}
		}
		if len(cols) > 0 {
			return header{row: row, columns: cols}, true
		}
	}
	return header{}, false
}

func readCounts(sheet Sheet, layout Layout, hdr header) (map[string]map[domain.Size]int, error) {
	counts := make(map[string]map[domain.Size]int)
	for row := hdr.row + 1; row <= sheet.Rows(); row++ {
		size, ok := domain.NormalizeSize(sheet.Value(row, layout.LabelColumn))
		if !ok {
			continue
		}

		for _, dc := range hdr.columns {
			raw := sheet.Value(row, dc.col)
			n, ok := parseCount(raw)
			if !ok {
				cell, _ := excelize.CoordinatesToCellName(dc.col, row)
				return nil, &CellError{Cell: cell, Value: raw}
			}
			if counts[dc.date] == nil {
				counts[dc.date] = make(map[domain.Size]int)
			}
			counts[dc.date][size] = n
		}
	}
	return counts, nil
}

// parseCount reads a count cell. Blank is zero; fractional values are
// truncated toward zero. Values outside the int range are rejected.
func parseCount(raw string) (int, bool) {
	s := strings.TrimSpace(width.Fold.String(raw))
	if s == "" {
		return 0, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}
