package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Date layouts accepted in CSV header cells. Excel writes dates with
// slashes when saving Japanese-locale workbooks as CSV.
var csvDateLayouts = []string{"2006-01-02", "2006/01/02", "2006/1/2", "2006-1-2"}

// csvSheet is a CSV export held in memory. Files that are not valid UTF-8
// are decoded as Shift-JIS.
type csvSheet struct {
	records [][]string
}

func openCSV(r io.Reader) (*csvSheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data, _, err = transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode Shift-JIS csv: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return &csvSheet{records: records}, nil
}

func (s *csvSheet) Close() error { return nil }

func (s *csvSheet) Rows() int {
	return len(s.records)
}

func (s *csvSheet) Cols(row int) int {
	if row < 1 || row > len(s.records) {
		return 0
	}
	return len(s.records[row-1])
}

func (s *csvSheet) Value(row, col int) string {
	if col < 1 || col > s.Cols(row) {
		return ""
	}
	return s.records[row-1][col-1]
}

func (s *csvSheet) Date(row, col int) (time.Time, bool) {
	raw := strings.TrimSpace(s.Value(row, col))
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
