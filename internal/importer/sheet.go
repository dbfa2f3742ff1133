package importer

import (
	"time"
)

// Sheet is a read-only grid of cells. Rows and columns are 1-based, as in
// spreadsheet coordinates.
type Sheet interface {
	// Rows is the number of rows holding data.
	Rows() int
	// Cols is the number of cells present in row.
	Cols(row int) int
	// Value is the raw text of a cell, "" when the cell is blank or absent.
	Value(row, col int) string
	// Date reports whether the cell holds a date and returns it.
	Date(row, col int) (time.Time, bool)
}

// Layout describes where the header and size labels live in an export.
type Layout struct {
	// HeaderScanRows is how many leading rows are searched for the date header.
	HeaderScanRows int
	// LabelColumn is the column holding each data row's size label.
	LabelColumn int
}

const (
	DefaultHeaderScanRows = 9
	DefaultLabelColumn    = 2 // column B
)

func DefaultLayout() Layout {
	return Layout{
		HeaderScanRows: DefaultHeaderScanRows,
		LabelColumn:    DefaultLabelColumn,
	}
}

func (l Layout) withDefaults() Layout {
	if l.HeaderScanRows <= 0 {
		l.HeaderScanRows = DefaultHeaderScanRows
	}
	if l.LabelColumn <= 0 {
		l.LabelColumn = DefaultLabelColumn
	}
	return l
}
