package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
)

var (
	// ErrUnknownVariant means the file name did not identify a variant.
	ErrUnknownVariant = errors.New("cannot determine variant from file name")
	// ErrNoHeader means no date header row was found in the scanned rows.
	ErrNoHeader = errors.New("no date header row found")
	// ErrUnsupportedFormat means the file extension is not a known spreadsheet type.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// IsSkip reports whether err drops a file without failing the batch.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnknownVariant) ||
		errors.Is(err, ErrNoHeader) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// Upload is a named spreadsheet waiting to be imported.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileUpload reads a spreadsheet from disk.
func FileUpload(path string) Upload {
	return Upload{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesUpload wraps a spreadsheet already held in memory.
func BytesUpload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

type sheetCloser interface {
	Sheet
	Close() error
}

// Supported reports whether name has a spreadsheet extension we can read.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

func openSheet(name string, r io.Reader) (sheetCloser, error) {
	var (
		sheet sheetCloser
		err   error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		sheet, err = openXLSX(r)
	case ".csv":
		sheet, err = openCSV(r)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return sheet, nil
}

// Importer turns one exported spreadsheet into per-date counts for the
// variant named by the file.
type Importer struct {
	layout Layout
}

func New(layout Layout) *Importer {
	return &Importer{layout: layout.withDefaults()}
}

func (i *Importer) Layout() Layout {
	return i.layout
}

// Import classifies the file by name, then parses it. Skippable outcomes
// are reported with the sentinel errors above; a bad count cell is a
// *CellError naming the file.
func (i *Importer) Import(name string, r io.Reader) (domain.SheetCounts, error) {
	variant, ok := domain.ClassifyVariant(filepath.Base(name))
	if !ok {
		return domain.SheetCounts{}, fmt.Errorf("%s: %w", name, ErrUnknownVariant)
	}

	sheet, err := openSheet(name, r)
	if err != nil {
		return domain.SheetCounts{}, err
	}
	defer sheet.Close()

	res, err := Parse(sheet, i.layout)
	if err != nil {
		var cellErr *CellError
		if errors.As(err, &cellErr) {
			cellErr.File = name
			return domain.SheetCounts{}, cellErr
		}
		return domain.SheetCounts{}, fmt.Errorf("%s: %w", name, err)
	}
	if !res.Found {
		return domain.SheetCounts{}, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}

	return domain.SheetCounts{
		Source:  name,
		Variant: variant,
		Counts:  res.Counts,
	}, nil
}

// ImportUpload opens the upload and imports it.
func (i *Importer) ImportUpload(up Upload) (domain.SheetCounts, error) {
	if !Supported(up.Name) {
		return domain.SheetCounts{}, fmt.Errorf("%s: %w", up.Name, ErrUnsupportedFormat)
	}
	rc, err := up.Open()
	if err != nil {
		return domain.SheetCounts{}, fmt.Errorf("failed to open %s: %w", up.Name, err)
	}
	defer rc.Close()
	return i.Import(up.Name, rc)
}
