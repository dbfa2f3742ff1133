package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/tshirt-stock/internal/importer"
)

const defaultDownloadConcurrency = 4

type client interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	Download(ctx context.Context, f *File, w io.Writer) error
}

// Source lists a Drive folder and downloads every spreadsheet in it as an
// import batch.
type Source struct {
	client      client
	folderID    string
	concurrency int
}

func NewSource(svc *Service, folderID string) *Source {
	return newSource(svc, folderID, defaultDownloadConcurrency)
}

func newSource(c client, folderID string, concurrency int) *Source {
	if concurrency <= 0 {
		concurrency = defaultDownloadConcurrency
	}
	return &Source{client: c, folderID: folderID, concurrency: concurrency}
}

// uploadName is the name a file is imported under. Google Sheets gain an
// .xlsx extension since they are exported in that format.
func uploadName(f *File) (string, bool) {
	if f.GoogleSheet() {
		if strings.EqualFold(filepath.Ext(f.Name), ".xlsx") {
			return f.Name, true
		}
		return f.Name + ".xlsx", true
	}
	return f.Name, importer.Supported(f.Name)
}

// Uploads downloads the folder's spreadsheets concurrently and returns them
// sorted by name, so the merge order does not depend on download timing.
func (s *Source) Uploads(ctx context.Context) ([]importer.Upload, error) {
	files, err := s.client.ListFiles(ctx, s.folderID)
	if err != nil {
		return nil, err
	}

	type pending struct {
		file *File
		name string
	}
	var wanted []pending
	for _, f := range files {
		name, ok := uploadName(f)
		if !ok {
			log.Debug().Str("file", f.Name).Str("mime_type", f.MimeType).Msg("Ignoring non-spreadsheet Drive file")
			continue
		}
		wanted = append(wanted, pending{file: f, name: name})
	}
	sort.SliceStable(wanted, func(i, j int) bool { return wanted[i].name < wanted[j].name })

	uploads := make([]importer.Upload, len(wanted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range wanted {
		i, p := i, p
		g.Go(func() error {
			var buf bytes.Buffer
			if err := s.client.Download(gctx, p.file, &buf); err != nil {
				return fmt.Errorf("drive file %s: %w", p.file.Name, err)
			}
			uploads[i] = importer.BytesUpload(p.name, buf.Bytes())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().Str("folder", s.folderID).Int("files", len(uploads)).Msg("Downloaded spreadsheets from Drive")
	return uploads, nil
}
