package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/tshirt-stock/internal/cache"
	"github.com/andresuchdata/tshirt-stock/internal/domain"
	"github.com/andresuchdata/tshirt-stock/internal/importer"
	"github.com/andresuchdata/tshirt-stock/internal/repository"
)

var (
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidVariant = errors.New("unknown variant")
	ErrNegativeCount  = errors.New("counts must not be negative")
)

// UploadSource yields spreadsheets from somewhere other than a direct
// upload, such as a shared Drive folder.
type UploadSource interface {
	Uploads(ctx context.Context) ([]importer.Upload, error)
}

type HistoryFilter struct {
	Variants []domain.Variant
}

// InventoryService owns the in-memory collection for one session. Every
// operation holds the same lock, so concurrent requests apply one at a time.
type InventoryService struct {
	mu       sync.Mutex
	repo     repository.SnapshotRepository
	importer *importer.Importer
	cache    cache.HistoryCache

	records domain.Collection
	loaded  bool
}

func NewInventoryService(repo repository.SnapshotRepository, imp *importer.Importer, historyCache cache.HistoryCache) *InventoryService {
	if historyCache == nil {
		historyCache = cache.NewNoopHistoryCache()
	}
	if imp == nil {
		imp = importer.New(importer.DefaultLayout())
	}
	return &InventoryService{
		repo:     repo,
		importer: imp,
		cache:    historyCache,
	}
}

// Load reads the stored collection, replacing whatever is held in memory, and
// drops cached history computed from any earlier copy.
func (s *InventoryService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *InventoryService) load(ctx context.Context) error {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	s.records = records
	s.loaded = true
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate history cache")
	}
	log.Info().Int("snapshots", len(records)).Msg("Inventory loaded")
	return nil
}

func (s *InventoryService) collection(ctx context.Context) (domain.Collection, error) {
	if !s.loaded {
		if err := s.load(ctx); err != nil {
			return nil, err
		}
	}
	return s.records, nil
}

// commit persists next and only then makes it the in-memory state.
func (s *InventoryService) commit(ctx context.Context, next domain.Collection) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	s.records = next
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate history cache")
	}
	return nil
}

// ImportFiles imports each upload in order, merging every file that parses.
// Skipped and failed files are reported without stopping the batch. The
// result is saved once, and only if at least one file was merged.
func (s *InventoryService) ImportFiles(ctx context.Context, uploads []importer.Upload) (*ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Files: make([]FileResult, 0, len(uploads))}
	next := records
	for _, up := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sheet, err := s.importer.ImportUpload(up)
		switch {
		case err == nil:
			next = next.MergeImport(sheet)
			report.add(FileResult{
				Name:    up.Name,
				Status:  StatusImported,
				Variant: sheet.Variant.Label(),
				Dates:   len(sheet.Counts),
				Cells:   sheet.Cells(),
			})
			log.Debug().Str("file", up.Name).Str("variant", sheet.Variant.Slug()).Int("cells", sheet.Cells()).Msg("Imported spreadsheet")
		case importer.IsSkip(err):
			report.add(FileResult{Name: up.Name, Status: StatusSkipped, Error: err.Error()})
			log.Debug().Err(err).Str("file", up.Name).Msg("Skipped spreadsheet")
		default:
			report.add(FileResult{Name: up.Name, Status: StatusFailed, Error: err.Error()})
			log.Warn().Err(err).Str("file", up.Name).Msg("Failed to import spreadsheet")
		}
	}

	if report.Imported > 0 {
		if err := s.commit(ctx, next); err != nil {
			return nil, err
		}
	}
	report.Snapshots = len(s.records)

	log.Info().
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Import finished")
	return report, nil
}

// ImportSource pulls every upload from src and imports them as one batch.
func (s *InventoryService) ImportSource(ctx context.Context, src UploadSource) (*ImportReport, error) {
	uploads, err := src.Uploads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return s.ImportFiles(ctx, uploads)
}

// Draft returns the baseline shown when editing date.
func (s *InventoryService) Draft(ctx context.Context, date string) (domain.Snapshot, error) {
	if !domain.ValidDate(date) {
		return domain.Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return records.Draft(date), nil
}

// SaveManual replaces the snapshot for date with inv and persists it.
func (s *InventoryService) SaveManual(ctx context.Context, date string, inv domain.Inventory) (domain.Snapshot, error) {
	if !domain.ValidDate(date) {
		return domain.Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if v, size, neg := inv.Negative(); neg {
		return domain.Snapshot{}, fmt.Errorf("%w: %s %s is %d", ErrNegativeCount, v.Label(), size, inv.Get(v, size))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := s.commit(ctx, records.UpsertManual(date, inv)); err != nil {
		return domain.Snapshot{}, err
	}

	log.Info().Str("date", date).Msg("Saved manual snapshot")
	return domain.Snapshot{Date: date, Inventory: inv}, nil
}

// Snapshots returns every snapshot, newest first.
func (s *InventoryService) Snapshots(ctx context.Context) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	return records.Sorted(), nil
}

// History returns the history table, served from the cache when possible.
func (s *InventoryService) History(ctx context.Context, filter HistoryFilter) ([]domain.HistoryRow, error) {
	var selected [domain.VariantCount]bool
	for _, v := range filter.Variants {
		if !v.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidVariant, int(v))
		}
		selected[v] = true
	}
	var variants []domain.Variant
	for _, v := range domain.Variants() {
		if selected[v] {
			variants = append(variants, v)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok, err := s.cache.GetHistory(ctx, variants)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read history cache")
	}
	if ok {
		return rows, nil
	}

	records, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	rows = records.History(variants...)
	if err := s.cache.SetHistory(ctx, variants, rows); err != nil {
		log.Warn().Err(err).Msg("Failed to write history cache")
	}
	return rows, nil
}

// Series returns one variant's counts by size, oldest date first.
func (s *InventoryService) Series(ctx context.Context, v domain.Variant) ([]domain.SeriesPoint, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVariant, int(v))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	return records.Series(v), nil
}
