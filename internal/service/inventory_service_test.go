package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
	"github.com/andresuchdata/tshirt-stock/internal/importer"
	"github.com/andresuchdata/tshirt-stock/internal/repository"
)

type flakyRepository struct {
	repository.SnapshotRepository
	saveErr error
	saves   int
}

func (r *flakyRepository) Save(ctx context.Context, c domain.Collection) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.SnapshotRepository.Save(ctx, c)
}

type countingCache struct {
	rows        map[string][]domain.HistoryRow
	gets        int
	hits        int
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{rows: map[string][]domain.HistoryRow{}}
}

func cacheKey(variants []domain.Variant) string {
	key := "all"
	for _, v := range variants {
		key += "|" + v.Slug()
	}
	return key
}

func (c *countingCache) GetHistory(_ context.Context, variants []domain.Variant) ([]domain.HistoryRow, bool, error) {
	c.gets++
	rows, ok := c.rows[cacheKey(variants)]
	if ok {
		c.hits++
	}
	return rows, ok, nil
}

func (c *countingCache) SetHistory(_ context.Context, variants []domain.Variant, rows []domain.HistoryRow) error {
	c.rows[cacheKey(variants)] = rows
	return nil
}

func (c *countingCache) InvalidateAll(context.Context) error {
	c.invalidated++
	c.rows = map[string][]domain.HistoryRow{}
	return nil
}

type staticSource []importer.Upload

func (s staticSource) Uploads(context.Context) ([]importer.Upload, error) { return s, nil }

type InventoryServiceSuite struct {
	suite.Suite
	ctx   context.Context
	path  string
	repo  *flakyRepository
	cache *countingCache
	svc   *InventoryService
}

func (s *InventoryServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "inventory_db.json")
	s.repo = &flakyRepository{SnapshotRepository: repository.NewFileRepository(s.path)}
	s.cache = newCountingCache()
	s.svc = NewInventoryService(s.repo, importer.New(importer.DefaultLayout()), s.cache)
	s.Require().NoError(s.svc.Load(s.ctx))
	s.Require().Equal(1, s.cache.invalidated, "load drops cached history")
	s.cache.invalidated = 0
}

func TestInventoryServiceSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceSuite))
}

func csvUpload(name, body string) importer.Upload {
	return importer.BytesUpload(name, []byte(body))
}

func (s *InventoryServiceSuite) reload() domain.Collection {
	fresh := NewInventoryService(repository.NewFileRepository(s.path), nil, nil)
	records, err := fresh.Snapshots(s.ctx)
	s.Require().NoError(err)
	return records
}

func (s *InventoryServiceSuite) TestImportFilesReportsEveryFile() {
	report, err := s.svc.ImportFiles(s.ctx, []importer.Upload{
		csvUpload("ホワイト_なし.csv", ",サイズ,2024-06-01,2024-06-02\n,M,5,7\n"),
		csvUpload("ブラック_あり.csv", "no header here\n,M,1\n"),
		csvUpload("白_あり.csv", ",,2024-06-01\n,S,lots\n"),
		csvUpload("memo.txt", "hello"),
	})
	s.Require().NoError(err)

	s.Equal(1, report.Imported)
	s.Equal(2, report.Skipped)
	s.Equal(1, report.Failed)
	s.Equal(2, report.Snapshots)
	s.False(report.AllFailed())

	s.Require().Len(report.Files, 4)
	s.Equal(StatusImported, report.Files[0].Status)
	s.Equal(domain.WhiteNoMark.Label(), report.Files[0].Variant)
	s.Equal(2, report.Files[0].Cells)
	s.Equal(StatusSkipped, report.Files[1].Status)
	s.Equal(StatusFailed, report.Files[2].Status)
	s.Contains(report.Files[2].Error, "白_あり.csv")
	s.Contains(report.Files[2].Error, "C2")
	s.Equal(StatusSkipped, report.Files[3].Status)

	records := s.reload()
	s.Require().Len(records, 2)
	s.Equal(7, records[0].Inventory.Get(domain.WhiteNoMark, domain.SizeM))
	s.Equal(5, records[1].Inventory.Get(domain.WhiteNoMark, domain.SizeM))
	s.Equal(1, s.cache.invalidated)
}

func (s *InventoryServiceSuite) TestImportLaterFileWins() {
	_, err := s.svc.ImportFiles(s.ctx, []importer.Upload{
		csvUpload("黒_あり_1.csv", ",,2024-06-01\n,L,3\n"),
		csvUpload("黒_あり_2.csv", ",,2024-06-01\n,L,9\n"),
	})
	s.Require().NoError(err)

	snap, err := s.svc.Draft(s.ctx, "2024-06-01")
	s.Require().NoError(err)
	s.Equal(9, snap.Inventory.Get(domain.BlackMark, domain.SizeL))
	s.Equal(1, s.repo.saves, "one save per batch")
}

func (s *InventoryServiceSuite) TestImportWithNothingMergedDoesNotSave() {
	report, err := s.svc.ImportFiles(s.ctx, []importer.Upload{
		csvUpload("白_なし.csv", ",,2024-06-01\n,M,??\n"),
	})
	s.Require().NoError(err)
	s.True(report.AllFailed())
	s.Zero(s.repo.saves)
	s.Zero(s.cache.invalidated)
}

func (s *InventoryServiceSuite) TestImportSaveFailureKeepsMemory() {
	s.repo.saveErr = errors.New("disk full")

	_, err := s.svc.ImportFiles(s.ctx, []importer.Upload{
		csvUpload("白_なし.csv", ",,2024-06-01\n,M,2\n"),
	})
	s.Require().ErrorContains(err, "disk full")

	records, err := s.svc.Snapshots(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *InventoryServiceSuite) TestImportSource() {
	report, err := s.svc.ImportSource(s.ctx, staticSource{
		csvUpload("ホワイトあり.csv", ",,2024-06-03\n,XXL,1\n"),
	})
	s.Require().NoError(err)
	s.Equal(1, report.Imported)
}

func (s *InventoryServiceSuite) TestImportNeverZeroesUnmentionedCells() {
	var inv domain.Inventory
	inv.Set(domain.BlackNoMark, domain.SizeS, 4)
	inv.Set(domain.WhiteNoMark, domain.SizeL, 6)
	_, err := s.svc.SaveManual(s.ctx, "2024-06-01", inv)
	s.Require().NoError(err)

	_, err = s.svc.ImportFiles(s.ctx, []importer.Upload{
		csvUpload("白_なし.csv", ",,2024-06-01\n,M,2\n"),
	})
	s.Require().NoError(err)

	snap, err := s.svc.Draft(s.ctx, "2024-06-01")
	s.Require().NoError(err)
	s.Equal(4, snap.Inventory.Get(domain.BlackNoMark, domain.SizeS))
	s.Equal(6, snap.Inventory.Get(domain.WhiteNoMark, domain.SizeL))
	s.Equal(2, snap.Inventory.Get(domain.WhiteNoMark, domain.SizeM))
}

func (s *InventoryServiceSuite) TestSaveManualValidation() {
	_, err := s.svc.SaveManual(s.ctx, "2024/06/01", domain.Inventory{})
	s.ErrorIs(err, ErrInvalidDate)

	var inv domain.Inventory
	inv.Set(domain.WhiteMark, domain.SizeXL, -1)
	_, err = s.svc.SaveManual(s.ctx, "2024-06-01", inv)
	s.ErrorIs(err, ErrNegativeCount)
	s.Zero(s.repo.saves)
}

func (s *InventoryServiceSuite) TestSaveManualReplacesSnapshot() {
	var first, second domain.Inventory
	first.Set(domain.WhiteMark, domain.SizeS, 3)
	first.Set(domain.WhiteMark, domain.SizeM, 8)
	second.Set(domain.WhiteMark, domain.SizeS, 1)

	_, err := s.svc.SaveManual(s.ctx, "2024-06-01", first)
	s.Require().NoError(err)
	_, err = s.svc.SaveManual(s.ctx, "2024-06-01", second)
	s.Require().NoError(err)

	records := s.reload()
	s.Require().Len(records, 1)
	s.Equal(1, records[0].Inventory.Get(domain.WhiteMark, domain.SizeS))
	s.Zero(records[0].Inventory.Get(domain.WhiteMark, domain.SizeM))
}

func (s *InventoryServiceSuite) TestDraft() {
	snap, err := s.svc.Draft(s.ctx, "2024-06-05")
	s.Require().NoError(err)
	s.Equal("2024-06-05", snap.Date)
	s.Equal(domain.Inventory{}, snap.Inventory)

	var inv domain.Inventory
	inv.Set(domain.BlackMark, domain.Size150cm, 2)
	_, err = s.svc.SaveManual(s.ctx, "2024-06-01", inv)
	s.Require().NoError(err)

	snap, err = s.svc.Draft(s.ctx, "2024-06-05")
	s.Require().NoError(err)
	s.Equal(2, snap.Inventory.Get(domain.BlackMark, domain.Size150cm))

	_, err = s.svc.Draft(s.ctx, "tomorrow")
	s.ErrorIs(err, ErrInvalidDate)
}

func (s *InventoryServiceSuite) TestHistoryUsesCache() {
	var inv domain.Inventory
	inv.Set(domain.WhiteMark, domain.SizeM, 5)
	inv.Set(domain.WhiteMark, domain.SizeL, 2)
	_, err := s.svc.SaveManual(s.ctx, "2024-06-01", inv)
	s.Require().NoError(err)

	filter := HistoryFilter{Variants: []domain.Variant{domain.WhiteMark}}
	rows, err := s.svc.History(s.ctx, filter)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(7, rows[0].Total)

	_, err = s.svc.History(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal(1, s.cache.hits)

	all, err := s.svc.History(s.ctx, HistoryFilter{})
	s.Require().NoError(err)
	s.Len(all, domain.VariantCount)

	_, err = s.svc.History(s.ctx, HistoryFilter{Variants: []domain.Variant{domain.Variant(9)}})
	s.ErrorIs(err, ErrInvalidVariant)
}

func (s *InventoryServiceSuite) TestHistoryFollowsReloadedStore() {
	var before domain.Inventory
	before.Set(domain.WhiteNoMark, domain.SizeM, 5)
	_, err := s.svc.SaveManual(s.ctx, "2024-06-01", before)
	s.Require().NoError(err)

	rows, err := s.svc.History(s.ctx, HistoryFilter{})
	s.Require().NoError(err)
	s.Require().NotEmpty(rows)
	s.Equal("2024-06-01", rows[0].Date)

	var after domain.Inventory
	after.Set(domain.WhiteNoMark, domain.SizeM, 99)
	external := repository.NewFileRepository(s.path)
	s.Require().NoError(external.Save(s.ctx, domain.Collection{{Date: "2030-01-01", Inventory: after}}))

	s.Require().NoError(s.svc.Load(s.ctx))

	snapshots, err := s.svc.Snapshots(s.ctx)
	s.Require().NoError(err)
	rows, err = s.svc.History(s.ctx, HistoryFilter{})
	s.Require().NoError(err)
	s.Equal(snapshots.History(), rows)
	s.Require().NotEmpty(rows)
	s.Equal("2030-01-01", rows[0].Date)
	s.Equal(99, rows[0].Counts[domain.SizeM])
}

func (s *InventoryServiceSuite) TestSeries() {
	for _, date := range []string{"2024-06-02", "2024-06-01"} {
		var inv domain.Inventory
		inv.Set(domain.BlackNoMark, domain.SizeM, len(date))
		_, err := s.svc.SaveManual(s.ctx, date, inv)
		s.Require().NoError(err)
	}

	points, err := s.svc.Series(s.ctx, domain.BlackNoMark)
	s.Require().NoError(err)
	s.Require().Len(points, 2)
	s.Equal("2024-06-01", points[0].Date)
	s.Equal("2024-06-02", points[1].Date)

	_, err = s.svc.Series(s.ctx, domain.Variant(-1))
	s.ErrorIs(err, ErrInvalidVariant)
}

func (s *InventoryServiceSuite) TestLoadCorruptStore() {
	s.Require().NoError(os.WriteFile(s.path, []byte("not json"), 0o644))
	svc := NewInventoryService(repository.NewFileRepository(s.path), nil, nil)
	s.ErrorIs(svc.Load(s.ctx), repository.ErrCorruptStore)
}
