package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
)

type FileRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	path string
	repo *FileRepository
}

func (s *FileRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "data", "inventory_db.json")
	s.repo = NewFileRepository(s.path)
}

func TestFileRepositorySuite(t *testing.T) {
	suite.Run(t, new(FileRepositorySuite))
}

func sample() domain.Collection {
	var older, newer domain.Inventory
	older.Set(domain.WhiteNoMark, domain.SizeM, 5)
	newer.Set(domain.BlackMark, domain.SizeXXL, 2)
	return domain.Collection{
		{Date: "2024-06-01", Inventory: older},
		{Date: "2024-06-02", Inventory: newer},
	}
}

func (s *FileRepositorySuite) TestLoadMissingFileIsEmpty() {
	got, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *FileRepositorySuite) TestRoundTrip() {
	s.Require().NoError(s.repo.Save(s.ctx, sample()))

	got, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("2024-06-02", got[0].Date, "newest first")
	s.Equal(2, got[0].Inventory.Get(domain.BlackMark, domain.SizeXXL))
	s.Equal(5, got[1].Inventory.Get(domain.WhiteNoMark, domain.SizeM))
}

func (s *FileRepositorySuite) TestSaveWritesReadableJSON() {
	s.Require().NoError(s.repo.Save(s.ctx, sample()))

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)
	text := string(data)

	s.True(strings.HasPrefix(text, "[\n  {\n    \"date\": \"2024-06-02\""), text)
	s.Contains(text, domain.WhiteNoMark.Label(), "labels are written verbatim")
	s.NotContains(text, `\u`)
	s.Contains(text, `"150cm": 0`)
}

func (s *FileRepositorySuite) TestSaveEmptyCollection() {
	s.Require().NoError(s.repo.Save(s.ctx, nil))

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)
	s.Equal("[]\n", string(data))
}

func (s *FileRepositorySuite) TestSaveLeavesNoTempFiles() {
	s.Require().NoError(s.repo.Save(s.ctx, sample()))
	s.Require().NoError(s.repo.Save(s.ctx, sample()[:1]))

	entries, err := os.ReadDir(filepath.Dir(s.path))
	s.Require().NoError(err)
	s.Len(entries, 1)

	got, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *FileRepositorySuite) TestCorruptDocuments() {
	cases := map[string]string{
		"not json":       "{oops",
		"bad date":       `[{"date":"2024-13-01","inventory":{}}]`,
		"duplicate date": `[{"date":"2024-06-01","inventory":{}},{"date":"2024-06-01","inventory":{}}]`,
		"unknown size":   `[{"date":"2024-06-01","inventory":{"` + domain.WhiteMark.Label() + `":{"3XL":1}}}]`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			s.Require().NoError(os.MkdirAll(filepath.Dir(s.path), 0o755))
			s.Require().NoError(os.WriteFile(s.path, []byte(body), 0o644))

			_, err := s.repo.Load(s.ctx)
			s.ErrorIs(err, ErrCorruptStore)
		})
	}
}

func (s *FileRepositorySuite) TestLoadZeroFillsMissingCells() {
	body := `[{"date":"2024-06-01","inventory":{"` + domain.BlackNoMark.Label() + `":{"L":3}}}]`
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.path), 0o755))
	s.Require().NoError(os.WriteFile(s.path, []byte(body), 0o644))

	got, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(3, got[0].Inventory.Get(domain.BlackNoMark, domain.SizeL))
	s.Equal(3, got[0].Inventory[domain.BlackNoMark].Total())
	s.Zero(got[0].Inventory[domain.WhiteMark].Total())
}

func TestNewSelectsBackend(t *testing.T) {
	repo, err := New(configFor(t, "file"))
	require.NoError(t, err)
	assert.IsType(t, &FileRepository{}, repo)

	_, err = New(configFor(t, "s3"))
	require.Error(t, err, "s3 without endpoint")

	_, err = New(configFor(t, "ftp"))
	require.Error(t, err)
}
