package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
)

// gridSheet is a Sheet over literal rows; cells starting with "date:" are
// dates in DateLayout.
type gridSheet [][]string

func (g gridSheet) Rows() int { return len(g) }

func (g gridSheet) Cols(row int) int {
	if row < 1 || row > len(g) {
		return 0
	}
	return len(g[row-1])
}

func (g gridSheet) Value(row, col int) string {
	if col < 1 || col > g.Cols(row) {
		return ""
	}
	return g[row-1][col-1]
}

func (g gridSheet) Date(row, col int) (time.Time, bool) {
	v := g.Value(row, col)
	if len(v) < 5 || v[:5] != "date:" {
		return time.Time{}, false
	}
	t, err := time.Parse(domain.DateLayout, v[5:])
	return t, err == nil
}

func TestParseReadsCountsUnderHeader(t *testing.T) {
	sheet := gridSheet{
		{"在庫管理表"},
		{},
		{"", "商品", "date:2024-06-01", "date:2024-06-02"},
		{"", "Mサイズ", "5", "7"},
		{"", "備考", "x", "y"},
		{"", "L", "", "3"},
		{"", "XL", "2.9"},
	}

	res, err := Parse(sheet, DefaultLayout())
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 3, res.HeaderRow)
	assert.Equal(t, map[string]map[domain.Size]int{
		"2024-06-01": {domain.SizeM: 5, domain.SizeL: 0, domain.SizeXL: 2},
		"2024-06-02": {domain.SizeM: 7, domain.SizeL: 3, domain.SizeXL: 0},
	}, res.Counts)
}

func TestParseWithoutHeader(t *testing.T) {
	sheet := gridSheet{
		{"在庫管理表"},
		{"", "M", "5"},
	}
	res, err := Parse(sheet, DefaultLayout())
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Counts)
}

func TestParseOnlyScansLeadingRows(t *testing.T) {
	sheet := make(gridSheet, 0, 12)
	for i := 0; i < 9; i++ {
		sheet = append(sheet, []string{"note"})
	}
	sheet = append(sheet,
		[]string{"", "", "date:2024-06-01"},
		[]string{"", "S", "4"},
	)

	res, err := Parse(sheet, DefaultLayout())
	require.NoError(t, err)
	assert.False(t, res.Found, "header on row 10 is outside the default scan")

	res, err = Parse(sheet, Layout{HeaderScanRows: 10})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 4, res.Counts["2024-06-01"][domain.SizeS])
}

func TestParseUsesFirstHeaderRowOnly(t *testing.T) {
	sheet := gridSheet{
		{"", "", "date:2024-06-01"},
		{"", "", "date:2024-06-09"},
		{"", "M", "1"},
	}
	res, err := Parse(sheet, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 1, res.HeaderRow)
	assert.Contains(t, res.Counts, "2024-06-01")
	assert.NotContains(t, res.Counts, "2024-06-09")
}

func TestParseLabelColumnIsConfigurable(t *testing.T) {
	sheet := gridSheet{
		{"size", "date:2024-06-01"},
		{"XXL", "6"},
	}
	res, err := Parse(sheet, Layout{LabelColumn: 1})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Counts["2024-06-01"][domain.SizeXXL])
}

func TestParseRejectsNonNumericCount(t *testing.T) {
	sheet := gridSheet{
		{"", "", "date:2024-06-01", "date:2024-06-02"},
		{"", "M", "5", "many"},
	}
	_, err := Parse(sheet, DefaultLayout())

	var cellErr *CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, "D2", cellErr.Cell)
	assert.Equal(t, "many", cellErr.Value)
}

func TestParseRejectsOverflowingCount(t *testing.T) {
	sheet := gridSheet{
		{"", "", "date:2024-06-01"},
		{"", "L", "1e20"},
	}
	_, err := Parse(sheet, DefaultLayout())

	var cellErr *CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, "C2", cellErr.Cell)
	assert.Equal(t, "1e20", cellErr.Value)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{raw: "", want: 0, ok: true},
		{raw: " 12 ", want: 12, ok: true},
		{raw: "3.0", want: 3, ok: true},
		{raw: "4.7", want: 4, ok: true},
		{raw: "１５", want: 15, ok: true},
		{raw: "n/a", ok: false},
		{raw: "NaN", ok: false},
		{raw: "1e20", ok: false},
		{raw: "-1e20", ok: false},
		{raw: "9223372036854775808", ok: false},
	}
	for _, tt := range tests {
		got, ok := parseCount(tt.raw)
		require.Equal(t, tt.ok, ok, tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.raw)
		}
	}
}
