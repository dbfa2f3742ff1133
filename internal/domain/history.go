package domain

// HistoryRow is one (date, variant) line of the history table.
type HistoryRow struct {
	Date    string  `json:"date"`
	Variant Variant `json:"variant"`
	Counts  Counts  `json:"counts"`
	Total   int     `json:"total"`
}

// SeriesPoint is one date of a variant's time series.
type SeriesPoint struct {
	Date   string `json:"date"`
	Counts Counts `json:"counts"`
}

// History flattens the collection into rows, newest date first and variants
// in canonical order. With no variants given every variant is included.
func (c Collection) History(only ...Variant) []HistoryRow {
	include := Variants()
	if len(only) > 0 {
		include = only
	}

	sorted := c.Sorted()
	rows := make([]HistoryRow, 0, len(sorted)*len(include))
	for _, snap := range sorted {
		for _, v := range include {
			if !v.Valid() {
				continue
			}
			counts := snap.Inventory[v]
			rows = append(rows, HistoryRow{
				Date:    snap.Date,
				Variant: v,
				Counts:  counts,
				Total:   counts.Total(),
			})
		}
	}
	return rows
}

// Series returns the variant's counts by size, oldest date first.
func (c Collection) Series(v Variant) []SeriesPoint {
	if !v.Valid() {
		return nil
	}
	sorted := c.Sorted()
	points := make([]SeriesPoint, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		points = append(points, SeriesPoint{
			Date:   sorted[i].Date,
			Counts: sorted[i].Inventory[v],
		})
	}
	return points
}
