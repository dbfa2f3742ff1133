package domain

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the layout of snapshot date keys. Keys in this layout sort
// lexicographically in date order.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a real calendar date in DateLayout.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// Snapshot is the inventory state for one calendar date.
type Snapshot struct {
	Date      string    `json:"date"`
	Inventory Inventory `json:"inventory"`
}

// SheetCounts is what one imported file contributes: per-date counts for
// the sizes the file lists, all for a single variant.
type SheetCounts struct {
	Source  string
	Variant Variant
	Counts  map[string]map[Size]int
}

// Cells returns how many (date, size) cells the sheet sets.
func (sc SheetCounts) Cells() int {
	n := 0
	for _, sizes := range sc.Counts {
		n += len(sizes)
	}
	return n
}

// Collection is the full history, unique by date. Every method that changes
// it returns a new collection sorted newest first and leaves the receiver
// untouched.
type Collection []Snapshot

func (c Collection) clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

func (c Collection) sorted() Collection {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Date > c[j].Date })
	return c
}

// Sorted returns a copy ordered newest first.
func (c Collection) Sorted() Collection {
	return c.clone().sorted()
}

// Validate checks that every date key is well formed and unique.
func (c Collection) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i, snap := range c {
		if !ValidDate(snap.Date) {
			return fmt.Errorf("record %d: invalid date %q", i, snap.Date)
		}
		if _, dup := seen[snap.Date]; dup {
			return fmt.Errorf("record %d: duplicate date %s", i, snap.Date)
		}
		seen[snap.Date] = struct{}{}
	}
	return nil
}

func (c Collection) Find(date string) (Snapshot, bool) {
	for _, snap := range c {
		if snap.Date == date {
			return snap, true
		}
	}
	return Snapshot{}, false
}

// Latest returns the snapshot with the greatest date.
func (c Collection) Latest() (Snapshot, bool) {
	var (
		latest Snapshot
		found  bool
	)
	for _, snap := range c {
		if !found || snap.Date > latest.Date {
			latest, found = snap, true
		}
	}
	return latest, found
}

// Draft is the starting point for editing date: the stored snapshot when
// one exists, otherwise a copy of the most recent snapshot's counts,
// otherwise all zeros.
func (c Collection) Draft(date string) Snapshot {
	if snap, ok := c.Find(date); ok {
		return snap
	}
	draft := Snapshot{Date: date}
	if latest, ok := c.Latest(); ok {
		draft.Inventory = latest.Inventory
	}
	return draft
}

// UpsertManual replaces the whole snapshot for date.
func (c Collection) UpsertManual(date string, inv Inventory) Collection {
	out := make(Collection, 0, len(c)+1)
	for _, snap := range c {
		if snap.Date != date {
			out = append(out, snap)
		}
	}
	out = append(out, Snapshot{Date: date, Inventory: inv})
	return out.sorted()
}

// MergeImport writes every imported (date, variant, size) cell into the
// matching snapshot, creating zero-filled snapshots for new dates. Cells the
// batch does not mention are left alone. Sheets are applied in order, so a
// later sheet overwrites an earlier one on the same cell.
func (c Collection) MergeImport(batch ...SheetCounts) Collection {
	out := c.clone()
	index := make(map[string]int, len(out))
	for i, snap := range out {
		index[snap.Date] = i
	}

	for _, sheet := range batch {
		for date, sizes := range sheet.Counts {
			for size, n := range sizes {
				i, ok := index[date]
				if !ok {
					out = append(out, Snapshot{Date: date})
					i = len(out) - 1
					index[date] = i
				}
				out[i].Inventory.Set(sheet.Variant, size, n)
			}
		}
	}
	return out.sorted()
}
