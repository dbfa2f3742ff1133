package service

type FileStatus string

const (
	StatusImported FileStatus = "imported"
	StatusSkipped  FileStatus = "skipped"
	StatusFailed   FileStatus = "failed"
)

// FileResult is the outcome for one file of an import batch.
type FileResult struct {
	Name    string     `json:"name"`
	Status  FileStatus `json:"status"`
	Variant string     `json:"variant,omitempty"`
	Dates   int        `json:"dates,omitempty"`
	Cells   int        `json:"cells,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type ImportReport struct {
	Files     []FileResult `json:"files"`
	Imported  int          `json:"imported"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
	Snapshots int          `json:"snapshots"`
}

func (r *ImportReport) add(res FileResult) {
	r.Files = append(r.Files, res)
	switch res.Status {
	case StatusImported:
		r.Imported++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// AllFailed reports whether the batch had files and none of them parsed.
func (r *ImportReport) AllFailed() bool {
	return len(r.Files) > 0 && r.Failed == len(r.Files)
}
