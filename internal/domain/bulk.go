package domain

import "time"

// BulkOperationSummary aggregates the per-item outcomes of one bulk action.
// Every requested id appears in exactly one of Details or Failures; a no-op
// counts as a detail with Changed=false.
type BulkOperationSummary struct {
	Action      string
	Total       int
	Updated     int
	Details     []BulkItemDetail
	Failures    []BulkItemFailure
	Export      *BulkExport
	CompletedAt time.Time
}

// BulkItemDetail records a successful (or no-op) outcome for one entity.
type BulkItemDetail struct {
	ID      string
	Changed bool
	Fields  map[string]any
}

// BulkItemFailure records why one entity could not be processed.
type BulkItemFailure struct {
	ID     string
	Code   string
	Reason string
}

// BulkExport carries the rows and optional rendered CSV for export actions.
type BulkExport struct {
	Columns     []string
	Rows        [][]string
	CSV         string
	DownloadURL string
}
