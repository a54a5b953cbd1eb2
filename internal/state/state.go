// Package state persists the generation ledger: one row per completed
// generation plus the last-known output file per page. The output table lets
// a fresh process delete files left behind by pages removed while it was not
// running.
package state

import (
	"context"
	"time"
)

// Generation is one ledger entry.
type Generation struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Outcome        string // success|failed
	PagesRendered  int
	OutputsWritten int
	OutputsDeleted int
	Revision       string
}

// Ledger records generations and tracks the current output file per page.
type Ledger interface {
	// RecordGeneration appends one generation row.
	RecordGeneration(ctx context.Context, g Generation) error

	// SetOutputs upserts the page→output-path mapping for written pages and
	// removes rows for deleted pages, in one transaction.
	SetOutputs(ctx context.Context, written map[string]string, deleted []string) error

	// KnownOutputs returns the full page→output-path mapping.
	KnownOutputs(ctx context.Context) (map[string]string, error)

	// RecentGenerations returns up to limit generations, newest first.
	RecentGenerations(ctx context.Context, limit int) ([]Generation, error)

	// Close releases the underlying store.
	Close() error
}
