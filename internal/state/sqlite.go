package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteLedger opens (or creates) the ledger database.
// Use ":memory:" for an in-memory ledger, or a file path for persistence.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLedger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages_rendered INTEGER NOT NULL,
		outputs_written INTEGER NOT NULL,
		outputs_deleted INTEGER NOT NULL,
		revision TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_generations_finished ON generations(finished_at);
	CREATE TABLE IF NOT EXISTS outputs (
		page_path TEXT PRIMARY KEY,
		output_path TEXT NOT NULL
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

// RecordGeneration appends one generation row.
func (l *SQLiteLedger) RecordGeneration(ctx context.Context, g Generation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO generations (id, started_at, finished_at, outcome, pages_rendered, outputs_written, outputs_deleted, revision)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.StartedAt.Unix(), g.FinishedAt.Unix(), g.Outcome,
		g.PagesRendered, g.OutputsWritten, g.OutputsDeleted, g.Revision,
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

// SetOutputs applies written upserts and deleted removals transactionally.
func (l *SQLiteLedger) SetOutputs(ctx context.Context, written map[string]string, deleted []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for pagePath, outputPath := range written {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outputs (page_path, output_path) VALUES (?, ?)
			 ON CONFLICT(page_path) DO UPDATE SET output_path = excluded.output_path`,
			pagePath, outputPath,
		); err != nil {
			return fmt.Errorf("upsert output %s: %w", pagePath, err)
		}
	}
	for _, pagePath := range deleted {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM outputs WHERE page_path = ?", pagePath,
		); err != nil {
			return fmt.Errorf("delete output %s: %w", pagePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outputs: %w", err)
	}
	return nil
}

// KnownOutputs returns the full page→output-path mapping.
func (l *SQLiteLedger) KnownOutputs(ctx context.Context) (map[string]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx, "SELECT page_path, output_path FROM outputs")
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var pagePath, outputPath string
		if err := rows.Scan(&pagePath, &outputPath); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		out[pagePath] = outputPath
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// RecentGenerations returns up to limit generations, newest first.
func (l *SQLiteLedger) RecentGenerations(ctx context.Context, limit int) ([]Generation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, pages_rendered, outputs_written, outputs_deleted, revision
		 FROM generations ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var gens []Generation
	for rows.Next() {
		var g Generation
		var started, finished int64
		if err := rows.Scan(&g.ID, &started, &finished, &g.Outcome,
			&g.PagesRendered, &g.OutputsWritten, &g.OutputsDeleted, &g.Revision); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		g.StartedAt = unixTime(started)
		g.FinishedAt = unixTime(finished)
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return gens, nil
}

func unixTime(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}
