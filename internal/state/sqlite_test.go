package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLedgerRecordAndListGenerations(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"gen-1", "gen-2", "gen-3"} {
		require.NoError(t, l.RecordGeneration(ctx, Generation{
			ID:             id,
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			FinishedAt:     base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Outcome:        "success",
			PagesRendered:  i + 1,
			OutputsWritten: i + 1,
			Revision:       "abc12345",
		}))
	}

	gens, err := l.RecentGenerations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, gens, 2)
	require.Equal(t, "gen-3", gens[0].ID)
	require.Equal(t, "gen-2", gens[1].ID)
	require.Equal(t, 3, gens[0].PagesRendered)
	require.Equal(t, base.Add(2*time.Minute), gens[0].StartedAt)
}

func TestLedgerOutputsUpsertAndDelete(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	require.NoError(t, l.SetOutputs(ctx, map[string]string{
		"a.md": "a.html",
		"b.md": "b.html",
	}, nil))

	// Re-writing a page replaces its output path.
	require.NoError(t, l.SetOutputs(ctx, map[string]string{
		"a.md": "posts/a/index.html",
	}, []string{"b.md"}))

	known, err := l.KnownOutputs(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.md": "posts/a/index.html"}, known)
}

func TestLedgerEmpty(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	known, err := l.KnownOutputs(ctx)
	require.NoError(t, err)
	require.Empty(t, known)

	gens, err := l.RecentGenerations(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, gens)
}
