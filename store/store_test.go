// ABOUTME: Round-trip tests for the analysis-run cache against a temp-dir SQLite file
// ABOUTME: Fingerprint tests use os.Chtimes to make mtime-driven cache keys deterministic

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutThenLatestRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.Put(ctx, "fp-1", "/tmp/a.heapsnapshot",
		map[string]int{"nodeCount": 3}, map[string]int{"total": 40}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	sum, err := s.Latest(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, runID, sum.RunID)
	assert.Equal(t, "/tmp/a.heapsnapshot", sum.SourcePath)
	assert.JSONEq(t, `{"nodeCount":3}`, string(sum.StaticData))
	assert.JSONEq(t, `{"total":40}`, string(sum.Statistics))
	assert.Nil(t, sum.Aggregates)
}

func TestLatestReturnsNilForUnknownFingerprint(t *testing.T) {
	s := openTestStore(t)
	sum, err := s.Latest(context.Background(), "no-such-fingerprint")
	require.NoError(t, err)
	assert.Nil(t, sum)
}

func TestLatestPicksTheMostRecentRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "fp-2", "/tmp/old.heapsnapshot", map[string]int{"v": 1}, map[string]int{}, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond) // created_at has nanosecond resolution but ordering must be strict
	newID, err := s.Put(ctx, "fp-2", "/tmp/new.heapsnapshot", map[string]int{"v": 2}, map[string]int{}, nil)
	require.NoError(t, err)

	sum, err := s.Latest(ctx, "fp-2")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, newID, sum.RunID)
	assert.Equal(t, "/tmp/new.heapsnapshot", sum.SourcePath)
}

func TestPruneKeepsOnlyTheMostRecentRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "fp-3", "/tmp/old.heapsnapshot", map[string]int{}, map[string]int{}, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newID, err := s.Put(ctx, "fp-3", "/tmp/new.heapsnapshot", map[string]int{}, map[string]int{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Prune(ctx, "fp-3"))

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_runs WHERE fingerprint = ?`, "fp-3").Scan(&count))
	assert.Equal(t, 1, count)

	sum, err := s.Latest(ctx, "fp-3")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, newID, sum.RunID)
}

func TestFingerprintIsStableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.heapsnapshot")
	require.NoError(t, os.WriteFile(path, []byte("same content"), 0o644))
	mtime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	fp1, err := Fingerprint(path)
	require.NoError(t, err)
	fp2, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.heapsnapshot")
	pathB := filepath.Join(dir, "b.heapsnapshot")
	mtime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, os.WriteFile(pathA, []byte("content one"), 0o644))
	require.NoError(t, os.Chtimes(pathA, mtime, mtime))
	require.NoError(t, os.WriteFile(pathB, []byte("content two!"), 0o644))
	require.NoError(t, os.Chtimes(pathB, mtime, mtime))

	fpA, err := Fingerprint(pathA)
	require.NoError(t, err)
	fpB, err := Fingerprint(pathB)
	require.NoError(t, err)
	assert.NotEqual(t, fpA, fpB)
}
