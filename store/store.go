// ABOUTME: SQLite-backed cache of analysis summaries keyed by a cheap source-file fingerprint
// ABOUTME: Lets repeated CLI runs against the same snapshot file skip re-running Initialize

package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is a small SQLite-backed cache mapping a source file's fingerprint
// to the JSON-serialized analysis summary computed for it.
type Store struct {
	db *sql.DB
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id      TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	source_path TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	static_data BLOB NOT NULL,
	statistics  BLOB NOT NULL,
	aggregates  BLOB
);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_fingerprint ON analysis_runs(fingerprint);
`

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// modernc.org/sqlite serializes writers internally; a single connection
	// avoids SQLITE_BUSY from concurrent writers inside this process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DefaultPath returns $XDG_CACHE_HOME/heapsnap/cache.db, falling back to
// $HOME/.cache when XDG_CACHE_HOME is unset.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("store: resolving home dir: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "heapsnap", "cache.db"), nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

const fingerprintSampleSize = 4096

// Fingerprint derives a cache key for path from its size, mtime, and a
// digest of its first and last 4KiB, so computing it never requires reading
// a multi-hundred-MB snapshot file in full.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%d:%d:", st.Size(), st.ModTime().UnixNano())

	head := make([]byte, fingerprintSampleSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	h.Write(head[:n])

	if st.Size() > fingerprintSampleSize {
		tailOffset := st.Size() - fingerprintSampleSize
		if tailOffset < int64(n) {
			tailOffset = int64(n)
		}
		if _, err := f.Seek(tailOffset, io.SeekStart); err != nil {
			return "", err
		}
		tail := make([]byte, fingerprintSampleSize)
		tn, err := io.ReadFull(f, tail)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return "", err
		}
		h.Write(tail[:tn])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Summary is one cached analysis run. StaticData/Statistics/Aggregates are
// the already-JSON-marshaled snapshot.StaticData, snapshot.Statistics, and
// the "allObjects" aggregate's ByClassName map respectively.
type Summary struct {
	RunID      string
	SourcePath string
	CreatedAt  time.Time
	StaticData json.RawMessage
	Statistics json.RawMessage
	Aggregates json.RawMessage
}

// Put marshals staticData/statistics/aggregates to JSON and records them
// under fingerprint, tagging the row with a fresh UUID. aggregates may be
// nil.
func (s *Store) Put(ctx context.Context, fingerprint, sourcePath string, staticData, statistics, aggregates any) (string, error) {
	sdBytes, err := json.Marshal(staticData)
	if err != nil {
		return "", fmt.Errorf("store: marshaling static data: %w", err)
	}
	statBytes, err := json.Marshal(statistics)
	if err != nil {
		return "", fmt.Errorf("store: marshaling statistics: %w", err)
	}
	var aggBytes []byte
	if aggregates != nil {
		aggBytes, err = json.Marshal(aggregates)
		if err != nil {
			return "", fmt.Errorf("store: marshaling aggregates: %w", err)
		}
	}

	runID := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (run_id, fingerprint, source_path, created_at, static_data, statistics, aggregates)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		// Fixed-width fraction so ORDER BY created_at sorts chronologically.
		runID, fingerprint, sourcePath, time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"), sdBytes, statBytes, aggBytes)
	if err != nil {
		return "", fmt.Errorf("store: inserting run: %w", err)
	}
	return runID, nil
}

// Latest returns the most recently recorded Summary for fingerprint, or nil
// if nothing has been cached for it.
func (s *Store) Latest(ctx context.Context, fingerprint string) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, source_path, created_at, static_data, statistics, aggregates
		 FROM analysis_runs WHERE fingerprint = ? ORDER BY created_at DESC LIMIT 1`,
		fingerprint)

	var (
		sum                  Summary
		createdAt            string
		sdBytes, statBytes   []byte
		aggBytes             []byte
	)
	err := row.Scan(&sum.RunID, &sum.SourcePath, &createdAt, &sdBytes, &statBytes, &aggBytes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: querying latest run: %w", err)
	}

	sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("store: parsing created_at: %w", err)
	}
	sum.StaticData = json.RawMessage(sdBytes)
	sum.Statistics = json.RawMessage(statBytes)
	if aggBytes != nil {
		sum.Aggregates = json.RawMessage(aggBytes)
	}
	return &sum, nil
}

// Prune deletes every run for fingerprint except the most recent, keeping
// the cache from growing unboundedly across repeated re-analyses of the
// same file.
func (s *Store) Prune(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_runs WHERE fingerprint = ? AND run_id NOT IN (
			SELECT run_id FROM analysis_runs WHERE fingerprint = ? ORDER BY created_at DESC LIMIT 1
		)`, fingerprint, fingerprint)
	if err != nil {
		return fmt.Errorf("store: pruning old runs: %w", err)
	}
	return nil
}
