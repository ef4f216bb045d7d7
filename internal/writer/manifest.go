package writer

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rmarinbe/argsfuzz/internal/fuzzer"
)

//go:embed schema.sql
var manifestSchemaSQL string

// ManifestWriter records each case as a row in a SQLite corpus manifest.
// A run row groups the cases under a generated run identifier, so several
// runs can share one manifest database.
type ManifestWriter struct {
	db    *sql.DB
	runID string
	seed  int64
	count int
}

// NewManifestWriter opens (creating if needed) the manifest database at
// dbPath and starts a new run.
func NewManifestWriter(dbPath string) (*ManifestWriter, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create manifest directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest database: %w", err)
	}

	// busy_timeout first so later statements wait on locks; WAL keeps
	// concurrent readers out of the writer's way.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(manifestSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init manifest schema: %w", err)
	}

	return &ManifestWriter{db: db, runID: uuid.New().String()}, nil
}

// SetSeed records the run seed before the first write.
func (w *ManifestWriter) SetSeed(seed int64) {
	w.seed = seed
}

// RunID returns the identifier of the current run.
func (w *ManifestWriter) RunID() string {
	return w.runID
}

// Write inserts one case row, creating the run row on first use.
func (w *ManifestWriter) Write(res *fuzzer.CaseResult) error {
	if w.count == 0 {
		if _, err := w.db.Exec(
			"INSERT INTO runs (id, seed) VALUES (?, ?)", w.runID, w.seed); err != nil {
			return fmt.Errorf("insert run row: %w", err)
		}
	}

	valid := 0
	if res.Valid {
		valid = 1
	}
	_, err := w.db.Exec(
		`INSERT INTO cases (run_id, case_index, valid, subcommand, strategy, command_line)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.runID, res.Index, valid, res.Subcommand, res.Strategy, joinTokens(res.Tokens))
	if err != nil {
		return fmt.Errorf("insert case %d: %w", res.Index, err)
	}
	w.count++
	return nil
}

// Close finalizes the run row and closes the database.
func (w *ManifestWriter) Close() (int, error) {
	_, err := w.db.Exec("UPDATE runs SET total_cases = ? WHERE id = ?", w.count, w.runID)
	if closeErr := w.db.Close(); err == nil {
		err = closeErr
	}
	return w.count, err
}

// execWithRetry retries a statement with linear backoff on transient
// "database is locked" errors during concurrent initialization.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if _, err := db.Exec(stmt); err == nil {
			return nil
		} else if !strings.Contains(err.Error(), "database is locked") {
			return err
		} else {
			lastErr = err
		}
		time.Sleep(baseDelay * time.Duration(attempt+1))
	}
	return lastErr
}
