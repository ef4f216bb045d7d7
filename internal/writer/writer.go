// Package writer persists generated cases. Three output modes are
// supported: a single corpus file (one case per line), a directory (one
// file per case), and a SQLite manifest database.
//
// Token joining happens here, outside the generation core: a case arrives
// as an ordered token sequence and is serialized as a space-joined line.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/rmarinbe/argsfuzz/internal/fuzzer"
)

// Format selects the output mode.
type Format string

const (
	FormatFile      Format = "file"
	FormatDirectory Format = "directory"
	FormatSQLite    Format = "sqlite"
)

// ValidFormat reports whether f names a known output format.
func ValidFormat(f Format) bool {
	switch f {
	case FormatFile, FormatDirectory, FormatSQLite:
		return true
	}
	return false
}

// Writer receives finished cases in index order and persists them.
type Writer interface {
	// Write persists one case.
	Write(res *fuzzer.CaseResult) error
	// Close flushes and releases resources, returning the case count.
	Close() (int, error)
}

// New creates a writer for the given format and output path.
func New(format Format, path string) (Writer, error) {
	switch format {
	case FormatFile:
		return newFileWriter(path)
	case FormatDirectory:
		return newDirWriter(path)
	case FormatSQLite:
		return NewManifestWriter(path)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// joinTokens serializes a token sequence to one corpus line.
func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

// fileWriter writes one line per case to a single corpus file, replacing any
// previous contents. An advisory lock serializes whole runs against the same
// path, so a concurrent run waits its turn and then overwrites rather than
// interleaving lines.
type fileWriter struct {
	file  *os.File
	lock  *flock.Flock
	count int
}

func newFileWriter(path string) (*fileWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock corpus file %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open corpus file: %w", err)
	}

	return &fileWriter{file: file, lock: lock}, nil
}

func (w *fileWriter) Write(res *fuzzer.CaseResult) error {
	if _, err := fmt.Fprintln(w.file, joinTokens(res.Tokens)); err != nil {
		return fmt.Errorf("write case %d: %w", res.Index, err)
	}
	w.count++
	return nil
}

func (w *fileWriter) Close() (int, error) {
	err := w.file.Close()
	if unlockErr := w.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return w.count, err
}

// dirWriter writes one file per case, named test_NNNNNN.txt by case index.
type dirWriter struct {
	dir   string
	count int
}

func newDirWriter(dir string) (*dirWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create corpus directory: %w", err)
	}
	return &dirWriter{dir: dir}, nil
}

func (w *dirWriter) Write(res *fuzzer.CaseResult) error {
	path := filepath.Join(w.dir, fmt.Sprintf("test_%06d.txt", res.Index))
	line := joinTokens(res.Tokens) + "\n"
	if err := os.WriteFile(path, []byte(line), 0644); err != nil {
		return fmt.Errorf("write case %d: %w", res.Index, err)
	}
	w.count++
	return nil
}

func (w *dirWriter) Close() (int, error) {
	return w.count, nil
}
