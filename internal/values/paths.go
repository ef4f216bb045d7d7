package values

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

// Entry is one enumerable filesystem entry under a scanned path.
type Entry struct {
	Name  string // Base name
	Path  string // Full path
	IsDir bool
}

// PathLister enumerates a directory's entries. An unreadable or missing path
// returns an error; callers treat that as "does not exist" and synthesize a
// name instead. Listings are cacheable: a given path is stable for the
// duration of a run.
type PathLister interface {
	List(path string) ([]Entry, error)
}

// CachedLister lists directories through the OS and memoizes results, so a
// path referenced by many cases is read once per run. Safe for concurrent
// use by generation workers.
type CachedLister struct {
	mu    sync.Mutex
	cache map[string][]Entry
	errs  map[string]error
}

// NewCachedLister creates an empty lister cache.
func NewCachedLister() *CachedLister {
	return &CachedLister{
		cache: make(map[string][]Entry),
		errs:  make(map[string]error),
	}
}

// List returns the entries under path, from cache when available.
func (l *CachedLister) List(path string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err, ok := l.errs[path]; ok {
		return nil, err
	}
	if entries, ok := l.cache[path]; ok {
		return entries, nil
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		l.errs[path] = err
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{
			Name:  de.Name(),
			Path:  filepath.Join(path, de.Name()),
			IsDir: de.IsDir(),
		})
	}
	l.cache[path] = entries
	return entries, nil
}

// path produces a file or directory value: an existing entry under the
// spec's path when one matches, otherwise a synthesized name recorded for
// the host tool's optional dummy creation.
func (g *Generator) path(spec *models.ValueSpec, wantDir bool) string {
	if spec.Path != "" && g.lister != nil {
		if entries, err := g.lister.List(spec.Path); err == nil {
			matches := filterEntries(entries, spec.Pattern, wantDir)
			if len(matches) > 0 {
				return matches[g.rng.Intn(len(matches))].Path
			}
		}
		// Unreadable or empty: fall through to synthesis.
	}
	return g.synthesizePath(spec, wantDir)
}

// filterEntries keeps entries of the wanted type whose name or full path
// matches the pattern. An empty or invalid pattern matches everything.
func filterEntries(entries []Entry, pattern string, wantDir bool) []Entry {
	var re *regexp.Regexp
	if pattern != "" {
		re, _ = regexp.Compile(pattern)
	}
	var out []Entry
	for _, e := range entries {
		if e.IsDir != wantDir {
			continue
		}
		if re == nil || re.MatchString(e.Name) || re.MatchString(e.Path) {
			out = append(out, e)
		}
	}
	return out
}

// synthesizePath invents a path under the spec's base (or the system temp
// directory), shaped by the pattern when one is given.
func (g *Generator) synthesizePath(spec *models.ValueSpec, wantDir bool) string {
	base := spec.Path
	if base == "" {
		base = os.TempDir()
	}

	var name string
	switch {
	case spec.Pattern != "":
		if s, err := GenerateFromPattern(g.rng, spec.Pattern); err == nil && s != "" {
			name = filepath.Base(s)
		} else {
			g.Fallbacks++
			name = FallbackToken(g.rng)
		}
	case wantDir:
		name = fmt.Sprintf("dir_%d", 1+g.rng.Intn(9999))
	default:
		name = fmt.Sprintf("file_%d.dat", 1+g.rng.Intn(9999))
	}

	full := filepath.Join(base, name)
	g.Synthesized = append(g.Synthesized, full)
	return full
}
