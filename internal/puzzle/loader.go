package puzzle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// Loader reads puzzles from a directory of `<id>.json` files, one puzzle
// per file, keyed by the 8-char hex id encoded in the filename. Puzzles are
// cached after first load since the on-disk set is read-only for the
// lifetime of the process.
type Loader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Puzzle
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, cache: make(map[string]*Puzzle)}
}

// Load returns the puzzle with the given id, reading it from disk on first
// access and serving the cached value thereafter.
func (l *Loader) Load(id string) (*Puzzle, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("puzzle: invalid id %q, want 8 hex chars", id)
	}

	l.mu.RLock()
	if p, ok := l.cache[id]; ok {
		l.mu.RUnlock()
		return p, nil
	}
	l.mu.RUnlock()

	path := filepath.Join(l.dir, id+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("puzzle: reading %s: %w", path, err)
	}

	var p Puzzle
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("puzzle: parsing %s: %w", path, err)
	}
	p.ID = id
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[id] = &p
	l.mu.Unlock()
	return &p, nil
}

// List returns the ids of every puzzle file in the loader's directory,
// without parsing them.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("puzzle: listing %s: %w", l.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".json" {
			continue
		}
		id := name[:len(name)-len(ext)]
		if idPattern.MatchString(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
