// Package lockfile implements termkit.lock, a lock file that records MD5
// checksums of the terms each module exported last. The status command
// compares a fresh extraction against it to report new, changed and
// removed terms before the next export.
//
// The lock file is stored alongside .termkit.yaml as termkit.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/termkit/term"
)

// LockFileName is the default lock file name.
const LockFileName = "termkit.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the termkit.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // module -> term key -> md5

	mu   sync.Mutex
	path string
}

// Diff lists term keys that differ from the lock file, sorted.
type Diff struct {
	Added   []string
	Changed []string
	Removed []string
}

// Empty reports whether nothing differs.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", path, lf.Version)
	}

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TermKey identifies one exported term: its target and source text.
// Format: "type:name:ref|source".
func TermKey(target term.Target, source string) string {
	return target.String() + "|" + source
}

// TermContent is the hashed content of a term. Comments are included so
// that a changed format flag or context is reported.
func TermContent(source string, comments []string) string {
	if len(comments) == 0 {
		return source
	}
	return source + "\x00" + strings.Join(comments, "\x00")
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// IsChanged checks if a term is new or its content has changed.
func (lf *LockFile) IsChanged(module, key, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[module]
	if !ok {
		return true
	}
	oldHash, ok := keys[key]
	if !ok {
		return true
	}
	return oldHash != Hash(content)
}

// Update records the checksum of one term.
func (lf *LockFile) Update(module, key, content string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[module] == nil {
		lf.Checksums[module] = make(map[string]string)
	}
	lf.Checksums[module][key] = Hash(content)
}

// Snapshot replaces the module's checksums with entries (key -> content).
func (lf *LockFile) Snapshot(module string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys := make(map[string]string, len(entries))
	for key, content := range entries {
		keys[key] = Hash(content)
	}
	lf.Checksums[module] = keys
}

// Compare reports how entries (key -> content) differ from the module's
// recorded checksums.
func (lf *LockFile) Compare(module string, entries map[string]string) Diff {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[module]
	var d Diff
	for key, content := range entries {
		old, ok := existing[key]
		switch {
		case !ok:
			d.Added = append(d.Added, key)
		case old != Hash(content):
			d.Changed = append(d.Changed, key)
		}
	}
	for key := range existing {
		if _, ok := entries[key]; !ok {
			d.Removed = append(d.Removed, key)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	return d
}

// RemoveModule removes all checksums of a module.
func (lf *LockFile) RemoveModule(module string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, module)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of modules and total keys in the lock file.
func (lf *LockFile) Stats() (modules, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	modules = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Modules returns the sorted module names.
func (lf *LockFile) Modules() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	modules := make([]string, 0, len(lf.Checksums))
	for m := range lf.Checksums {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	modules, keys := lf.Stats()
	if modules == 0 {
		return "empty"
	}

	var parts []string
	for _, m := range lf.Modules() {
		lf.mu.Lock()
		n := len(lf.Checksums[m])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d terms", m, n))
	}
	return fmt.Sprintf("%d modules, %d terms (%s)", modules, keys, strings.Join(parts, ", "))
}
