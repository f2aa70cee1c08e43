package extract

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// ignoredDirs are never descended into when looking for code.
var ignoredDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "__pycache__": true, "vendor": true,
	".tox": true, ".venv": true, "venv": true, ".eggs": true,
	"dist": true, "build": true,
}

// scanners maps file extensions to scanner constructors.
var scanners = map[string]func() Scanner{
	".py":  func() Scanner { return NewPythonScanner() },
	".js":  func() Scanner { return NewJSScanner() },
	".mjs": func() Scanner { return NewJSScanner() },
	".ts":  func() Scanner { return NewJSScanner() },
	".go":  func() Scanner { return NewGoScanner("") },
}

// ScannerFor returns the scanner for a file, or nil when the extension
// is not code. Go test files are not code.
func ScannerFor(path string) Scanner {
	if strings.HasSuffix(path, "_test.go") {
		return nil
	}
	if mk, ok := scanners[filepath.Ext(path)]; ok {
		return mk()
	}
	return nil
}

// FindSources walks dirs and returns the sorted, deduplicated paths of
// every file ScannerFor accepts. Unreadable entries are skipped.
func FindSources(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			switch {
			case err != nil:
				if d != nil && d.IsDir() && path != dir {
					return filepath.SkipDir
				}
				return nil
			case d.IsDir():
				if path != dir && ignoredDirs[d.Name()] {
					return filepath.SkipDir
				}
			case ScannerFor(path) != nil:
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
