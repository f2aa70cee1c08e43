// Package config loads .termkit.yaml, the project file that declares
// the modules to extract terms from and where the term store lives.
//
// A project without .termkit.yaml can still import, resolve and report
// status; only export needs the module declarations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/termkit/term"
)

// FileName is the config file name looked up in the project root.
const FileName = ".termkit.yaml"

// DefaultDB is the store path used when the config names none.
const DefaultDB = ".termkit/terms.db"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .termkit.yaml structure.
type File struct {
	// Project is written into PO headers (default: root directory name).
	Project string `yaml:"project,omitempty"`
	// Version follows Project in Project-Id-Version.
	Version string `yaml:"version,omitempty"`
	// DB is the store path relative to the project root.
	DB string `yaml:"db,omitempty"`
	// Languages are the exported languages. When empty they are detected
	// from the modules' i18n directories.
	Languages []string `yaml:"languages,omitempty"`
	Modules   []Module `yaml:"modules"`

	root string
}

// Module declares where one module's translatable sources live. Globs
// are relative to Path.
type Module struct {
	Name string `yaml:"name"`
	// Path is the module directory relative to the project root
	// (default: Name).
	Path string `yaml:"path,omitempty"`
	// Views are XML data files or bare view architectures.
	Views []string `yaml:"views,omitempty"`
	// QWeb are template files whose root is a <templates> container.
	QWeb []string `yaml:"qweb,omitempty"`
	// Reports are .rml or .xsl report templates.
	Reports []string `yaml:"reports,omitempty"`
	// Code are directories scanned for source files (default: ".").
	Code []string `yaml:"code,omitempty"`
	// Manifest is a YAML file describing models, fields, records and
	// constraints.
	Manifest string `yaml:"manifest,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads and validates .termkit.yaml from rootDir. It returns nil
// without error when the file does not exist.
func Load(rootDir string) (*File, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(absRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.root = absRoot

	if f.Project == "" {
		f.Project = filepath.Base(absRoot)
	}
	if f.DB == "" {
		f.DB = DefaultDB
	}

	seen := make(map[string]bool)
	for i := range f.Modules {
		m := &f.Modules[i]
		if m.Name == "" {
			return nil, fmt.Errorf("%s: module #%d has no name", path, i+1)
		}
		if m.Name == "all" || strings.ContainsAny(m.Name, "/. ") {
			return nil, fmt.Errorf("%s: invalid module name %q", path, m.Name)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("%s: module %q declared twice", path, m.Name)
		}
		seen[m.Name] = true
		if m.Path == "" {
			m.Path = m.Name
		}
		if m.Code == nil {
			m.Code = []string{"."}
		}
	}

	for i, lang := range f.Languages {
		norm, err := term.NormalizeLang(lang)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if norm == "" {
			return nil, fmt.Errorf("%s: empty language code", path)
		}
		f.Languages[i] = norm
	}

	return &f, nil
}

// Root returns the absolute project root.
func (f *File) Root() string { return f.root }

// DBPath returns the absolute store path.
func (f *File) DBPath() string {
	if filepath.IsAbs(f.DB) {
		return f.DB
	}
	return filepath.Join(f.root, f.DB)
}

// Module returns the module declaration by name.
func (f *File) Module(name string) (*Module, bool) {
	for i := range f.Modules {
		if f.Modules[i].Name == name {
			return &f.Modules[i], true
		}
	}
	return nil, false
}

// Select returns the declared modules named in names. Empty names or
// "all" select every module; unknown names are an error.
func (f *File) Select(names []string) ([]*Module, error) {
	all := len(names) == 0
	for _, n := range names {
		if n == "all" {
			all = true
		}
	}
	var out []*Module
	if all {
		for i := range f.Modules {
			out = append(out, &f.Modules[i])
		}
		return out, nil
	}
	for _, n := range names {
		m, ok := f.Module(n)
		if !ok {
			return nil, fmt.Errorf("unknown module %q", n)
		}
		out = append(out, m)
	}
	return out, nil
}

// AbsPath returns the module directory.
func (f *File) AbsPath(m *Module) string {
	return filepath.Join(f.root, m.Path)
}

// I18nDir returns the directory holding the module's PO files.
func (f *File) I18nDir(m *Module) string {
	return filepath.Join(f.AbsPath(m), "i18n")
}

// AllLanguages returns the configured languages, or the languages found
// as <lang>.po files in the modules' i18n directories.
func (f *File) AllLanguages() []string {
	if len(f.Languages) > 0 {
		return f.Languages
	}
	seen := make(map[string]bool)
	var all []string
	for i := range f.Modules {
		for _, lang := range detectLanguages(f.I18nDir(&f.Modules[i])) {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}
	sort.Strings(all)
	return all
}

// detectLanguages finds language codes from .po files in a directory.
func detectLanguages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".po") {
			continue
		}
		lang, err := term.NormalizeLang(strings.TrimSuffix(name, ".po"))
		if err != nil || lang == "" {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// glob expands module-relative patterns into sorted absolute paths.
func (f *File) glob(m *Module, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(f.AbsPath(m), p))
		if err != nil {
			return nil, fmt.Errorf("module %s: bad pattern %q: %w", m.Name, p, err)
		}
		for _, path := range matches {
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// rel returns path relative to the project root in slash form.
func (f *File) rel(path string) string {
	r, err := filepath.Rel(f.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}
