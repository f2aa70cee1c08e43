package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/termkit/extract"
)

// dataRoots are the containers of XML data files.
var dataRoots = map[string]bool{"odoo": true, "openerp": true, "data": true}

// Sources builds the extractor sources of the given modules, in module
// order: views, QWeb templates, reports, manifest, then code.
func (f *File) Sources(modules []*Module) ([]extract.Source, error) {
	var out []extract.Source
	for _, m := range modules {
		srcs, err := f.moduleSources(m)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
		out = append(out, srcs...)
	}
	return out, nil
}

func (f *File) moduleSources(m *Module) ([]extract.Source, error) {
	var out []extract.Source

	views, err := f.glob(m, m.Views)
	if err != nil {
		return nil, err
	}
	for _, path := range views {
		root, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, viewSources(m.Name, f.rel(path), root)...)
	}

	qweb, err := f.glob(m, m.QWeb)
	if err != nil {
		return nil, err
	}
	for _, path := range qweb {
		root, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, &extract.QWebSource{ModuleName: m.Name, Name: f.rel(path), Root: root})
	}

	reports, err := f.glob(m, m.Reports)
	if err != nil {
		return nil, err
	}
	for _, path := range reports {
		var format extract.ReportFormat
		switch strings.ToLower(filepath.Ext(path)) {
		case ".rml":
			format = extract.FormatRML
		case ".xsl":
			format = extract.FormatXSL
		default:
			return nil, fmt.Errorf("%s: unknown report type", path)
		}
		root, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, &extract.ReportSource{ModuleName: m.Name, Path: f.rel(path), Format: format, Root: root})
	}

	if m.Manifest != "" {
		man, err := LoadManifest(f.manifestPath(m))
		if err != nil {
			return nil, err
		}
		out = append(out, man.sources(m.Name)...)
	}

	dirs := make([]string, len(m.Code))
	for i, d := range m.Code {
		dirs[i] = filepath.Join(f.AbsPath(m), d)
	}
	files, err := extract.FindSources(dirs)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		out = append(out, &extract.CodeSource{
			ModuleName: m.Name,
			Path:       f.rel(path),
			Content:    content,
			Scanner:    extract.ScannerFor(path),
		})
	}
	return out, nil
}

func (f *File) manifestPath(m *Module) string {
	return filepath.Join(f.AbsPath(m), m.Manifest)
}

func parseFile(path string) (*extract.Node, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	root, err := extract.ParseXML(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// viewSources splits an XML data file into its ir.ui.view records and
// <template> elements. Any other root is a bare view architecture named
// after its model attribute or the file. View terms are generic: they
// carry no record reference.
func viewSources(module, rel string, root *extract.Node) []extract.Source {
	if !dataRoots[root.Tag] {
		name := root.Attr("model")
		if name == "" {
			name = rel
		}
		return []extract.Source{&extract.ViewSource{ModuleName: module, Name: name, Root: root}}
	}

	var out []extract.Source
	root.Walk(func(n *extract.Node) {
		switch {
		case n.Tag == "template":
			out = append(out, &extract.QWebSource{ModuleName: module, Name: rel, Root: n})
		case n.Tag == "record" && n.Attr("model") == "ir.ui.view":
			var model string
			var arch *extract.Node
			for _, c := range n.Children {
				if c.Tag != "field" {
					continue
				}
				switch c.Attr("name") {
				case "model":
					model = strings.TrimSpace(c.Text)
				case "arch":
					arch = c
				}
			}
			if arch == nil {
				return
			}
			if model == "" {
				model = rel
			}
			out = append(out, &extract.ViewSource{ModuleName: module, Name: model, Root: arch})
		}
	})
	return out
}
