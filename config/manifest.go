package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/termkit/extract"
	"github.com/minios-linux/termkit/store"
)

// Manifest describes the models a module defines or extends.
type Manifest struct {
	Models []ModelDef `yaml:"models"`
}

// ModelDef is one model of a manifest.
type ModelDef struct {
	Model       string          `yaml:"model"`
	Fields      []FieldDef      `yaml:"fields,omitempty"`
	Records     []RecordDef     `yaml:"records,omitempty"`
	Constraints []ConstraintDef `yaml:"constraints,omitempty"`
}

type FieldDef struct {
	Name         string   `yaml:"name"`
	Label        string   `yaml:"label,omitempty"`
	Help         string   `yaml:"help,omitempty"`
	Translatable bool     `yaml:"translatable,omitempty"`
	Selection    []string `yaml:"selection,omitempty"`
}

// RecordDef is a data record. ID is its external id, qualified with the
// module name when it has no dot.
type RecordDef struct {
	ID     string            `yaml:"id,omitempty"`
	ResID  int64             `yaml:"res_id"`
	Values map[string]string `yaml:"values"`
}

type ConstraintDef struct {
	Name     string `yaml:"name"`
	Message  string `yaml:"message"`
	SQL      bool   `yaml:"sql,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	Computed bool   `yaml:"computed,omitempty"`
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, md := range m.Models {
		if md.Model == "" {
			return nil, fmt.Errorf("%s: model #%d has no name", path, i+1)
		}
	}
	return &m, nil
}

func qualify(module, id string) string {
	if id == "" || strings.Contains(id, ".") {
		return id
	}
	return module + "." + id
}

// sources turns the manifest into field, constraint and record sources.
func (m *Manifest) sources(module string) []extract.Source {
	var out []extract.Source
	for _, md := range m.Models {
		var (
			fields       []extract.FieldDef
			translatable []string
		)
		for _, fd := range md.Fields {
			fields = append(fields, extract.FieldDef{
				Name:         fd.Name,
				Label:        fd.Label,
				Help:         fd.Help,
				Translatable: fd.Translatable,
				Selection:    fd.Selection,
			})
			if fd.Translatable {
				translatable = append(translatable, fd.Name)
			}
		}
		if len(fields) > 0 {
			out = append(out, &extract.FieldSource{ModuleName: module, Model: md.Model, Fields: fields})
		}

		if len(md.Constraints) > 0 {
			cs := make([]extract.Constraint, len(md.Constraints))
			for i, c := range md.Constraints {
				cs[i] = extract.Constraint{Name: c.Name, Message: c.Message, SQL: c.SQL, Owner: c.Owner, Computed: c.Computed}
			}
			out = append(out, &extract.ConstraintSource{ModuleName: module, Model: md.Model, Constraints: cs})
		}

		if len(md.Records) > 0 && len(translatable) > 0 {
			recs := make([]extract.Record, len(md.Records))
			for i, r := range md.Records {
				recs[i] = extract.Record{ResID: r.ResID, XMLID: qualify(module, r.ID), Values: r.Values}
			}
			out = append(out, &extract.RecordSource{ModuleName: module, Model: md.Model, Fields: translatable, Records: recs})
		}
	}
	return out
}

// Register records the external ids of every manifest record of the
// selected modules, so that imported rows referring to them resolve.
func (f *File) Register(ctx context.Context, reg *store.Registry, modules []*Module) (int, error) {
	n := 0
	for _, m := range modules {
		if m.Manifest == "" {
			continue
		}
		man, err := LoadManifest(f.manifestPath(m))
		if err != nil {
			return n, err
		}
		for _, md := range man.Models {
			for _, r := range md.Records {
				if r.ID == "" {
					continue
				}
				modName, name, _ := strings.Cut(qualify(m.Name, r.ID), ".")
				ref := store.XMLRef{Module: modName, Name: name, Model: md.Model}
				if err := reg.Register(ctx, ref, r.ResID); err != nil {
					return n, fmt.Errorf("registering %s.%s: %w", modName, name, err)
				}
				n++
			}
		}
	}
	return n, nil
}
