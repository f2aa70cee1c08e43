package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/termkit/extract"
	"github.com/minios-linux/termkit/store"
	"github.com/minios-linux/termkit/term"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f != nil {
		t.Fatalf("Load = %+v, want nil", f)
	}
}

func TestLoadDefaultsAndValidation(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), `
languages: [fr, pt-br]
modules:
  - name: sale
`)
		f, err := Load(dir)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if f.Project != filepath.Base(dir) {
			t.Fatalf("Project = %q, want %q", f.Project, filepath.Base(dir))
		}
		if got, want := f.DBPath(), filepath.Join(dir, DefaultDB); got != want {
			t.Fatalf("DBPath() = %q, want %q", got, want)
		}
		if !reflect.DeepEqual(f.Languages, []string{"fr", "pt_BR"}) {
			t.Fatalf("Languages = %v", f.Languages)
		}
		m := f.Modules[0]
		if m.Path != "sale" || !reflect.DeepEqual(m.Code, []string{"."}) {
			t.Fatalf("module defaults = %+v", m)
		}
	})

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no name", "modules:\n  - path: x\n", "has no name"},
		{"duplicate", "modules:\n  - name: a\n  - name: a\n", "declared twice"},
		{"reserved name", "modules:\n  - name: all\n", "invalid module name"},
		{"bad language", "languages: ['!!']\nmodules: []\n", "invalid language code"},
		{"bad yaml", "modules: [\n", "parsing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tc.content)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	f := &File{Modules: []Module{{Name: "base"}, {Name: "sale"}}}

	all, err := f.Select([]string{"all"})
	if err != nil || len(all) != 2 {
		t.Fatalf("Select(all) = %d modules, %v", len(all), err)
	}
	one, err := f.Select([]string{"sale"})
	if err != nil || len(one) != 1 || one[0].Name != "sale" {
		t.Fatalf("Select(sale) = %+v, %v", one, err)
	}
	if _, err := f.Select([]string{"stock"}); err == nil {
		t.Fatal("Select(stock) should fail")
	}
}

func TestAllLanguagesDetected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "modules:\n  - name: base\n  - name: sale\n")
	writeFile(t, filepath.Join(dir, "base", "i18n", "fr.po"), "")
	writeFile(t, filepath.Join(dir, "base", "i18n", "base.pot"), "")
	writeFile(t, filepath.Join(dir, "sale", "i18n", "de.po"), "")
	writeFile(t, filepath.Join(dir, "sale", "i18n", "fr.po"), "")

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := f.AllLanguages(); !reflect.DeepEqual(got, []string{"de", "fr"}) {
		t.Fatalf("AllLanguages() = %v", got)
	}
}

func sampleProject(t *testing.T) *File {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
project: Acme
modules:
  - name: sale
    views: ["views/*.xml"]
    reports: ["report/*.rml"]
    manifest: models.yaml
`)
	writeFile(t, filepath.Join(dir, "sale", "views", "order.xml"), `<odoo>
  <record id="view_order_form" model="ir.ui.view">
    <field name="model">sale.order</field>
    <field name="arch" type="xml">
      <form string="Sales Order"><field name="partner_id" help="The customer"/></form>
    </field>
  </record>
  <template id="portal"><div>Your orders</div></template>
</odoo>`)
	writeFile(t, filepath.Join(dir, "sale", "report", "order.rml"),
		`<document><story><para>Order Summary</para></story></document>`)
	writeFile(t, filepath.Join(dir, "sale", "models.yaml"), `
models:
  - model: res.country
    fields:
      - name: name
        label: Country Name
        translatable: true
      - name: code
        label: Code
    records:
      - id: fr
        res_id: 75
        values: {name: France, code: FR}
    constraints:
      - name: name_uniq
        message: The country name must be unique
        sql: true
`)
	writeFile(t, filepath.Join(dir, "sale", "models.py"), "raise UserError(_(\"Invalid date\"))\n")
	writeFile(t, filepath.Join(dir, "sale", "models_test.go"), "package sale\n")

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return f
}

type triple struct {
	Type   term.Type
	Name   string
	Source string
}

func TestSourcesExtractModule(t *testing.T) {
	f := sampleProject(t)
	mods, err := f.Select(nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	srcs, err := f.Sources(mods)
	if err != nil {
		t.Fatalf("Sources error: %v", err)
	}
	cands, err := extract.New().Run(context.Background(), srcs, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	var got []triple
	for _, c := range cands {
		if c.Module != "sale" {
			t.Fatalf("candidate module = %q, want sale", c.Module)
		}
		got = append(got, triple{c.Type, c.Name, c.Source})
	}
	want := []triple{
		{term.TypeView, "sale.order", "Sales Order"},
		{term.TypeView, "sale.order", "The customer"},
		{term.TypeView, "sale/views/order.xml", "Your orders"},
		{term.TypeReport, "sale/report/order.rml", "Order Summary"},
		{term.TypeField, "res.country,name", "Country Name"},
		{term.TypeSQLConstraint, "res.country,name_uniq", "The country name must be unique"},
		{term.TypeModel, "res.country,name", "France"},
		{term.TypeCode, "sale/models.py", "Invalid date"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	for _, c := range cands {
		if c.Type == term.TypeModel && (c.XMLID != "sale.fr" || c.ResID != 75) {
			t.Fatalf("record candidate = %+v", c)
		}
	}
}

func TestRegisterManifestRecords(t *testing.T) {
	ctx := context.Background()
	f := sampleProject(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "terms.db"))
	if err != nil {
		t.Fatalf("store.Open error: %v", err)
	}
	defer st.Close()

	mods, _ := f.Select(nil)
	n, err := f.Register(ctx, st.Registry(), mods)
	if err != nil || n != 1 {
		t.Fatalf("Register = %d, %v, want 1", n, err)
	}
	ref := store.XMLRef{Module: "sale", Name: "fr", Model: "res.country"}
	ids, err := st.Registry().Lookup(ctx, []store.XMLRef{ref})
	if err != nil || ids[ref] != 75 {
		t.Fatalf("Lookup = %v, %v", ids, err)
	}
}

func TestBareViewArchitecture(t *testing.T) {
	root, err := extract.ParseXMLString(`<tree model="res.partner" string="Partners"/>`)
	if err != nil {
		t.Fatalf("ParseXMLString error: %v", err)
	}
	srcs := viewSources("base", "base/views/partner.xml", root)
	if len(srcs) != 1 {
		t.Fatalf("viewSources = %d sources", len(srcs))
	}
	vs, ok := srcs[0].(*extract.ViewSource)
	if !ok || vs.Name != "res.partner" {
		t.Fatalf("source = %#v", srcs[0])
	}
}
