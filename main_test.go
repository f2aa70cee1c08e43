package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/termkit/config"
	"github.com/minios-linux/termkit/extract"
	"github.com/minios-linux/termkit/lockfile"
	"github.com/minios-linux/termkit/term"
	"github.com/minios-linux/termkit/transfer"
)

func disableColor(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestProgressBar(t *testing.T) {
	disableColor(t)

	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{"clamps below zero", -10, 4, "░░░░   0%"},
		{"mid range", 50, 4, "██░░  50%"},
		{"clamps above hundred", 120, 4, "████ 100%"},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		flag, output string
		want         transfer.Format
	}{
		{"", "", transfer.FormatPO},
		{"", "-", transfer.FormatPO},
		{"", "out/de.csv", transfer.FormatCSV},
		{"tgz", "out/de.csv", transfer.FormatTGZ},
		{"", "all.tar.gz", transfer.FormatTGZ},
	}
	for _, tc := range tests {
		got, err := exportFormat(tc.flag, tc.output)
		if err != nil || got != tc.want {
			t.Fatalf("exportFormat(%q, %q) = %q, %v, want %q", tc.flag, tc.output, got, err, tc.want)
		}
	}
	if _, err := exportFormat("xlsx", ""); err == nil {
		t.Fatal("exportFormat(xlsx) should fail")
	}
}

func TestStorePath(t *testing.T) {
	if got := storePath("/tmp/x.db", "/root", nil); got != "/tmp/x.db" {
		t.Fatalf("flag path = %q", got)
	}
	if got, want := storePath("", "/proj", nil), filepath.Join("/proj", config.DefaultDB); got != want {
		t.Fatalf("default path = %q, want %q", got, want)
	}
}

func TestLockEntries(t *testing.T) {
	cands := []extract.Candidate{
		{Module: "sale", Type: term.TypeView, Name: "sale.order", Source: "Order"},
		{Module: "sale", Type: term.TypeCode, Name: "sale/x.js", ResID: 3, Source: "Save", Comments: []string{extract.WebMarker}},
		{Module: "base", Type: term.TypeField, Name: "res.partner,name", Source: "Name"},
	}
	got := lockEntries(cands)
	want := map[string]map[string]string{
		"sale": {
			"view:sale.order:0|Order": "Order",
			"code:sale/x.js:3|Save":   "Save\x00openerp-web",
		},
		"base": {"field:res.partner,name:0|Name": "Name"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lockEntries mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteStats(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	writeStats(&buf, map[string]map[term.State]int{
		"fr": {term.StateTranslated: 3, term.StateToTranslate: 1},
		"de": {term.StateToTranslate: 2},
	})
	out := buf.String()
	if strings.Index(out, "de ") > strings.Index(out, "fr ") {
		t.Fatalf("languages not sorted:\n%s", out)
	}
	if !strings.Contains(out, " 75%") || !strings.Contains(out, "  0%") {
		t.Fatalf("missing percentages:\n%s", out)
	}
}

func TestWriteModuleDiff(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	writeModuleDiff(&buf, "sale", 4, lockfile.Diff{})
	writeModuleDiff(&buf, "base", 2, lockfile.Diff{Added: []string{"a"}, Removed: []string{"b", "c"}})
	out := buf.String()
	if !strings.Contains(out, "up to date (4 terms)") {
		t.Fatalf("missing up-to-date line:\n%s", out)
	}
	if !strings.Contains(out, "1 new, 0 changed, 2 removed") {
		t.Fatalf("missing diff line:\n%s", out)
	}
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("termkit %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestExportImportResolveCommands(t *testing.T) {
	disableColor(t)

	dir := t.TempDir()
	files := map[string]string{
		config.FileName:        "project: Acme\nversion: \"2.0\"\nmodules:\n  - name: sale\n    views: [\"views/*.xml\"]\n",
		"sale/views/order.xml": `<form model="sale.order" string="Order"><field name="partner_id" string="Customer"/></form>`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	poPath := filepath.Join(dir, "fr.po")
	runCLI(t, "export", "--root", dir, "--lang", "fr", "-o", poPath)

	data, err := os.ReadFile(poPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Project-Id-Version: Acme 2.0") {
		t.Fatalf("export header misses project:\n%s", data)
	}
	if !strings.Contains(string(data), "msgid \"Order\"\nmsgstr \"Order\"\n") {
		t.Fatalf("export misses term:\n%s", data)
	}
	if !fileExists(filepath.Join(dir, lockfile.LockFileName)) {
		t.Fatal("export did not write the lock file")
	}

	translated := strings.Replace(string(data), "msgstr \"Order\"", "msgstr \"Commande\"", 1)
	if err := os.WriteFile(poPath, []byte(translated), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	runCLI(t, "import", poPath, "--root", dir, "--lang", "fr")

	got := runCLI(t, "resolve", "--root", dir, "--lang", "fr", "--type", "view", "--name", "sale.order", "--source", "Order")
	if got != "Commande\n" {
		t.Fatalf("resolve = %q, want %q", got, "Commande\n")
	}
	got = runCLI(t, "resolve", "--root", dir, "--lang", "fr", "--type", "view", "--source", "Unknown")
	if got != "Unknown\n" {
		t.Fatalf("resolve fallback = %q, want %q", got, "Unknown\n")
	}

	runCLI(t, "status", "--root", dir)
}

func TestVersionCommand(t *testing.T) {
	out := runCLI(t, "version")
	if !strings.HasPrefix(out, "termkit version dev\n") {
		t.Fatalf("version output = %q", out)
	}
}
