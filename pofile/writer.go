package pofile

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minios-linux/termkit/term"
)

// Row is one term handed to the writer. Rows sharing a Source are
// written as a single PO record.
type Row struct {
	Module   string
	Target   term.Target
	Source   string
	Value    string
	Comments []string
}

// Header carries the values written into the PO header.
type Header struct {
	// Project is the product description, e.g. "Acme ERP".
	Project string
	// Version is appended to Project in Project-Id-Version.
	Version string
	// PluralForms is written verbatim; may be empty.
	PluralForms string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Writer emits grouped PO records.
type Writer struct {
	w      io.Writer
	lang   string
	header Header
}

// NewWriter creates a writer. An empty lang produces a template with
// empty msgstr values.
func NewWriter(w io.Writer, lang string, h Header) *Writer {
	if h.Now == nil {
		h.Now = time.Now
	}
	return &Writer{w: w, lang: lang, header: h}
}

type group struct {
	source   string
	value    string
	modules  map[string]bool
	targets  map[term.Target]bool
	comments map[string]bool
}

// WriteRows writes the header followed by one record per distinct source.
func (pw *Writer) WriteRows(rows []Row) error {
	groups := make(map[string]*group)
	modules := make(map[string]bool)
	for _, row := range rows {
		g, ok := groups[row.Source]
		if !ok {
			g = &group{
				source:   row.Source,
				modules:  make(map[string]bool),
				targets:  make(map[term.Target]bool),
				comments: make(map[string]bool),
			}
			groups[row.Source] = g
		}
		if g.value == "" && row.Value != "" {
			g.value = row.Value
		}
		g.modules[row.Module] = true
		g.targets[row.Target] = true
		for _, c := range row.Comments {
			g.comments[c] = true
		}
		modules[row.Module] = true
	}

	bw := bufio.NewWriter(pw.w)
	pw.writeHeader(bw, sortedKeys(modules))

	sources := make([]string, 0, len(groups))
	for src := range groups {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		g := groups[src]
		value := g.value
		switch {
		case pw.lang == "":
			value = ""
		case value == "":
			value = g.source
		}
		fmt.Fprintln(bw)
		pw.writeRecord(bw, g, value)
	}
	return bw.Flush()
}

func (pw *Writer) writeHeader(w *bufio.Writer, modules []string) {
	now := pw.header.Now().UTC().Format("2006-01-02 15:04+0000")

	fmt.Fprintf(w, "# Translation of %s.\n", pw.header.Project)
	fmt.Fprintln(w, "# This file contains the translation of the following modules:")
	for _, m := range modules {
		fmt.Fprintf(w, "#\t* %s\n", m)
	}
	fmt.Fprintln(w, "#")

	fields := []struct{ key, value string }{
		{"Project-Id-Version", strings.TrimSpace(pw.header.Project + " " + pw.header.Version)},
		{"Report-Msgid-Bugs-To", ""},
		{"POT-Creation-Date", now},
		{"PO-Revision-Date", now},
		{"Last-Translator", ""},
		{"Language-Team", ""},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
		{"Content-Transfer-Encoding", ""},
		{"Plural-Forms", pw.header.PluralForms},
	}
	fmt.Fprintln(w, `msgid ""`)
	fmt.Fprintln(w, `msgstr ""`)
	for _, f := range fields {
		fmt.Fprintf(w, "\"%s\\n\"\n", escape(f.key+": "+f.value))
	}
}

func (pw *Writer) writeRecord(w *bufio.Writer, g *group, value string) {
	modules := sortedKeys(g.modules)
	if len(modules) > 1 {
		fmt.Fprintf(w, "#. modules: %s\n", strings.Join(modules, ", "))
	} else {
		fmt.Fprintf(w, "#. module: %s\n", strings.Join(modules, ""))
	}
	for _, c := range sortedKeys(g.comments) {
		for _, line := range strings.Split(c, "\n") {
			fmt.Fprintf(w, "#. %s\n", line)
		}
	}

	targets := make([]term.Target, 0, len(g.targets))
	code := false
	for t := range g.targets {
		targets = append(targets, t)
		if t.Type == term.TypeCode {
			code = true
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].String() < targets[j].String()
	})
	for _, t := range targets {
		fmt.Fprintf(w, "#: %s\n", t)
	}
	if code {
		fmt.Fprintln(w, "#, python-format")
	}

	writeQuotedField(w, "msgid", g.source)
	writeQuotedField(w, "msgstr", value)
}

// writeQuotedField writes a PO field; multi-line values start with "".
func writeQuotedField(w *bufio.Writer, field, value string) {
	if strings.Contains(value, "\n") {
		fmt.Fprintf(w, "%s \"\"\n%s\n", field, quote(value))
		return
	}
	fmt.Fprintf(w, "%s %s\n", field, quote(value))
}

// escape applies quote's escaping without surrounding quotes or line
// breaks.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
