// Package transfer exports extracted terms with their persisted
// translations to PO, CSV or TGZ files, and imports such files into the
// store through the merge engine.
package transfer

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/minios-linux/termkit/csvfile"
	"github.com/minios-linux/termkit/extract"
	"github.com/minios-linux/termkit/merge"
	"github.com/minios-linux/termkit/pofile"
	"github.com/minios-linux/termkit/store"
	"github.com/minios-linux/termkit/term"
)

// ErrNoLanguage is returned by Import without a target language.
var ErrNoLanguage = errors.New("import needs a language")

// Service ties the extractor, the store and the merge engine together.
type Service struct {
	st     *store.Store
	merger *merge.Engine
	header pofile.Header
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHeader sets the project values written into PO headers.
func WithHeader(h pofile.Header) Option {
	return func(s *Service) { s.header = h }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMerger replaces the default merge engine over the store.
func WithMerger(m *merge.Engine) Option {
	return func(s *Service) { s.merger = m }
}

// New creates a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{st: st, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.merger == nil {
		s.merger = merge.New(st, merge.WithLogger(s.log))
	}
	return s
}

// ExportRequest selects what to export.
type ExportRequest struct {
	// Lang is the target language; empty exports a template.
	Lang string
	// Modules filters the sources; empty or "all" keeps every module.
	Modules []string
	Format  string
	Sources []extract.Source
}

// row is one exported term with its translation.
type row struct {
	module   string
	target   term.Target
	source   string
	value    string
	comments []string
}

// Export writes the terms of the selected modules to w.
func (s *Service) Export(ctx context.Context, req ExportRequest, w io.Writer) error {
	format, err := ParseFormat(req.Format)
	if err != nil {
		return err
	}
	lang, err := term.NormalizeLang(req.Lang)
	if err != nil {
		return err
	}

	cands, err := extract.New(extract.WithLogger(s.log)).Run(ctx, req.Sources, req.Modules)
	if err != nil {
		return fmt.Errorf("extracting terms: %w", err)
	}
	rows, err := s.translate(ctx, lang, cands)
	if err != nil {
		return err
	}
	s.log.Info().Str("lang", lang).Str("format", string(format)).Int("terms", len(rows)).Msg("exporting")

	switch format {
	case FormatPO:
		return s.writePO(w, lang, rows)
	case FormatCSV:
		return writeCSV(w, rows)
	default:
		return s.writeTGZ(w, lang, rows)
	}
}

// translate looks up the persisted translation of every candidate.
// Values equal to the source count as untranslated.
func (s *Service) translate(ctx context.Context, lang string, cands []extract.Candidate) ([]row, error) {
	rows := make([]row, 0, len(cands))
	for _, c := range cands {
		r := row{module: c.Module, target: c.Target(), source: c.Source, comments: c.Comments}
		if lang != "" {
			q := store.Query{Name: c.Name, Types: []term.Type{c.Type}, Lang: lang, Source: c.Source}
			if c.Type == term.TypeModel {
				q.ResIDs = []int64{c.ResID}
			}
			v, err := s.st.Resolve(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", c.Source, err)
			}
			if v != c.Source {
				r.value = v
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *Service) poHeader(lang string) pofile.Header {
	h := s.header
	h.PluralForms = pofile.PluralFormsForLang(lang)
	return h
}

func (s *Service) writePO(w io.Writer, lang string, rows []row) error {
	out := make([]pofile.Row, len(rows))
	for i, r := range rows {
		out[i] = pofile.Row{Module: r.module, Target: r.target, Source: r.source, Value: r.value, Comments: r.comments}
	}
	return pofile.NewWriter(w, lang, s.poHeader(lang)).WriteRows(out)
}

func writeCSV(w io.Writer, rows []row) error {
	out := make([]csvfile.Row, len(rows))
	for i, r := range rows {
		out[i] = csvfile.Row{Module: r.module, Target: r.target, Source: r.source, Value: r.value}
	}
	return csvfile.NewWriter(w).WriteRows(out)
}

// writeTGZ writes one PO file per module into a gzip'd tar stream.
func (s *Service) writeTGZ(w io.Writer, lang string, rows []row) error {
	byModule := make(map[string][]row)
	for _, r := range rows {
		byModule[r.module] = append(byModule[r.module], r)
	}
	modules := make([]string, 0, len(byModule))
	for m := range byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	now := s.poHeader(lang).Now
	for _, m := range modules {
		var buf bytes.Buffer
		if err := s.writePO(&buf, lang, byModule[m]); err != nil {
			return err
		}
		hdr := &tar.Header{
			Name: ArchivePath(m, lang),
			Mode: 0644,
			Size: int64(buf.Len()),
		}
		if now != nil {
			hdr.ModTime = now()
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing %s: %w", hdr.Name, err)
		}
		if _, err := tw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("writing %s: %w", hdr.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// ArchivePath is the location of a module's PO file inside a TGZ export:
// "<module>/i18n/<lang>.po", or "<module>/i18n/<module>.pot" for a
// template.
func ArchivePath(module, lang string) string {
	if lang == "" {
		return path.Join(module, "i18n", module+".pot")
	}
	return path.Join(module, "i18n", lang+".po")
}

// ImportRequest describes an import.
type ImportRequest struct {
	Format string
	Lang   string
	// Module is used for rows that do not name one.
	Module    string
	Overwrite bool
}

// ImportResult reports what an import did.
type ImportResult struct {
	merge.Result
	// Fuzzy counts PO entries read and discarded as fuzzy.
	Fuzzy int
	// Unreferenced counts PO entries without any target reference.
	Unreferenced int
}

// Import parses r completely, then merges every row in one transaction.
// A parse error aborts the import before anything is written.
func (s *Service) Import(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error) {
	format, err := ParseFormat(req.Format)
	if err != nil {
		return ImportResult{}, err
	}
	lang, err := term.NormalizeLang(req.Lang)
	if err != nil {
		return ImportResult{}, err
	}
	if lang == "" {
		return ImportResult{}, ErrNoLanguage
	}

	var (
		res  ImportResult
		rows []merge.Row
	)
	switch format {
	case FormatPO:
		rows, err = readPO(r, "", &res)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		rows, err = readTGZ(r, &res)
	}
	if err != nil {
		return ImportResult{}, err
	}

	merged, err := s.merger.Merge(ctx, lang, rows, merge.Options{Overwrite: req.Overwrite, Module: req.Module})
	if err != nil {
		return ImportResult{}, err
	}
	res.Result = merged
	if res.Fuzzy > 0 || res.Unreferenced > 0 {
		s.log.Warn().Int("fuzzy", res.Fuzzy).Int("unreferenced", res.Unreferenced).Msg("skipped po entries")
	}
	return res, nil
}

func readPO(r io.Reader, module string, res *ImportResult) ([]merge.Row, error) {
	pr := pofile.NewReader(r)
	entries, err := pr.ReadAll()
	if err != nil {
		return nil, err
	}
	res.Fuzzy += pr.Fuzzy()
	res.Unreferenced += pr.Missing()

	rows := make([]merge.Row, 0, len(entries))
	for _, e := range entries {
		m := e.Module()
		if m == "" {
			m = module
		}
		rows = append(rows, merge.Row{
			Type:     e.Target.Type,
			Name:     e.Target.Name,
			ResID:    e.Target.ResID,
			XMLID:    e.Target.XMLID,
			Module:   m,
			Source:   e.Source,
			Value:    e.Value,
			Comments: e.Comments,
		})
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]merge.Row, error) {
	recs, err := csvfile.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rows := make([]merge.Row, 0, len(recs))
	for _, c := range recs {
		rows = append(rows, merge.Row{
			Type:   c.Target.Type,
			Name:   c.Target.Name,
			ResID:  c.Target.ResID,
			XMLID:  c.Target.XMLID,
			Module: c.Module,
			Source: c.Source,
			Value:  c.Value,
		})
	}
	return rows, nil
}

// readTGZ reads every PO file of an archive. Entries without a module
// comment take the module from the first path element.
func readTGZ(r io.Reader, res *ImportResult) ([]merge.Row, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	var rows []merge.Row
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Ext(hdr.Name) != ".po" {
			continue
		}
		module, _, _ := strings.Cut(hdr.Name, "/")
		part, err := readPO(tr, module, res)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		rows = append(rows, part...)
	}
}
