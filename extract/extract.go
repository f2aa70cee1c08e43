// Package extract collects the translatable terms of a set of modules
// from stored records, field metadata, view, QWeb and report trees,
// source code and constraint declarations.
//
// Every source kind implements Source. An Extractor runs the sources of
// the selected modules, filters noise and deduplicates the result.
package extract

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/minios-linux/termkit/term"
)

// Kind tags a Source.
type Kind int

const (
	KindRecord Kind = iota
	KindFieldMeta
	KindViewTree
	KindQWebTree
	KindReportTree
	KindSourceCode
	KindConstraint
)

var kindNames = [...]string{"record", "field", "view", "qweb", "report", "code", "constraint"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Source is one origin of translatable terms.
type Source interface {
	Kind() Kind
	Module() string
	Extract(ctx context.Context, e *Emitter) error
}

// Candidate is a language-neutral term produced by extraction.
type Candidate struct {
	Module   string
	Type     term.Type
	Name     string
	ResID    int64
	XMLID    string
	Source   string
	Comments []string
}

// Term converts c into an untranslated term for lang.
func (c Candidate) Term(lang string) *term.Term {
	t := &term.Term{
		Lang:     lang,
		Type:     c.Type,
		Name:     c.Name,
		ResID:    c.ResID,
		Source:   c.Source,
		Module:   c.Module,
		Comments: c.Comments,
	}
	t.Normalize()
	return t
}

// Target returns the PO reference of c.
func (c Candidate) Target() term.Target {
	return term.Target{Type: c.Type, Name: c.Name, ResID: c.ResID, XMLID: c.XMLID}
}

func (c Candidate) key() string {
	var sb strings.Builder
	for _, part := range []string{c.Module, c.Source, c.Name, strconv.FormatInt(c.ResID, 10), string(c.Type)} {
		sb.WriteString(part)
		sb.WriteByte(0)
	}
	sb.WriteString(strings.Join(c.Comments, "\x1f"))
	return sb.String()
}

// Extractor runs sources and accumulates deduplicated candidates.
type Extractor struct {
	log zerolog.Logger

	seen    map[string]bool
	out     []Candidate
	claimed map[string]int
	dropped int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(x *Extractor) { x.log = l.With().Str("sys", "extract").Logger() }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Run extracts every source whose module is selected. An empty module
// list, or one containing "all", selects every module. Candidates are
// returned in first-seen order.
func (x *Extractor) Run(ctx context.Context, sources []Source, modules []string) ([]Candidate, error) {
	x.seen = make(map[string]bool)
	x.claimed = make(map[string]int)
	x.out = nil
	x.dropped = 0

	selected := moduleFilter(modules)
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !selected(src.Module()) {
			continue
		}
		e := &Emitter{x: x, module: src.Module(), owner: i + 1}
		if err := src.Extract(ctx, e); err != nil {
			return nil, err
		}
	}
	x.log.Debug().
		Int("terms", len(x.out)).
		Int("dropped", x.dropped).
		Msg("extraction finished")
	return x.out, nil
}

func moduleFilter(modules []string) func(string) bool {
	if len(modules) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(modules))
	for _, m := range modules {
		if m == "all" {
			return func(string) bool { return true }
		}
		set[m] = true
	}
	return func(m string) bool { return set[m] }
}

// Emitter receives the terms of one source.
type Emitter struct {
	x      *Extractor
	module string
	owner  int
}

// Emit registers c, filling in the module of the source. Noise and
// duplicates are dropped silently.
func (e *Emitter) Emit(c Candidate) {
	if c.Module == "" {
		c.Module = e.module
	}
	if !Meaningful(c.Source) {
		e.x.dropped++
		return
	}
	k := c.key()
	if e.x.seen[k] {
		return
	}
	e.x.seen[k] = true
	e.x.out = append(e.x.out, c)
}

// Claim reserves the (model, resID) pair for the current source. It
// reports false when an earlier source already holds it.
func (e *Emitter) Claim(model string, resID int64) bool {
	k := model + "\x00" + strconv.FormatInt(resID, 10)
	if owner, ok := e.x.claimed[k]; ok && owner != e.owner {
		return false
	}
	e.x.claimed[k] = e.owner
	return true
}

// Meaningful reports whether s is worth translating: after trimming it
// must contain a letter, and single characters are rejected.
func Meaningful(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if utf8.RuneCountInString(s) <= 1 {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
