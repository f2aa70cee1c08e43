package extract

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/minios-linux/termkit/term"
)

// WebMarker is appended to the comments of terms found in web client
// code, so that clients can select the terms they load.
const WebMarker = "openerp-web"

// Message is a literal found by a Scanner.
type Message struct {
	Line     int
	Text     string
	Comments []string
}

// Scanner finds translatable literals in one source file.
type Scanner interface {
	// ID is appended to the comments of every message; may be empty.
	ID() string
	Scan(path string, src []byte) ([]Message, error)
}

// CodeSource is one source file of a module.
type CodeSource struct {
	ModuleName string
	// Path is the display path, used as the term name.
	Path    string
	Content []byte
	Scanner Scanner
}

func (s *CodeSource) Kind() Kind     { return KindSourceCode }
func (s *CodeSource) Module() string { return s.ModuleName }

func (s *CodeSource) Extract(ctx context.Context, e *Emitter) error {
	msgs, err := s.Scanner.Scan(s.Path, s.Content)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", s.Path, err)
	}
	id := s.Scanner.ID()
	for _, m := range msgs {
		comments := m.Comments
		if id != "" {
			comments = append(append([]string(nil), comments...), id)
		}
		e.Emit(Candidate{
			Type:     term.TypeCode,
			Name:     s.Path,
			ResID:    int64(m.Line),
			Source:   m.Text,
			Comments: comments,
		})
	}
	return ctx.Err()
}

// KeywordScanner finds calls such as _("text") or _t('text') whose
// first argument is a literal starting on the same line.
type KeywordScanner struct {
	Marker string
	re     *regexp.Regexp
}

// NewKeywordScanner builds a scanner for the given function names.
func NewKeywordScanner(marker string, keywords ...string) *KeywordScanner {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	pattern := `(?:^|[^\w.$])(?:` + strings.Join(quoted, "|") + `)\(\s*("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|` + "`(?:[^`\\\\]|\\\\.)*`" + `)`
	return &KeywordScanner{Marker: marker, re: regexp.MustCompile(pattern)}
}

// NewPythonScanner scans for _("...").
func NewPythonScanner() *KeywordScanner { return NewKeywordScanner("", "_", "_lt") }

// NewJSScanner scans web client code for _t("...") and _lt("...").
func NewJSScanner() *KeywordScanner { return NewKeywordScanner(WebMarker, "_t", "_lt") }

func (k *KeywordScanner) ID() string { return k.Marker }

func (k *KeywordScanner) Scan(_ string, src []byte) ([]Message, error) {
	var msgs []Message
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		for _, m := range k.re.FindAllStringSubmatch(sc.Text(), -1) {
			msgs = append(msgs, Message{Line: line, Text: unescapeLiteral(m[1])})
		}
	}
	return msgs, sc.Err()
}

// unescapeLiteral strips the quotes of a JS/Python string literal and
// resolves its backslash escapes.
func unescapeLiteral(lit string) string {
	lit = lit[1 : len(lit)-1]
	var sb strings.Builder
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 >= len(lit) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch lit[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte(lit[i])
		}
	}
	return sb.String()
}
