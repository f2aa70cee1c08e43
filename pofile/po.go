// Package pofile reads and writes the PO/POT dialect used for term
// exchange: every entry carries its targets as "type:name:res_id"
// reference groups, and module provenance as an extracted comment.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minios-linux/termkit/term"
)

// Entry is a single parsed PO record, already expanded to one target.
type Entry struct {
	// Target is the (type, name, res_id) triple this entry applies to.
	Target term.Target
	// Source is the msgid.
	Source string
	// Value is the msgstr.
	Value string
	// Comments are the "#." lines, without module lines.
	Comments []string
	// Modules are the names listed on the "#. module(s):" line.
	Modules []string
	// Fuzzy is set when the record carried "#, fuzzy".
	Fuzzy bool
	// Line is the 1-based line of the msgid.
	Line int
}

// Module returns the first module named on the entry, or "".
func (e *Entry) Module() string {
	if len(e.Modules) == 0 {
		return ""
	}
	return e.Modules[0]
}

// ParseError reports malformed PO input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("po: line %d: %s", e.Line, e.Msg)
}

// Reader returns PO entries one at a time.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	peeked  *string

	queue      []*Entry
	headerSeen bool
	fuzzy      int
	missing    int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Fuzzy returns the number of fuzzy entries read and discarded so far.
func (r *Reader) Fuzzy() int { return r.fuzzy }

// Missing returns the number of entries skipped for lacking references.
func (r *Reader) Missing() int { return r.missing }

// ReadAll drains r.
func (r *Reader) ReadAll() ([]*Entry, error) {
	var out []*Entry
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// Next returns the next entry, or io.EOF once the stream is exhausted.
// Fuzzy, obsolete and header entries are never returned.
func (r *Reader) Next() (*Entry, error) {
	for {
		if len(r.queue) > 0 {
			e := r.queue[0]
			r.queue = r.queue[1:]
			return e, nil
		}

		rec, err := r.readRecord()
		if err != nil {
			return nil, err
		}

		if !r.headerSeen {
			r.headerSeen = true
			if rec.source == "" {
				continue
			}
		}
		if rec.fuzzy {
			r.fuzzy++
			continue
		}
		if len(rec.targets) == 0 {
			r.missing++
			continue
		}
		r.expand(rec)
	}
}

// record is the raw form of one PO block before target expansion.
type record struct {
	targets  []term.Target
	source   string
	value    string
	comments []string
	modules  []string
	fuzzy    bool
	line     int
}

// expand queues one entry per target. Code targets after the first
// one are dropped.
func (r *Reader) expand(rec *record) {
	seenCode := false
	for _, t := range rec.targets {
		if t.Type == term.TypeCode {
			if seenCode {
				continue
			}
			seenCode = true
		}
		r.queue = append(r.queue, &Entry{
			Target:   t,
			Source:   rec.source,
			Value:    rec.value,
			Comments: rec.comments,
			Modules:  rec.modules,
			Line:     rec.line,
		})
	}
}

func (r *Reader) readLine() (string, bool) {
	if r.peeked != nil {
		line := *r.peeked
		r.peeked = nil
		return line, true
	}
	if !r.scanner.Scan() {
		return "", false
	}
	r.lineNum++
	line := r.scanner.Text()
	if r.lineNum == 1 {
		line = strings.TrimPrefix(line, "\ufeff")
	}
	return strings.TrimRight(line, "\r"), true
}

func (r *Reader) unread(line string) {
	r.peeked = &line
}

func (r *Reader) errorf(format string, args ...any) *ParseError {
	return &ParseError{Line: r.lineNum, Msg: fmt.Sprintf(format, args...)}
}

// readRecord reads comments, msgid and msgstr of the next block.
func (r *Reader) readRecord() (*record, error) {
	rec := &record{}
	started := false

	for {
		line, ok := r.readLine()
		if !ok {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading PO stream: %w", err)
			}
			if started {
				return nil, r.errorf("unexpected end of file, expected msgid")
			}
			return nil, io.EOF
		}
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#~"):
			r.skipObsolete()
			rec = &record{}
			started = false
		case strings.HasPrefix(trimmed, "#:"):
			started = true
			for _, group := range strings.Fields(trimmed[2:]) {
				rec.targets = append(rec.targets, parseTarget(group))
			}
		case strings.HasPrefix(trimmed, "#,"):
			started = true
			for _, flag := range strings.Split(trimmed[2:], ",") {
				if strings.TrimSpace(flag) == "fuzzy" {
					rec.fuzzy = true
				}
			}
		case strings.HasPrefix(trimmed, "#."):
			started = true
			comment := strings.TrimSpace(trimmed[2:])
			if names, ok := moduleLine(comment); ok {
				rec.modules = append(rec.modules, names...)
				continue
			}
			rec.comments = append(rec.comments, comment)
		case strings.HasPrefix(trimmed, "#"):
			// translator comments and previous msgids are not kept
			started = true
		case strings.HasPrefix(trimmed, "msgid "):
			rec.line = r.lineNum
			rec.source = r.readString(trimmed[len("msgid "):])
			if err := r.readMsgstr(rec); err != nil {
				return nil, err
			}
			return rec, nil
		default:
			return nil, r.errorf("expected msgid, got %q", trimmed)
		}
	}
}

func (r *Reader) readMsgstr(rec *record) error {
	line, ok := r.readLine()
	if !ok {
		return r.errorf("unexpected end of file, expected msgstr")
	}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "msgstr ") {
		return r.errorf("expected msgstr, got %q", trimmed)
	}
	rec.value = r.readString(trimmed[len("msgstr "):])
	return nil
}

// readString unquotes first and appends every continuation line.
func (r *Reader) readString(first string) string {
	var sb strings.Builder
	sb.WriteString(unquoteLine(first))
	for {
		line, ok := r.readLine()
		if !ok {
			return sb.String()
		}
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, `"`) {
			r.unread(line)
			return sb.String()
		}
		sb.WriteString(unquoteLine(trimmed))
	}
}

// skipObsolete consumes the rest of a "#~" block.
func (r *Reader) skipObsolete() {
	for {
		line, ok := r.readLine()
		if !ok {
			return
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#~") || strings.HasPrefix(trimmed, `"`) {
			continue
		}
		r.unread(line)
		return
	}
}

// moduleLine recognizes "module: a" and "modules: a, b" comments.
func moduleLine(comment string) ([]string, bool) {
	var rest string
	switch {
	case strings.HasPrefix(comment, "modules:"):
		rest = comment[len("modules:"):]
	case strings.HasPrefix(comment, "module:"):
		rest = comment[len("module:"):]
	default:
		return nil, false
	}
	var names []string
	for _, name := range strings.Split(rest, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, true
}

// parseTarget splits "type:name:res_id"; "name:res_id" is a code target.
func parseTarget(group string) term.Target {
	var t term.Target
	first := strings.Index(group, ":")
	last := strings.LastIndex(group, ":")
	switch {
	case first < 0:
		t.Type, t.Name = term.TypeCode, group
		return t
	case first == last:
		t.Type = term.TypeCode
		t.Name = group[:first]
	default:
		t.Type = term.Type(group[:first])
		t.Name = group[first+1 : last]
	}
	ref := group[last+1:]
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		t.ResID = id
	} else {
		t.XMLID = ref
	}
	return t
}

// quote produces a PO quoted string. Embedded newlines close and reopen
// the string on the next line.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", "\\n\"\n\"")
	return `"` + s + `"`
}

// unquote reverses quote, including its multi-line form.
func unquote(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		sb.WriteString(unquoteLine(line))
	}
	return sb.String()
}

func unquoteLine(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	var result strings.Builder
	result.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			result.WriteByte(s[i])
			continue
		}
		i++
		if s[i] == 'n' {
			result.WriteByte('\n')
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}
