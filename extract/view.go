package extract

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/minios-linux/termkit/term"
)

// viewAttrs are the attributes of form/list/search views holding text.
var viewAttrs = []string{"string", "help", "sum", "confirm", "placeholder"}

// ViewSource is a non-QWeb view architecture.
type ViewSource struct {
	ModuleName string
	// Name qualifies the emitted terms, usually the view's model.
	Name  string
	ResID int64
	XMLID string
	Root  *Node
}

func (s *ViewSource) Kind() Kind     { return KindViewTree }
func (s *ViewSource) Module() string { return s.ModuleName }

// Extract emits the text, tail and labelled attributes of every node.
// translation="off" silences only the node that carries it.
func (s *ViewSource) Extract(ctx context.Context, e *Emitter) error {
	if s.Root == nil {
		return nil
	}
	emit := func(text string) {
		e.Emit(Candidate{Type: term.TypeView, Name: s.Name, ResID: s.ResID, XMLID: s.XMLID, Source: strings.TrimSpace(text)})
	}
	s.Root.Walk(func(n *Node) {
		if n.Attr("translation") == "off" {
			return
		}
		emit(n.Text)
		emit(n.Tail)
		for _, attr := range viewAttrs {
			if v, ok := n.Attrs[attr]; ok {
				emit(v)
			}
		}
	})
	return ctx.Err()
}

// qwebSkipped are elements whose whole subtree is never translated.
var qwebSkipped = map[string]bool{"script": true, "style": true, "title": true}

// qwebAttrs are the translated attributes of plain QWeb elements.
var qwebAttrs = []string{"title", "alt", "label", "placeholder"}

// QWebSource is a QWeb template tree. Terms are emitted for the
// children of Root; the root element is the template container.
type QWebSource struct {
	ModuleName string
	// Name is the template file or key.
	Name  string
	ResID int64
	XMLID string
	Root  *Node
}

func (s *QWebSource) Kind() Kind     { return KindQWebTree }
func (s *QWebSource) Module() string { return s.ModuleName }

func (s *QWebSource) Extract(ctx context.Context, e *Emitter) error {
	if s.Root == nil {
		return nil
	}
	s.walk(e, s.Root)
	return ctx.Err()
}

func (s *QWebSource) emit(e *Emitter, text string) {
	e.Emit(Candidate{Type: term.TypeView, Name: s.Name, ResID: s.ResID, XMLID: s.XMLID, Source: strings.TrimSpace(text)})
}

func (s *QWebSource) walk(e *Emitter, parent *Node) {
	for _, n := range parent.Children {
		if qwebSkip(n) {
			// the tail is text of the parent
			s.emit(e, n.Tail)
			continue
		}
		s.emit(e, n.Text)
		component := isComponent(n)
		if component {
			names := make([]string, 0, len(n.Attrs))
			for name := range n.Attrs {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				if strings.HasSuffix(name, ".translate") {
					s.emit(e, n.Attrs[name])
				}
			}
		} else {
			for _, attr := range qwebAttrs {
				if v, ok := n.Attrs[attr]; ok {
					s.emit(e, v)
				}
			}
		}
		s.walk(e, n)
		s.emit(e, n.Tail)
	}
}

func qwebSkip(n *Node) bool {
	switch {
	case qwebSkipped[strings.ToLower(n.Tag)]:
		return true
	case n.HasAttr("t-js"):
		return true
	case n.HasAttr("t-jquery") && !n.HasAttr("t-operation"):
		return true
	case strings.TrimSpace(n.Attr("t-translation")) == "off":
		return true
	}
	return false
}

// isComponent reports whether n is an OWL component node, whose
// translated attributes carry a ".translate" suffix.
func isComponent(n *Node) bool {
	if n.Tag != "" && unicode.IsUpper([]rune(n.Tag)[0]) {
		return true
	}
	return n.HasAttr("t-component") || n.HasAttr("t-set-slot")
}
