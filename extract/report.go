package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/minios-linux/termkit/term"
)

// ReportFormat selects the report tree dialect.
type ReportFormat string

const (
	FormatRML ReportFormat = "rml"
	FormatXSL ReportFormat = "xsl"
)

const xslNamespace = "http://www.w3.org/1999/XSL/Transform"

var rmlExpr = regexp.MustCompile(`\[\[.+?\]\]`)

// ReportSource is an RML or XSL report template.
type ReportSource struct {
	ModuleName string
	// Path is the report file, used as the term name.
	Path   string
	Format ReportFormat
	Root   *Node
}

func (s *ReportSource) Kind() Kind     { return KindReportTree }
func (s *ReportSource) Module() string { return s.ModuleName }

func (s *ReportSource) Extract(ctx context.Context, e *Emitter) error {
	if s.Root == nil {
		return nil
	}
	switch s.Format {
	case FormatRML:
		s.rml(e, s.Root)
	case FormatXSL:
		s.xsl(e, s.Root, false)
	default:
		return fmt.Errorf("report %s: unknown format %q", s.Path, s.Format)
	}
	return ctx.Err()
}

func (s *ReportSource) emit(e *Emitter, text string) {
	e.Emit(Candidate{Type: term.TypeReport, Name: s.Path, Source: text})
}

// rml emits the text of every grandchild, split around [[ expressions ]].
func (s *ReportSource) rml(e *Emitter, n *Node) {
	for _, child := range n.Children {
		for _, grand := range child.Children {
			if grand.Text == "" {
				continue
			}
			for _, piece := range rmlExpr.Split(grand.Text, -1) {
				piece = strings.TrimSpace(strings.ReplaceAll(piece, "\n", " "))
				if piece != "" {
					s.emit(e, piece)
				}
			}
		}
		s.rml(e, child)
	}
}

// xsl emits text and tail below any element carrying a "t" attribute.
// Elements of the stylesheet namespace are walked but never emitted.
func (s *ReportSource) xsl(e *Emitter, n *Node, translatable bool) {
	for _, child := range n.Children {
		t := translatable || child.Attr("t") != ""
		// xsl: elements contribute no text but their descendants do.
		if t && !isXSL(child) {
			for _, text := range []string{child.Text, child.Tail} {
				text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
				if text != "" {
					s.emit(e, text)
				}
			}
		}
		s.xsl(e, child, t)
	}
}

func isXSL(n *Node) bool {
	return n.Space == xslNamespace || n.Space == "xsl"
}
