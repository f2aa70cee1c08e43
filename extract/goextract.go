package extract

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// GoKeyword describes a translation function in Go code and where its
// string arguments sit. Specs use the xgettext --keyword syntax:
//
//	T               T(msgid)
//	N:1,2           N(singular, plural, n)
//	pgettext:1c,2   pgettext(context, msgid)
type GoKeyword struct {
	// Func is a bare name, matching any receiver or package, or a
	// qualified "pkg.Func".
	Func string
	// Arg positions are 1-based; zero means absent.
	MsgID   int
	Plural  int
	Context int
}

// ParseGoKeyword parses one keyword spec. Malformed positions are
// ignored.
func ParseGoKeyword(spec string) GoKeyword {
	name, args, _ := strings.Cut(spec, ":")
	kw := GoKeyword{Func: name, MsgID: 1}
	if args == "" {
		return kw
	}

	var positions []int
	for _, arg := range strings.Split(args, ",") {
		arg = strings.TrimSpace(arg)
		if n, ok := strings.CutSuffix(arg, "c"); ok {
			if pos, err := strconv.Atoi(n); err == nil {
				kw.Context = pos
			}
			continue
		}
		if pos, err := strconv.Atoi(arg); err == nil {
			positions = append(positions, pos)
		}
	}
	if len(positions) > 0 {
		kw.MsgID = positions[0]
	}
	if len(positions) > 1 {
		kw.Plural = positions[1]
	}
	return kw
}

// GoScanner parses Go files and extracts the literals passed to the
// configured functions. It follows raw strings, constant concatenation
// and calls spread over several lines.
type GoScanner struct {
	Marker   string
	keywords map[string][]GoKeyword
}

// NewGoScanner builds a scanner from keyword specs; the default is T and
// N:1,2.
func NewGoScanner(marker string, specs ...string) *GoScanner {
	if len(specs) == 0 {
		specs = []string{"T", "N:1,2"}
	}
	g := &GoScanner{Marker: marker, keywords: make(map[string][]GoKeyword)}
	for _, spec := range specs {
		kw := ParseGoKeyword(spec)
		g.keywords[kw.Func] = append(g.keywords[kw.Func], kw)
	}
	return g
}

func (g *GoScanner) ID() string { return g.Marker }

// match returns the keywords that apply to a call. A qualified keyword
// wins over the bare name.
func (g *GoScanner) match(call *ast.CallExpr) []GoKeyword {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return g.keywords[fn.Name]
	case *ast.SelectorExpr:
		if pkg, ok := fn.X.(*ast.Ident); ok {
			if kws, ok := g.keywords[pkg.Name+"."+fn.Sel.Name]; ok {
				return kws
			}
		}
		return g.keywords[fn.Sel.Name]
	}
	return nil
}

// Scan returns one message per msgid and plural form, at the line of the
// call. A context argument becomes a "context:" comment.
func (g *GoScanner) Scan(path string, src []byte) ([]Message, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		line := fset.Position(call.Lparen).Line
		for _, kw := range g.match(call) {
			msgs = append(msgs, messagesFor(call, kw, line)...)
		}
		return true
	})
	return msgs, nil
}

func messagesFor(call *ast.CallExpr, kw GoKeyword, line int) []Message {
	id := literalArg(call, kw.MsgID)
	if id == "" {
		return nil
	}
	var comments []string
	if kw.Context > 0 {
		ctx := literalArg(call, kw.Context)
		if ctx == "" {
			return nil
		}
		comments = []string{"context: " + ctx}
	}

	out := []Message{{Line: line, Text: id, Comments: comments}}
	if plural := literalArg(call, kw.Plural); plural != "" {
		out = append(out, Message{Line: line, Text: plural, Comments: comments})
	}
	return out
}

// literalArg returns the constant string at a 1-based argument position,
// or "" when there is none.
func literalArg(call *ast.CallExpr, pos int) string {
	if pos < 1 || pos > len(call.Args) {
		return ""
	}
	return constString(call.Args[pos-1])
}

// constString evaluates string literals, parentheses and "a" + "b".
func constString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return ""
		}
		s, err := strconv.Unquote(e.Value)
		if err != nil {
			return ""
		}
		return s
	case *ast.ParenExpr:
		return constString(e.X)
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return ""
		}
		left, right := constString(e.X), constString(e.Y)
		if left == "" || right == "" {
			return ""
		}
		return left + right
	}
	return ""
}
