package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is an element of a parsed view, template or report tree. Text is
// the character data before the first child and Tail the character
// data following the element's end tag, as in ElementTree.
type Node struct {
	Tag      string
	Space    string
	Attrs    map[string]string
	Text     string
	Tail     string
	Children []*Node
	Line     int
}

// Attr returns the attribute value, or "".
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attrs[name]
	return ok
}

// Walk visits n and its descendants depth-first, parents first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ParseXML reads an XML document into a Node tree.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		root  *Node
		stack []*Node
	)
	for {
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Space: t.Name.Space, Attrs: make(map[string]string, len(t.Attr)), Line: line}
			for _, a := range t.Attr {
				key := a.Name.Local
				if a.Name.Space != "" {
					key = a.Name.Space + ":" + key
				}
				n.Attrs[key] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parsing xml: line %d: multiple root elements", line)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			if len(parent.Children) == 0 {
				parent.Text += string(t)
			} else {
				last := parent.Children[len(parent.Children)-1]
				last.Tail += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("parsing xml: no root element")
	}
	return root, nil
}

// ParseXMLString is ParseXML over a string.
func ParseXMLString(s string) (*Node, error) {
	return ParseXML(strings.NewReader(s))
}
