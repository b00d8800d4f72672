package transform

import (
	"strings"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// navigator walks an etree document for the XPath engine. Elements, text and
// comments are nodes; processing instructions and directives are skipped, and
// namespace declarations are not visible on the attribute axis.
type navigator struct {
	root *etree.Element
	cur  etree.Token
	attr int // index into the element's attributes, -1 when on the node itself
}

// newNavigator positions a navigator on el inside its document.
func newNavigator(el *etree.Element) *navigator {
	return &navigator{root: documentRoot(el), cur: el, attr: -1}
}

func (n *navigator) element() (*etree.Element, bool) {
	el, ok := n.cur.(*etree.Element)
	return el, ok
}

func (n *navigator) currentAttr() *etree.Attr {
	el, _ := n.element()
	return &el.Attr[n.attr]
}

func (n *navigator) NodeType() xpath.NodeType {
	if n.attr >= 0 {
		return xpath.AttributeNode
	}
	switch t := n.cur.(type) {
	case *etree.Element:
		if t.Parent() == nil && t.Tag == "" {
			return xpath.RootNode
		}
		return xpath.ElementNode
	case *etree.CharData:
		return xpath.TextNode
	case *etree.Comment:
		return xpath.CommentNode
	}
	return xpath.TextNode
}

func (n *navigator) LocalName() string {
	if n.attr >= 0 {
		return n.currentAttr().Key
	}
	if el, ok := n.element(); ok {
		return el.Tag
	}
	return ""
}

func (n *navigator) Prefix() string {
	if n.attr >= 0 {
		return n.currentAttr().Space
	}
	if el, ok := n.element(); ok {
		return el.Space
	}
	return ""
}

// NamespaceURL lets prefixed name tests match by namespace URI.
func (n *navigator) NamespaceURL() string {
	if n.attr >= 0 {
		return n.currentAttr().NamespaceURI()
	}
	if el, ok := n.element(); ok && el.Tag != "" {
		return el.NamespaceURI()
	}
	return ""
}

func (n *navigator) Value() string {
	if n.attr >= 0 {
		return n.currentAttr().Value
	}
	switch t := n.cur.(type) {
	case *etree.Element:
		var b strings.Builder
		textOf(t, &b)
		return b.String()
	case *etree.CharData:
		return t.Data
	case *etree.Comment:
		return t.Data
	}
	return ""
}

func textOf(el *etree.Element, b *strings.Builder) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			textOf(t, b)
		}
	}
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *navigator) MoveToRoot() {
	n.cur, n.attr = n.root, -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		return true
	}
	parent := n.cur.Parent()
	if parent == nil {
		return false
	}
	n.cur = parent
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	el, ok := n.element()
	if !ok {
		return false
	}
	for i := n.attr + 1; i < len(el.Attr); i++ {
		if isNamespaceDecl(el.Attr[i]) {
			continue
		}
		n.attr = i
		return true
	}
	return false
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 {
		return false
	}
	el, ok := n.element()
	if !ok {
		return false
	}
	if tok := visibleFrom(el.Child, 0, 1); tok != nil {
		n.cur = tok
		return true
	}
	return false
}

func (n *navigator) MoveToFirst() bool {
	if n.attr >= 0 {
		return false
	}
	parent := n.cur.Parent()
	if parent == nil {
		return false
	}
	if tok := visibleFrom(parent.Child, 0, 1); tok != nil {
		n.cur = tok
		return true
	}
	return false
}

func (n *navigator) MoveToNext() bool {
	return n.moveSibling(1)
}

func (n *navigator) MoveToPrevious() bool {
	return n.moveSibling(-1)
}

func (n *navigator) moveSibling(step int) bool {
	if n.attr >= 0 {
		return false
	}
	parent := n.cur.Parent()
	if parent == nil {
		return false
	}
	if tok := visibleFrom(parent.Child, n.cur.Index()+step, step); tok != nil {
		n.cur = tok
		return true
	}
	return false
}

// visibleFrom returns the first element, text or comment token at or after
// start in the given direction.
func visibleFrom(tokens []etree.Token, start, step int) etree.Token {
	for i := start; i >= 0 && i < len(tokens); i += step {
		switch tokens[i].(type) {
		case *etree.Element, *etree.CharData, *etree.Comment:
			return tokens[i]
		}
	}
	return nil
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != n.root {
		return false
	}
	n.cur, n.attr = o.cur, o.attr
	return true
}

var _ xpath.NodeNavigator = (*navigator)(nil)
