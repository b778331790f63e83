package dom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsElement is a predicate: is n a non-nil element node?
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// --- Attributes ------------------------------------------------------------

// Attr returns the value of attribute key of n, and wether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key of n to value, replacing a previous value.
func SetAttr(n *html.Node, key, value string) {
	if !IsElement(n) {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr removes attribute key from n. It returns true if the attribute
// has been present.
func RemoveAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// --- Classes ---------------------------------------------------------------

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass is a predicate: does n carry class c?
func HasClass(n *html.Node, c string) bool {
	for _, cl := range Classes(n) {
		if cl == c {
			return true
		}
	}
	return false
}

// AddClass adds class c to n.
func AddClass(n *html.Node, c string) {
	if !IsElement(n) || c == "" || HasClass(n, c) {
		return
	}
	SetAttr(n, "class", strings.Join(append(Classes(n), c), " "))
}

// RemoveClass removes class c from n. It returns true if n has carried c.
func RemoveClass(n *html.Node, c string) bool {
	if !HasClass(n, c) {
		return false
	}
	classes := Classes(n)
	kept := classes[:0]
	for _, cl := range classes {
		if cl != c {
			kept = append(kept, cl)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
	} else {
		SetAttr(n, "class", strings.Join(kept, " "))
	}
	return true
}

// --- Queries ---------------------------------------------------------------

var selectorCache sync.Map // string -> cascadia.Selector

// Selector compiles a CSS selector group. Compiled selectors are cached.
func Selector(sel string) (cascadia.Selector, error) {
	if s, ok := selectorCache.Load(sel); ok {
		return s.(cascadia.Selector), nil
	}
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("dom: cannot compile selector %q: %w", sel, err)
	}
	selectorCache.Store(sel, s)
	return s, nil
}

// QueryAll returns all elements matching sel in the (sub-)tree rooted at
// root, root included, in document order.
func QueryAll(root *html.Node, sel string) ([]*html.Node, error) {
	if root == nil {
		return nil, nil
	}
	s, err := Selector(sel)
	if err != nil {
		return nil, err
	}
	return s.MatchAll(root), nil
}

// ByClass returns all elements below root carrying class c.
func ByClass(root *html.Node, c string) []*html.Node {
	nodes, err := QueryAll(root, "."+EscapeIdent(c))
	if err != nil { // cannot happen with escaped identifiers
		tracer().Errorf("%v", err)
		return nil
	}
	return nodes
}

// ByAttr returns all elements below root carrying attribute key, whatever
// its value.
func ByAttr(root *html.Node, key string) []*html.Node {
	nodes, err := QueryAll(root, "["+EscapeIdent(key)+"]")
	if err != nil {
		tracer().Errorf("%v", err)
		return nil
	}
	return nodes
}

// EscapeIdent escapes s for use as a CSS identifier, e.g. as a class name
// in a selector.
func EscapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				fmt.Fprintf(&b, "\\%x ", r)
			} else {
				b.WriteRune(r)
			}
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r >= 0x80:
			b.WriteRune(r)
		case r == '-':
			if i == 0 && len(s) == 1 {
				b.WriteString("\\-")
			} else {
				b.WriteRune(r)
			}
		case r == 0:
			b.WriteString("�")
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// --- Document structure ----------------------------------------------------

// Document returns the document node n is attached to, or nil if n is not
// part of a document.
func Document(n *html.Node) *html.Node {
	for n != nil {
		if n.Type == html.DocumentNode {
			return n
		}
		n = n.Parent
	}
	return nil
}

// IsAttached is a predicate: is n part of a document?
func IsAttached(n *html.Node) bool {
	return Document(n) != nil
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Head returns the <head> element of a document, or nil.
func Head(doc *html.Node) *html.Node {
	return FindElement(atom.Head, doc)
}

// FindElement returns the first element with atom a in the tree rooted at h.
func FindElement(a atom.Atom, h *html.Node) *html.Node {
	if h == nil {
		return nil
	}
	if h.Type == html.ElementNode && h.DataAtom == a {
		return h
	}
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		if r := FindElement(a, ch); r != nil {
			return r
		}
	}
	return nil
}

// ElementByID returns the first element below root with attribute id == id.
func ElementByID(root *html.Node, id string) *html.Node {
	if root == nil || id == "" {
		return nil
	}
	if v, ok := Attr(root, "id"); ok && v == id && IsElement(root) {
		return root
	}
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		if r := ElementByID(ch, id); r != nil {
			return r
		}
	}
	return nil
}

// NewStyleElement creates a detached <style> element with the given id.
func NewStyleElement(id string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     atom.Style.String(),
	}
	if id != "" {
		SetAttr(n, "id", id)
	}
	return n
}

// TextContent returns the concatenated text of all text nodes below n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		b.WriteString(TextContent(ch))
	}
	return b.String()
}

// SetTextContent replaces all children of n by a single text node. An empty
// text leaves n without children.
func SetTextContent(n *html.Node, text string) {
	if n == nil {
		return
	}
	for ch := n.FirstChild; ch != nil; ch = n.FirstChild {
		n.RemoveChild(ch)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}
