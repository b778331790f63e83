/*
Package domdbg implements helpers to debug marker state in a DOM tree.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package domdbg

import (
	"fmt"
	"strings"
	"testing"

	"github.com/npillmayer/panewidth/dom"
	"github.com/xlab/treeprint"
	"golang.org/x/net/html"
)

// Dump renders the element structure of a document as a tree, restricted
// to elements which carry the marker class or the marker attribute, and to
// their ancestors. Unmarked sub-trees are omitted. Marked elements are
// flagged with '*' and show the attribute's value, if present.
//
// Dump is intended for tracing and test output, as in
//
//     t.Logf("markers =\n%s", domdbg.Dump(doc, "active", "data-type"))
//
func Dump(root *html.Node, class, attr string) string {
	tree := treeprint.NewWithRoot(label(root, class, attr))
	dumpChildren(root, tree, class, attr)
	return tree.String()
}

// LogMarkers writes the marker tree of doc to a test log.
func LogMarkers(doc *html.Node, class, attr string, t *testing.T) {
	t.Logf("marker tree =\n%s", Dump(doc, class, attr))
}

func dumpChildren(n *html.Node, branch treeprint.Tree, class, attr string) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if !containsMarker(ch, class, attr) {
			continue
		}
		if ch.FirstChild == nil || !hasMarkedChild(ch, class, attr) {
			branch.AddNode(label(ch, class, attr))
			continue
		}
		dumpChildren(ch, branch.AddBranch(label(ch, class, attr)), class, attr)
	}
}

func hasMarkedChild(n *html.Node, class, attr string) bool {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if containsMarker(ch, class, attr) {
			return true
		}
	}
	return false
}

func containsMarker(n *html.Node, class, attr string) bool {
	if isMarked(n, class, attr) {
		return true
	}
	return hasMarkedChild(n, class, attr)
}

func isMarked(n *html.Node, class, attr string) bool {
	if !dom.IsElement(n) {
		return false
	}
	_, ok := dom.Attr(n, attr)
	return ok || dom.HasClass(n, class)
}

func label(n *html.Node, class, attr string) string {
	if n.Type == html.DocumentNode {
		return "#document"
	}
	if !dom.IsElement(n) {
		return "#node"
	}
	var b strings.Builder
	b.WriteString(n.Data)
	if id, ok := dom.Attr(n, "id"); ok {
		b.WriteString("#" + id)
	}
	for _, c := range dom.Classes(n) {
		b.WriteString("." + c)
	}
	if isMarked(n, class, attr) {
		b.WriteString(" *")
		if v, ok := dom.Attr(n, attr); ok {
			fmt.Fprintf(&b, " [%s=%q]", attr, v)
		}
	}
	return b.String()
}
