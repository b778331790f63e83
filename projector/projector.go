package projector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/npillmayer/panewidth/dom"
	"github.com/npillmayer/panewidth/dom/cssom/douceuradapter"
	"github.com/npillmayer/panewidth/settings"
	"golang.org/x/net/html"
)

// DefaultStyleID is the id of the plugin's <style> element.
const DefaultStyleID = "mw-active-pane-styles"

// ErrNoHead is returned when mounting into a document without <head>.
var ErrNoHead = errors.New("document has no <head> element")

// Sheet builds the stylesheet for settings s as an object model.
//
// Widths containing ';', '{' or '}' would break out of their declaration;
// rules using them are left out, which leaves the affected panes without a
// minimum width. Any other malformed width is emitted unchanged.
func Sheet(s settings.Settings, markers dom.Markers) *douceuradapter.CSSStyles {
	markers = markers.WithDefaults()
	sheet := css.NewStylesheet()
	maxWidth := s.ResolvedMaxWidth()
	base := "." + dom.EscapeIdent(markers.Class)
	if r := minWidthRule(base, maxWidth, s.ResolvedDefaultMinWidth()); r != nil {
		sheet.Rules = append(sheet.Rules, r)
	}
	for p := s.MinWidthOfViewType.Oldest(); p != nil; p = p.Next() {
		width := strings.TrimSpace(p.Value)
		if width == "" || p.Key == "" {
			continue
		}
		sel := base + "[" + dom.EscapeIdent(markers.Attr) + "=" + quote(p.Key) + "]"
		if r := minWidthRule(sel, maxWidth, width); r != nil {
			sheet.Rules = append(sheet.Rules, r)
		}
	}
	return douceuradapter.Wrap(sheet)
}

// Render returns the CSS text for settings s, with white space collapsed.
// Render is deterministic: equal settings yield byte-identical output.
func Render(s settings.Settings, markers dom.Markers) string {
	return collapse(Sheet(s, markers).String())
}

func minWidthRule(selector, maxWidth, minWidth string) *css.Rule {
	if breaksOut(maxWidth) || breaksOut(minWidth) {
		tracer().Infof("skipping rule %s: width would break the declaration", selector)
		return nil
	}
	r := css.NewRule(css.QualifiedRule)
	r.Prelude = selector
	r.Selectors = []string{selector}
	r.Declarations = []*css.Declaration{{
		Property: "min-width",
		Value:    fmt.Sprintf("min(%s, %s)", maxWidth, minWidth),
	}}
	return r
}

func breaksOut(width string) bool {
	return strings.ContainsAny(width, ";{}")
}

// quote returns s as a CSS string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		case '\r', '\f':
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// collapse replaces runs of white space by a single blank, leaving string
// literals untouched.
func collapse(s string) string {
	var b strings.Builder
	var quoteChar rune
	escaped, space := false, false
	for _, r := range s {
		if quoteChar != 0 {
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quoteChar:
				quoteChar = 0
			}
			continue
		}
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		case '"', '\'':
			quoteChar = r
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// --- Style element ---------------------------------------------------------

// Projector owns the plugin's <style> elements, one per document it has
// been mounted into, and keeps their text in sync with the settings.
type Projector struct {
	id       string
	markers  dom.Markers
	elements []*html.Node
	text     string
}

// New creates a projector for style elements with the given id.
func New(id string, markers dom.Markers) *Projector {
	if id == "" {
		id = DefaultStyleID
	}
	return &Projector{id: id, markers: markers.WithDefaults()}
}

// ID returns the id of the projector's style elements.
func (p *Projector) ID() string {
	return p.id
}

// Mount places a style element into the <head> of doc, carrying the text of
// the latest Apply. Mounting into the same document twice is a no-op. A
// style element with the projector's id, left over in doc by an earlier
// incarnation of the plugin, is adopted.
func (p *Projector) Mount(doc *html.Node) (*html.Node, error) {
	if doc == nil {
		return nil, ErrNoHead
	}
	for _, el := range p.elements {
		if dom.Document(el) == doc {
			return el, nil
		}
	}
	el := dom.ElementByID(doc, p.id)
	if el == nil {
		head := dom.Head(doc)
		if head == nil {
			return nil, ErrNoHead
		}
		el = dom.NewStyleElement(p.id)
		head.AppendChild(el)
		tracer().Debugf("mounted style element #%s", p.id)
	} else {
		tracer().Debugf("adopting style element #%s", p.id)
	}
	dom.SetTextContent(el, p.text)
	p.elements = append(p.elements, el)
	return el, nil
}

// Elements returns the currently mounted style elements.
func (p *Projector) Elements() []*html.Node {
	return append([]*html.Node(nil), p.elements...)
}

// Apply renders settings s and writes the result into every mounted style
// element. Elements the host has removed from their documents are dropped.
// Apply returns the CSS text.
func (p *Projector) Apply(s settings.Settings) string {
	p.text = Render(s, p.markers)
	live := p.elements[:0]
	for _, el := range p.elements {
		if !dom.IsAttached(el) {
			tracer().Debugf("style element #%s has been detached by host", p.id)
			continue
		}
		if dom.TextContent(el) != p.text {
			dom.SetTextContent(el, p.text)
		}
		live = append(live, el)
	}
	p.elements = live
	tracer().Debugf("applied stylesheet to %d element(s)", len(live))
	return p.text
}

// Unmount empties every style element before detaching it, so that hosts
// which copy style text into other windows do not retain stale rules.
func (p *Projector) Unmount() {
	for _, el := range p.elements {
		dom.SetTextContent(el, "")
		dom.Detach(el)
	}
	p.elements = nil
	p.text = ""
}
