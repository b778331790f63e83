package dom

import "golang.org/x/net/html"

// Markers names the styling hooks the plugin places on host elements.
// Class flags the active pane (and its horizontal split), Attr carries the
// view type of the active pane.
type Markers struct {
	Class string
	Attr  string
}

// DefaultMarkers are the markers used unless configured otherwise.
var DefaultMarkers = Markers{
	Class: "mw-active-pane",
	Attr:  "data-mw-view-type",
}

// WithDefaults returns m with empty fields replaced by DefaultMarkers.
func (m Markers) WithDefaults() Markers {
	if m.Class == "" {
		m.Class = DefaultMarkers.Class
	}
	if m.Attr == "" {
		m.Attr = DefaultMarkers.Attr
	}
	return m
}

// Mark places the markers on n. An empty view type removes the attribute
// instead of setting it to "", as [attr] selectors match empty values.
func (m Markers) Mark(n *html.Node, viewType string) {
	AddClass(n, m.Class)
	if viewType == "" {
		RemoveAttr(n, m.Attr)
	} else {
		SetAttr(n, m.Attr, viewType)
	}
}

// Unmark removes both markers from n.
func (m Markers) Unmark(n *html.Node) {
	RemoveClass(n, m.Class)
	RemoveAttr(n, m.Attr)
}

// IsMarked is a predicate: does n carry the marker class?
func (m Markers) IsMarked(n *html.Node) bool {
	return HasClass(n, m.Class)
}
