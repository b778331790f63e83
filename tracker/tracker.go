package tracker

import (
	"sync"
	"time"

	"github.com/npillmayer/panewidth/dom"
	"github.com/npillmayer/panewidth/dom/domdbg"
	"golang.org/x/net/html"
)

// DefaultDelay is the quiescence window for bursts of focus changes.
const DefaultDelay = 150 * time.Millisecond

// Pane is a view surface within the host's workspace layout.
type Pane interface {
	ViewType() string        // host-assigned kind of content; may be empty
	ContainerEl() *html.Node // the pane's view container element
}

// Host is the part of the host application the tracker queries.
type Host interface {
	// Windows returns the document roots of all windows the host is able to
	// enumerate, main window first.
	Windows() []*html.Node
	// IsHorizontalSplit is a predicate: is n a split container which lays
	// out its children side by side?
	IsHorizontalSplit(n *html.Node) bool
}

// Tracker places the markers on the container of the active pane.
//
// Debounced updates run on the scheduler's goroutine. The tracker holds its
// lock whenever it reads or writes the host's documents. Other code touching
// the same documents concurrently must hold the same lock, see WithLocker.
type Tracker struct {
	host     Host
	markers  dom.Markers
	debounce *debouncer
	mu       sync.Locker // guards document access and disposed
	disposed bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLocker sets the lock the tracker holds while accessing the host's
// documents. Without it, a tracker uses a lock of its own.
func WithLocker(l sync.Locker) Option {
	return func(t *Tracker) {
		if l != nil {
			t.mu = l
		}
	}
}

// New creates a tracker for host. A delay ≤ 0 selects DefaultDelay, a nil
// scheduler selects a ClockScheduler.
func New(host Host, markers dom.Markers, delay time.Duration, sched Scheduler, opts ...Option) *Tracker {
	if delay <= 0 {
		delay = DefaultDelay
	}
	t := &Tracker{
		host:     host,
		markers:  markers.WithDefaults(),
		debounce: newDebouncer(sched, delay),
		mu:       &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Markers returns the markers the tracker places.
func (t *Tracker) Markers() dom.Markers {
	return t.markers
}

// OnFocusChange is the handler for the host's focus-change notifications.
// p may be nil if no pane has focus. The update is deferred until no further
// notification arrives within the tracker's delay; earlier notifications of
// a burst are discarded.
func (t *Tracker) OnFocusChange(p Pane) {
	if t.isDisposed() {
		return
	}
	t.debounce.trigger(func() {
		t.Sync(p)
	})
}

// Pending is a predicate: is an update scheduled but not yet done?
func (t *Tracker) Pending() bool {
	return t.debounce.isPending()
}

// Sync moves the markers to pane p immediately. Markers are first cleared
// in every window; if p is nil or its container cannot be resolved, no
// element remains marked.
func (t *Tracker) Sync(p Pane) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	windows := t.host.Windows()
	target := t.target(p)
	if target != nil {
		if doc := dom.Document(target); !contains(windows, doc) {
			tracer().Debugf("pane lives in a window unknown to host")
			windows = append(windows, doc)
		}
	}
	for _, w := range windows {
		t.clear(w, false)
	}
	if target == nil {
		return
	}
	vt := p.ViewType()
	t.markers.Mark(target, vt)
	tracer().Debugf("marked active pane %s [%s=%q]", label(target), t.markers.Attr, vt)
	if parent := target.Parent; parent != nil && dom.IsElement(parent) && t.host.IsHorizontalSplit(parent) {
		t.markers.Mark(parent, vt)
		tracer().Debugf("marked horizontal split %s", label(parent))
	}
	tracer().Debugf("markers =\n%s", domdbg.Dump(dom.Document(target), t.markers.Class, t.markers.Attr))
}

// target locates the outer container of p, i.e. the parent of its view
// container. It returns nil for detached or malformed panes.
func (t *Tracker) target(p Pane) *html.Node {
	if p == nil {
		return nil
	}
	view := p.ContainerEl()
	if view == nil || !dom.IsAttached(view) {
		tracer().Debugf("pane container is not attached, skipping")
		return nil
	}
	if view.Parent == nil || !dom.IsElement(view.Parent) {
		tracer().Debugf("pane container has no element parent, skipping")
		return nil
	}
	return view.Parent
}

// clear removes the marker class from every element under root. With strip
// set, the view-type attribute is removed from elements not carrying the
// class as well.
func (t *Tracker) clear(root *html.Node, strip bool) {
	if root == nil {
		return
	}
	for _, el := range dom.ByClass(root, t.markers.Class) {
		t.markers.Unmark(el)
	}
	if strip {
		for _, el := range dom.ByAttr(root, t.markers.Attr) {
			dom.RemoveAttr(el, t.markers.Attr)
		}
	}
}

// ActiveViewType returns the view type of the currently marked pane, as
// found in the documents. The boolean result is false if no pane is marked.
// A marked pane without a view type yields ("", true).
func (t *Tracker) ActiveViewType() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, w := range t.host.Windows() {
		if w == nil {
			continue
		}
		marked := dom.ByClass(w, t.markers.Class)
		if len(marked) == 0 {
			continue
		}
		// document order puts the leaf after its split
		vt, _ := dom.Attr(marked[len(marked)-1], t.markers.Attr)
		return vt, true
	}
	return "", false
}

// Dispose cancels a pending update and removes all markers from every
// window the host enumerates. Windows the host does not report keep their
// markers. After Dispose, the tracker ignores all calls.
func (t *Tracker) Dispose() {
	t.debounce.stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	t.disposed = true
	for _, w := range t.host.Windows() {
		t.clear(w, true)
	}
	tracer().Infof("tracker disposed")
}

func (t *Tracker) isDisposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

func contains(windows []*html.Node, doc *html.Node) bool {
	for _, w := range windows {
		if w == doc {
			return true
		}
	}
	return false
}

func label(n *html.Node) string {
	if id, ok := dom.Attr(n, "id"); ok {
		return n.Data + "#" + id
	}
	return n.Data
}
