package panewidth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/panewidth/dom"
	"github.com/npillmayer/panewidth/dom/cssom/douceuradapter"
	"github.com/npillmayer/panewidth/projector"
	"github.com/npillmayer/panewidth/settings"
	"github.com/npillmayer/panewidth/tracker"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const workspace = `<html><head><title>vault</title></head><body>
<div id="root" class="workspace-split mod-vertical">
  <div id="hsplit" class="workspace-split mod-horizontal">
    <div id="leafA" class="workspace-leaf"><div id="viewA" class="view-content"></div></div>
    <div id="leafB" class="workspace-leaf"><div id="viewB" class="view-content"></div></div>
  </div>
</div>
</body></html>`

// --- Fakes -----------------------------------------------------------------

type fakeHost struct {
	mu       sync.Mutex
	windows  []*html.Node
	handlers map[int]func(tracker.Pane)
	next     int
}

func newHost(t *testing.T, docs ...string) *fakeHost {
	h := &fakeHost{handlers: map[int]func(tracker.Pane){}}
	for _, d := range docs {
		doc, err := html.Parse(strings.NewReader(d))
		require.NoError(t, err)
		h.windows = append(h.windows, doc)
	}
	return h
}

func (h *fakeHost) Windows() []*html.Node {
	return h.windows
}

func (h *fakeHost) MainDocument() *html.Node {
	return h.windows[0]
}

func (h *fakeHost) IsHorizontalSplit(n *html.Node) bool {
	return dom.HasClass(n, "mod-horizontal")
}

func (h *fakeHost) OnActivePaneChange(handler func(tracker.Pane)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.handlers[id] = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}
}

func (h *fakeHost) focus(p tracker.Pane) {
	h.mu.Lock()
	handlers := make([]func(tracker.Pane), 0, len(h.handlers))
	for _, f := range h.handlers {
		handlers = append(handlers, f)
	}
	h.mu.Unlock()
	for _, f := range handlers {
		f(p)
	}
}

func (h *fakeHost) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

func (h *fakeHost) pane(win int, id, vt string) tracker.Pane {
	return fakePane{vt: vt, el: dom.ElementByID(h.windows[win], id)}
}

type fakePane struct {
	vt string
	el *html.Node
}

func (p fakePane) ViewType() string { return p.vt }
func (p fakePane) ContainerEl() *html.Node { return p.el }

type manualScheduler struct {
	tasks []*task
}

type task struct {
	fn            func()
	cancelled, ok bool
}

func (t *task) Cancel() { t.cancelled = true }

func (s *manualScheduler) Schedule(d time.Duration, fn func()) tracker.Handle {
	t := &task{fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) flush() {
	for _, t := range s.tasks {
		if !t.cancelled && !t.ok {
			t.ok = true
			t.fn()
		}
	}
}

// conf is a configuration backed by a map.
type conf map[string]interface{}

func (c conf) IsSet(key string) bool {
	_, ok := c[key]
	return ok
}

func (c conf) GetString(key string) string {
	s, _ := c[key].(string)
	return s
}

func (c conf) GetInt(key string) int {
	n, _ := c[key].(int)
	return n
}

type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Load() (settings.Settings, bool, error) { return settings.Settings{}, false, errStore }
func (failingStore) Save(settings.Settings) error { return errStore }

func styleText(t *testing.T, doc *html.Node, id string) string {
	el := dom.ElementByID(doc, id)
	require.NotNil(t, el, "expected style element #%s, found none", id)
	return dom.TextContent(el)
}

// --- Tests -----------------------------------------------------------------

func TestActivateMergesStoredSettings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	stored := settings.Settings{DefaultMinWidth: "35rem"}
	require.NoError(t, stored.SetViewTypeWidth("excalidraw", "60rem"))
	host := newHost(t, workspace)
	p := New(host, settings.NewMemoryStore(&stored), nil)
	require.NoError(t, p.Activate(context.Background()))
	defer p.Deactivate()
	//
	assert.Equal(t, "88%", p.Settings().MaxWidthPercent)
	assert.Equal(t, "35rem", p.Settings().DefaultMinWidth)
	_, sheet, err := douceuradapter.FindStyleElement(host.MainDocument(), projector.DefaultStyleID)
	require.NoError(t, err)
	rules := sheet.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "min(88%, 35rem)", rules[0].Value("min-width"))
	assert.Equal(t, "min(88%, 60rem)", rules[1].Value("min-width"))
	assert.Equal(t, 1, host.subscribers())
	require.NoError(t, p.Activate(context.Background()), "activating twice is a no-op")
	assert.Equal(t, 1, host.subscribers())
}

func TestActivateSurvivesFailingStore(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	host := newHost(t, workspace)
	p := New(host, failingStore{}, nil)
	require.NoError(t, p.Activate(context.Background()))
	assert.Equal(t, `.mw-active-pane { min-width: min(88%, 40rem); }`,
		styleText(t, host.MainDocument(), projector.DefaultStyleID))
	require.NoError(t, p.UpdateSettings(func(s *settings.Settings) error {
		s.MaxWidthPercent = "70%"
		return nil
	}))
	p.Deactivate() // waits for the failing save
	assert.Equal(t, "70%", p.Settings().MaxWidthPercent)
}

func TestActivateNeedsDocumentHead(t *testing.T) {
	host := newHost(t, workspace)
	dom.Detach(dom.Head(host.MainDocument()))
	p := New(host, nil, nil)
	err := p.Activate(context.Background())
	assert.ErrorIs(t, err, projector.ErrNoHead)
	assert.Equal(t, 0, host.subscribers())
}

func TestFocusChangesAreDebounced(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	host := newHost(t, workspace)
	sched := &manualScheduler{}
	p := New(host, settings.NewMemoryStore(nil), nil, WithScheduler(sched))
	require.NoError(t, p.Activate(context.Background()))
	defer p.Deactivate()
	host.focus(host.pane(0, "viewA", "markdown"))
	host.focus(host.pane(0, "viewB", "canvas"))
	_, ok := p.ActiveViewType()
	assert.False(t, ok, "nothing is marked before the window settles")
	sched.flush()
	vt, ok := p.ActiveViewType()
	assert.True(t, ok)
	assert.Equal(t, "canvas", vt)
	doc := host.MainDocument()
	assert.True(t, dom.HasClass(dom.ElementByID(doc, "leafB"), "mw-active-pane"))
	assert.False(t, dom.HasClass(dom.ElementByID(doc, "leafA"), "mw-active-pane"))
}

func TestUpdateSettingsAppliesAndPersists(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	host := newHost(t, workspace)
	store := settings.NewMemoryStore(nil)
	p := New(host, store, nil)
	require.NoError(t, p.Activate(context.Background()))
	for _, w := range []string{"30rem", "31rem", "32rem"} {
		w := w
		require.NoError(t, p.UpdateSettings(func(s *settings.Settings) error {
			return s.SetViewTypeWidth("markdown", w)
		}))
	}
	assert.Contains(t, styleText(t, host.MainDocument(), projector.DefaultStyleID),
		`[data-mw-view-type="markdown"] { min-width: min(88%, 32rem); }`,
		"stylesheet is updated without waiting for the store")
	err := p.UpdateSettings(func(s *settings.Settings) error {
		if err := s.SetViewTypeWidth("pdf", "1rem"); err != nil {
			return err
		}
		return s.RenameViewType("pdf", "markdown")
	})
	assert.ErrorIs(t, err, settings.ErrDuplicateViewType)
	assert.Equal(t, []string{"markdown"}, p.Settings().ViewTypes(), "failed edit leaves settings unchanged")
	p.Deactivate()
	//
	saved, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)
	w, _ := saved.ViewTypeWidth("markdown")
	assert.Equal(t, "32rem", w, "latest edit is persisted")
	assert.GreaterOrEqual(t, store.Saves(), 1)
}

func TestDeactivateRemovesAllTraces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	host := newHost(t, workspace)
	sched := &manualScheduler{}
	p := New(host, nil, nil, WithScheduler(sched))
	require.NoError(t, p.Activate(context.Background()))
	host.focus(host.pane(0, "viewA", "markdown"))
	sched.flush()
	style := dom.ElementByID(host.MainDocument(), projector.DefaultStyleID)
	require.NotNil(t, style)
	//
	p.Deactivate()
	doc := host.MainDocument()
	assert.Empty(t, dom.ByClass(doc, "mw-active-pane"))
	assert.Empty(t, dom.ByAttr(doc, "data-mw-view-type"))
	assert.Equal(t, "", dom.TextContent(style))
	assert.Nil(t, dom.ElementByID(doc, projector.DefaultStyleID))
	assert.Equal(t, 0, host.subscribers())
	_, ok := p.ActiveViewType()
	assert.False(t, ok)
	p.Deactivate()
}

func TestConfiguration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	host := newHost(t, workspace)
	sched := &manualScheduler{}
	c := conf{
		KeyDebounce: 5000,
		KeyClass:    "is-wide",
		KeyAttr:     "data-kind",
		KeyStyleID:  "wide-styles",
	}
	p := New(host, nil, c, WithScheduler(sched))
	assert.Equal(t, tracker.DefaultDelay, p.delay, "out-of-range debounce falls back to default")
	require.NoError(t, p.Activate(context.Background()))
	defer p.Deactivate()
	assert.Equal(t, `.is-wide { min-width: min(88%, 40rem); }`,
		styleText(t, host.MainDocument(), "wide-styles"))
	host.focus(host.pane(0, "viewA", "pdf"))
	sched.flush()
	leaf := dom.ElementByID(host.MainDocument(), "leafA")
	assert.True(t, dom.HasClass(leaf, "is-wide"))
	vt, _ := dom.Attr(leaf, "data-kind")
	assert.Equal(t, "pdf", vt)
	//
	q := New(host, nil, conf{KeyDebounce: 40})
	assert.Equal(t, 40*time.Millisecond, q.delay)
}

func TestStylesheetFollowsPaneIntoPopout(t *testing.T) {
	host := newHost(t, workspace)
	sched := &manualScheduler{}
	p := New(host, nil, nil, WithScheduler(sched))
	require.NoError(t, p.Activate(context.Background()))
	defer p.Deactivate()
	popout, err := html.Parse(strings.NewReader(`<html><head></head><body>
<div id="pleaf" class="workspace-leaf"><div id="pview"></div></div></body></html>`))
	require.NoError(t, err)
	host.windows = append(host.windows, popout)
	host.focus(fakePane{vt: "pdf", el: dom.ElementByID(popout, "pview")})
	sched.flush()
	assert.NotEmpty(t, styleText(t, popout, projector.DefaultStyleID))
	assert.True(t, dom.HasClass(dom.ElementByID(popout, "pleaf"), "mw-active-pane"))
}

func TestExternalSettingsChangeIsApplied(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "data.json")
	store := settings.NewFileStore(path)
	require.NoError(t, store.Save(settings.Defaults()))
	host := newHost(t, workspace)
	p := New(host, store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Activate(ctx))
	external := []byte(`{"maxWidthPercent": "75%", "minWidthOfViewType": {"pdf": "20rem"}}`)
	// the watcher starts asynchronously; keep writing until it reports
	assert.Eventually(t, func() bool {
		if p.Settings().MaxWidthPercent == "75%" {
			return true
		}
		_ = os.WriteFile(path, external, 0644)
		return false
	}, 5*time.Second, 50*time.Millisecond)
	s := p.Settings()
	assert.Equal(t, "40rem", s.DefaultMinWidth, "stored data is merged over defaults")
	assert.Equal(t, []string{"pdf"}, s.ViewTypes())
	p.Deactivate()
}

func TestFocusAndEditsFromSeveralGoroutines(t *testing.T) {
	host := newHost(t, workspace)
	p := New(host, settings.NewMemoryStore(nil), conf{KeyDebounce: 1})
	require.NoError(t, p.Activate(context.Background()))
	a := host.pane(0, "viewA", "markdown")
	b := host.pane(0, "viewB", "canvas")
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			host.focus(a)
		} else {
			host.focus(b)
		}
		w := []string{"30rem", "31rem"}[i%2]
		require.NoError(t, p.UpdateSettings(func(s *settings.Settings) error {
			return s.SetViewTypeWidth("markdown", w)
		}))
		if i%20 == 0 {
			time.Sleep(2 * time.Millisecond) // let debounced updates fire
		}
	}
	assert.Eventually(t, func() bool {
		vt, ok := p.ActiveViewType()
		return ok && vt == "canvas"
	}, 2*time.Second, 5*time.Millisecond)
	p.Deactivate()
	doc := host.MainDocument()
	assert.Empty(t, dom.ByClass(doc, "mw-active-pane"))
	assert.Nil(t, dom.ElementByID(doc, projector.DefaultStyleID))
}

// watchedStore lets a test deliver store changes by hand and hold saves
// back.
type watchedStore struct {
	*settings.MemoryStore
	gate     chan struct{} // saves wait for it to be closed, if set
	onChange chan func(settings.Settings)
}

func newWatchedStore() *watchedStore {
	return &watchedStore{
		MemoryStore: settings.NewMemoryStore(nil),
		onChange:    make(chan func(settings.Settings), 1),
	}
}

func (st *watchedStore) Save(s settings.Settings) error {
	if st.gate != nil {
		<-st.gate
	}
	return st.MemoryStore.Save(s)
}

func (st *watchedStore) Watch(ctx context.Context, onChange func(settings.Settings)) error {
	st.onChange <- onChange
	<-ctx.Done()
	return nil
}

func (st *watchedStore) notifier(t *testing.T) func(settings.Settings) {
	select {
	case f := <-st.onChange:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("expected plugin to watch the store, doesn't")
	}
	return nil
}

func TestOwnSaveEchoesAreIgnored(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "panewidth")
	defer teardown()
	//
	host := newHost(t, workspace)
	store := newWatchedStore()
	p := New(host, store, nil)
	require.NoError(t, p.Activate(context.Background()))
	defer p.Deactivate()
	notify := store.notifier(t)
	//
	require.NoError(t, p.UpdateSettings(func(s *settings.Settings) error {
		s.MaxWidthPercent = ""
		return nil
	}))
	p.saves.Wait()
	echo, _, err := store.Load()
	require.NoError(t, err)
	notify(echo)
	assert.Equal(t, "", p.Settings().MaxWidthPercent, "echo of own save must not restore defaults")
	assert.Contains(t, styleText(t, host.MainDocument(), projector.DefaultStyleID), "min(88%, 40rem)")
	//
	external := settings.Settings{MaxWidthPercent: "75%"}
	notify(external)
	assert.Equal(t, "75%", p.Settings().MaxWidthPercent)
	assert.Equal(t, "40rem", p.Settings().DefaultMinWidth, "external data is merged over defaults")
}

func TestStoreChangesDuringSaveAreIgnored(t *testing.T) {
	host := newHost(t, workspace)
	store := newWatchedStore()
	store.gate = make(chan struct{})
	p := New(host, store, nil)
	require.NoError(t, p.Activate(context.Background()))
	notify := store.notifier(t)
	//
	require.NoError(t, p.UpdateSettings(func(s *settings.Settings) error {
		s.MaxWidthPercent = "70%"
		return nil
	}))
	older := settings.Defaults()
	notify(older) // echo of an earlier save, arriving late
	assert.Equal(t, "70%", p.Settings().MaxWidthPercent, "newer edit must not be reverted")
	close(store.gate)
	p.Deactivate()
	saved, _, _ := store.Load()
	assert.Equal(t, "70%", saved.MaxWidthPercent)
}
