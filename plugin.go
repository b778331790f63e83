package panewidth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/npillmayer/panewidth/dom"
	"github.com/npillmayer/panewidth/projector"
	"github.com/npillmayer/panewidth/settings"
	"github.com/npillmayer/panewidth/tracker"
	"golang.org/x/net/html"
)

// Configuration keys.
const (
	KeyDebounce = "panewidth.debounce"
	KeyClass    = "panewidth.class"
	KeyAttr     = "panewidth.attr"
	KeyStyleID  = "panewidth.styleid"
)

// Host is the host application as seen by the plugin.
type Host interface {
	tracker.Host
	// MainDocument returns the document of the main window.
	MainDocument() *html.Node
	// OnActivePaneChange registers a handler for focus changes. The handler
	// receives nil if no pane has focus.
	OnActivePaneChange(handler func(tracker.Pane)) (unsubscribe func())
}

// Config is the part of a schuko.Configuration the plugin reads.
type Config interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithScheduler sets the scheduler used for debouncing focus changes.
func WithScheduler(s tracker.Scheduler) Option {
	return func(p *Plugin) {
		p.sched = s
	}
}

// Plugin is the active-pane minimum width plugin.
type Plugin struct {
	host    Host
	store   settings.Store
	delay   time.Duration
	markers dom.Markers
	styleID string
	sched   tracker.Scheduler

	// doc is held for every access to the host's documents, by the plugin
	// and by the tracker's debounced updates. Acquire mu before doc.
	doc sync.Mutex

	mu          sync.Mutex // guards the fields below
	active      bool
	settings    settings.Settings
	projector   *projector.Projector
	tracker     *tracker.Tracker
	unsubscribe func()
	stopWatch   context.CancelFunc
	watchDone   chan struct{}
	inflight    int                // saves issued but not finished
	lastSaved   *settings.Settings // as last written to the store

	saveMu   sync.Mutex // serializes saves
	saveSeq  uint64     // guarded by mu
	savedSeq uint64     // guarded by saveMu
	saves    sync.WaitGroup
}

// New creates a plugin for host, persisting its settings in store. conf may
// be nil, in which case defaults are used throughout.
func New(host Host, store settings.Store, conf Config, opts ...Option) *Plugin {
	p := &Plugin{
		host:     host,
		store:    store,
		delay:    tracker.DefaultDelay,
		markers:  dom.DefaultMarkers,
		styleID:  projector.DefaultStyleID,
		settings: settings.Defaults(),
	}
	if conf != nil {
		p.configure(conf)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) configure(conf Config) {
	if conf.IsSet(KeyDebounce) {
		if ms := conf.GetInt(KeyDebounce); ms >= 1 && ms <= 1000 {
			p.delay = time.Duration(ms) * time.Millisecond
		} else {
			tracer().Errorf("%s = %d out of range 1…1000, using %v", KeyDebounce, ms, p.delay)
		}
	}
	if conf.IsSet(KeyClass) {
		p.markers.Class = conf.GetString(KeyClass)
	}
	if conf.IsSet(KeyAttr) {
		p.markers.Attr = conf.GetString(KeyAttr)
	}
	if conf.IsSet(KeyStyleID) && conf.GetString(KeyStyleID) != "" {
		p.styleID = conf.GetString(KeyStyleID)
	}
	p.markers = p.markers.WithDefaults()
}

// Activate loads the settings, installs the stylesheet into every window
// of the host and starts tracking focus changes. If the store is a
// settings.Watcher, changes to the stored settings are picked up until
// ctx is cancelled or the plugin is deactivated.
//
// A failing store is not fatal: the plugin then runs on default settings.
// Activate returns an error if the main document has no <head>.
func (p *Plugin) Activate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return nil
	}
	p.settings = p.load()
	if err := p.install(); err != nil {
		return err
	}
	p.tracker = tracker.New(p.host, p.markers, p.delay, p.sched, tracker.WithLocker(&p.doc))
	p.unsubscribe = p.host.OnActivePaneChange(p.onActivePaneChange)
	if w, ok := p.store.(settings.Watcher); ok {
		p.watch(ctx, w)
	}
	p.active = true
	tracer().Infof("plugin activated")
	return nil
}

// install mounts the stylesheet into every window. Called with mu held.
func (p *Plugin) install() error {
	p.doc.Lock()
	defer p.doc.Unlock()
	p.projector = projector.New(p.styleID, p.markers)
	p.projector.Apply(p.settings)
	if _, err := p.projector.Mount(p.host.MainDocument()); err != nil {
		p.projector = nil
		return fmt.Errorf("cannot install stylesheet: %w", err)
	}
	for _, w := range p.host.Windows() {
		if _, err := p.projector.Mount(w); err != nil {
			tracer().Infof("window without stylesheet: %v", err)
		}
	}
	return nil
}

// apply re-renders the stylesheet. Called with mu held.
func (p *Plugin) apply() {
	if p.projector == nil {
		return
	}
	p.doc.Lock()
	defer p.doc.Unlock()
	p.projector.Apply(p.settings)
}

// load returns the stored settings merged over the defaults.
func (p *Plugin) load() settings.Settings {
	s := settings.Defaults()
	if p.store == nil {
		return s
	}
	loaded, found, err := p.store.Load()
	if err != nil {
		tracer().Errorf("cannot load settings, using defaults: %v", err)
		return s
	}
	if found {
		s = settings.Merge(s, loaded)
	}
	for _, finding := range s.Validate() {
		tracer().Infof("settings: %v", finding)
	}
	return s
}

// watch starts a goroutine watching the store. Called with mu held.
func (p *Plugin) watch(ctx context.Context, w settings.Watcher) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.stopWatch, p.watchDone = cancel, done
	go func() {
		defer close(done)
		if err := w.Watch(ctx, p.onStoreChange); err != nil {
			tracer().Errorf("settings store: %v", err)
		}
	}()
}

// onStoreChange handles settings reloaded by the store's watcher. Echoes
// of the plugin's own saves are ignored, and so is everything reported
// while a save is in flight: that save is going to overwrite it.
func (p *Plugin) onStoreChange(loaded settings.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight > 0 {
		tracer().Debugf("ignoring store change during save")
		return
	}
	if p.lastSaved != nil && loaded.Equal(*p.lastSaved) {
		return
	}
	s := settings.Merge(settings.Defaults(), loaded)
	if s.Equal(p.settings) {
		return
	}
	tracer().Infof("settings changed in store")
	p.settings = s
	p.apply()
}

func (p *Plugin) onActivePaneChange(pane tracker.Pane) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	if pane != nil {
		p.mountFor(pane.ContainerEl())
	}
	t := p.tracker
	p.mu.Unlock()
	t.OnFocusChange(pane)
}

// mountFor mounts the stylesheet into the document of el. Called with mu
// held.
func (p *Plugin) mountFor(el *html.Node) {
	if el == nil {
		return
	}
	p.doc.Lock()
	defer p.doc.Unlock()
	if doc := dom.Document(el); doc != nil {
		if _, err := p.projector.Mount(doc); err != nil {
			tracer().Debugf("pane window without stylesheet: %v", err)
		}
	}
}

// OnSettingsChanged replaces the current settings and re-applies the
// stylesheet.
func (p *Plugin) OnSettingsChanged(s settings.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s.Clone()
	p.apply()
}

// UpdateSettings is the entry point for settings edits. fn mutates a copy
// of the current settings; if it returns an error, nothing changes.
// Otherwise the new settings are applied at once and saved to the store in
// the background. Save errors are traced. Of several saves in flight, the
// most recent settings win.
func (p *Plugin) UpdateSettings(fn func(*settings.Settings) error) error {
	p.mu.Lock()
	s := p.settings.Clone()
	if err := fn(&s); err != nil {
		p.mu.Unlock()
		return err
	}
	p.settings = s
	p.apply()
	if p.store == nil {
		p.mu.Unlock()
		return nil
	}
	p.saveSeq++
	p.inflight++
	seq, snapshot := p.saveSeq, s.Clone()
	p.mu.Unlock()
	p.saves.Add(1)
	go func() {
		defer p.saves.Done()
		p.save(seq, snapshot)
	}()
	return nil
}

func (p *Plugin) save(seq uint64, s settings.Settings) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	var err error
	if seq > p.savedSeq {
		if err = p.store.Save(s); err != nil {
			tracer().Errorf("cannot save settings: %v", err)
		} else {
			p.savedSeq = seq
		}
	} // else superseded by a newer save
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	if err == nil && seq == p.savedSeq {
		p.lastSaved = &s
	}
}

// Settings returns a copy of the current settings.
func (p *Plugin) Settings() settings.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Clone()
}

// ActiveViewType returns the view type of the marked pane, if any. The
// settings UI uses it to offer the current view type for configuration.
func (p *Plugin) ActiveViewType() (string, bool) {
	p.mu.Lock()
	t := p.tracker
	p.mu.Unlock()
	if t == nil {
		return "", false
	}
	return t.ActiveViewType()
}

// Deactivate stops tracking, empties and removes the stylesheet, and
// removes all markers from the host's windows. It waits for pending saves.
func (p *Plugin) Deactivate() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		p.saves.Wait()
		return
	}
	p.active = false
	unsubscribe, stop, done := p.unsubscribe, p.stopWatch, p.watchDone
	p.unsubscribe, p.stopWatch, p.watchDone = nil, nil, nil
	p.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	if stop != nil {
		stop()
		<-done
	}
	p.mu.Lock()
	p.doc.Lock()
	p.projector.Unmount()
	p.doc.Unlock()
	t := p.tracker
	p.mu.Unlock()
	t.Dispose()
	p.saves.Wait()
	tracer().Infof("plugin deactivated")
}
