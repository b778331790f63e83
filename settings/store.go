package settings

import (
	"context"
	"sync"
)

// Store is the host's opaque persistence for settings.
//
// Load returns the stored settings and true, or false if nothing has been
// stored yet. Fields absent from the stored data are left empty (a nil
// view-type mapping means "absent"); callers merge the result over
// Defaults().
type Store interface {
	Load() (Settings, bool, error)
	Save(Settings) error
}

// Watcher is implemented by stores which can report changes made to the
// stored settings from outside the plugin. Watch blocks until ctx is
// cancelled, calling onChange with freshly loaded settings for every change.
type Watcher interface {
	Watch(ctx context.Context, onChange func(Settings)) error
}

// MemoryStore is an in-process Store. Settings are copied on the way in
// and on the way out.
type MemoryStore struct {
	mu    sync.Mutex
	data  *Settings
	saves int
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates a store, optionally pre-filled with initial data.
func NewMemoryStore(initial *Settings) *MemoryStore {
	st := &MemoryStore{}
	if initial != nil {
		c := initial.Clone()
		if initial.MinWidthOfViewType == nil {
			c.MinWidthOfViewType = nil
		}
		st.data = &c
	}
	return st
}

// Load is part of interface Store.
func (st *MemoryStore) Load() (Settings, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.data == nil {
		return Settings{}, false, nil
	}
	c := st.data.Clone()
	if st.data.MinWidthOfViewType == nil {
		c.MinWidthOfViewType = nil
	}
	return c, true, nil
}

// Save is part of interface Store.
func (st *MemoryStore) Save(s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	c := s.Clone()
	st.data = &c
	st.saves++
	return nil
}

// Saves returns the number of calls to Save so far.
func (st *MemoryStore) Saves() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.saves
}
