package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/panewidth/css"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fallback values for empty width settings.
const (
	DefaultMaxWidthPercent = "88%"
	DefaultDefaultMinWidth = "40rem"
)

var (
	ErrUnknownViewType   = errors.New("unknown view type")
	ErrDuplicateViewType = errors.New("view type already configured")
	ErrEmptyViewType     = errors.New("empty view type")
)

// ViewTypeWidths maps view types to minimum widths, in insertion order.
type ViewTypeWidths = orderedmap.OrderedMap[string, string]

// Settings is the persisted settings object of the plugin.
//
// The zero value is usable and resolves to the defaults.
type Settings struct {
	MaxWidthPercent    string          `json:"maxWidthPercent" yaml:"maxWidthPercent"`
	DefaultMinWidth    string          `json:"defaultMinWidth" yaml:"defaultMinWidth"`
	MinWidthOfViewType *ViewTypeWidths `json:"minWidthOfViewType" yaml:"minWidthOfViewType"`
}

// Defaults returns a fresh settings object with default values.
func Defaults() Settings {
	return Settings{
		MaxWidthPercent:    DefaultMaxWidthPercent,
		DefaultMinWidth:    DefaultDefaultMinWidth,
		MinWidthOfViewType: orderedmap.New[string, string](),
	}
}

// Merge merges loaded settings over base. Non-empty width fields of loaded
// override those of base. A view-type mapping present in loaded replaces the
// mapping of base as a whole; entries are not merged per key.
//
// The result shares no state with either argument.
func Merge(base, loaded Settings) Settings {
	s := base.Clone()
	if loaded.MaxWidthPercent != "" {
		s.MaxWidthPercent = loaded.MaxWidthPercent
	}
	if loaded.DefaultMinWidth != "" {
		s.DefaultMinWidth = loaded.DefaultMinWidth
	}
	if loaded.MinWidthOfViewType != nil {
		s.MinWidthOfViewType = cloneWidths(loaded.MinWidthOfViewType)
	}
	return s
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	c := s
	c.MinWidthOfViewType = cloneWidths(s.MinWidthOfViewType)
	return c
}

func cloneWidths(m *ViewTypeWidths) *ViewTypeWidths {
	c := orderedmap.New[string, string](m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		c.Set(p.Key, p.Value)
	}
	return c
}

// ResolvedMaxWidth returns the maximum width, falling back to the default
// if empty.
func (s Settings) ResolvedMaxWidth() string {
	return resolve(s.MaxWidthPercent, DefaultMaxWidthPercent)
}

// ResolvedDefaultMinWidth returns the minimum width for panes without a
// view-type specific setting, falling back to the default if empty.
func (s Settings) ResolvedDefaultMinWidth() string {
	return resolve(s.DefaultMinWidth, DefaultDefaultMinWidth)
}

func resolve(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// ViewTypes returns the configured view types in insertion order.
func (s Settings) ViewTypes() []string {
	if s.MinWidthOfViewType == nil {
		return []string{}
	}
	types := make([]string, 0, s.MinWidthOfViewType.Len())
	for p := s.MinWidthOfViewType.Oldest(); p != nil; p = p.Next() {
		types = append(types, p.Key)
	}
	return types
}

// ViewTypeWidth returns the width configured for a view type.
func (s Settings) ViewTypeWidth(viewType string) (string, bool) {
	if s.MinWidthOfViewType == nil {
		return "", false
	}
	return s.MinWidthOfViewType.Get(viewType)
}

// SetViewTypeWidth configures a width for a view type. New view types are
// appended to the end of the listing, existing ones keep their position.
func (s *Settings) SetViewTypeWidth(viewType, width string) error {
	if viewType == "" {
		return ErrEmptyViewType
	}
	s.widths().Set(viewType, width)
	return nil
}

// RemoveViewType removes the setting for a view type. It returns false if
// the view type has not been configured.
func (s *Settings) RemoveViewType(viewType string) bool {
	if s.MinWidthOfViewType == nil {
		return false
	}
	_, present := s.MinWidthOfViewType.Delete(viewType)
	return present
}

// RenameViewType changes the key of a view-type setting, keeping its width
// and its position in the listing.
func (s *Settings) RenameViewType(from, to string) error {
	if to == "" {
		return ErrEmptyViewType
	}
	m := s.widths()
	width, ok := m.Get(from)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownViewType, from)
	}
	if from == to {
		return nil
	}
	if _, exists := m.Get(to); exists {
		return fmt.Errorf("%w: %q", ErrDuplicateViewType, to)
	}
	m.Set(to, width)
	if err := m.MoveAfter(to, from); err != nil {
		return err
	}
	m.Delete(from)
	return nil
}

func (s *Settings) widths() *ViewTypeWidths {
	if s.MinWidthOfViewType == nil {
		s.MinWidthOfViewType = orderedmap.New[string, string]()
	}
	return s.MinWidthOfViewType
}

// Validate checks every non-empty width for being a CSS <length> or
// <percentage>. It returns one error per malformed value.
//
// Malformed values are never rejected: they are written to the stylesheet
// as they are, where the browser ignores the affected rule. Validate exists
// to report them.
func (s Settings) Validate() []error {
	var errs []error
	check := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			return
		}
		if _, err := css.ParseWidth(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	check("maxWidthPercent", s.MaxWidthPercent)
	check("defaultMinWidth", s.DefaultMinWidth)
	for p := s.MinWidthOfViewType.Oldest(); p != nil; p = p.Next() {
		check(fmt.Sprintf("minWidthOfViewType[%q]", p.Key), p.Value)
	}
	return errs
}

// Equal is a predicate: do s and other hold the same values, including the
// order of view types?
func (s Settings) Equal(other Settings) bool {
	if s.MaxWidthPercent != other.MaxWidthPercent || s.DefaultMinWidth != other.DefaultMinWidth {
		return false
	}
	if s.MinWidthOfViewType == nil || other.MinWidthOfViewType == nil {
		return len(s.ViewTypes()) == len(other.ViewTypes())
	}
	if s.MinWidthOfViewType.Len() != other.MinWidthOfViewType.Len() {
		return false
	}
	q := other.MinWidthOfViewType.Oldest()
	for p := s.MinWidthOfViewType.Oldest(); p != nil; p = p.Next() {
		if q == nil || p.Key != q.Key || p.Value != q.Value {
			return false
		}
		q = q.Next()
	}
	return true
}
