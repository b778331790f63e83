package css

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/tyse/core/dimen"
	. "github.com/npillmayer/tyse/core/percent"
)

// ErrMalformedWidth is returned for strings which are neither a CSS <length>
// nor a CSS <percentage>.
var ErrMalformedWidth = errors.New("malformed CSS width")

const (
	dimenNone uint32 = 0

	dimenAbsolute uint32 = 0x0001
	dimenAuto     uint32 = 0x0002
	dimenInherit  uint32 = 0x0003
	dimenInitial  uint32 = 0x0004
	kindMask      uint32 = 0x000f

	dimenEM      uint32 = 0x0100
	dimenEX      uint32 = 0x0200
	dimenCH      uint32 = 0x0300
	dimenREM     uint32 = 0x0400
	dimenVW      uint32 = 0x0500
	dimenVH      uint32 = 0x0600
	dimenVMIN    uint32 = 0x0700
	dimenVMAX    uint32 = 0x0800
	dimenPercent uint32 = 0x0900
	relativeMask uint32 = 0xff00
)

// DimenT is an option type for CSS widths.
type DimenT struct {
	d       dimen.DU
	percent Percent
	value   float64 // numeric part of relative units and percentages, as written
	flags   uint32
}

/*
type DimenT
	= Auto
	| Inherit
	| Initial
	| JustDimen dimen
	| Percentage Percent
	| ViewRel unit
	| FontRel unit
*/

func Auto() DimenT {
	return DimenT{flags: dimenAuto}
}

func Inherit() DimenT {
	return DimenT{flags: dimenInherit}
}

func Initial() DimenT {
	return DimenT{flags: dimenInitial}
}

// JustDimen creates a CSS dimension with a fixed value of x.
func JustDimen(x dimen.DU) DimenT {
	return DimenT{d: x, flags: dimenAbsolute}
}

// Percentage creates a CSS dimension with a %-relative value.
func Percentage(n Percent) DimenT {
	return DimenT{percent: n, flags: dimenPercent}
}

// Relative creates a font- or viewport-relative dimension, e.g.
// Relative(40, "rem"). It returns an unset dimension for unknown units.
func Relative(x float64, unit string) DimenT {
	flag, ok := relativeUnits[strings.ToLower(unit)]
	if !ok {
		return DimenT{}
	}
	return DimenT{value: x, flags: flag}
}

// IsNone is true for the zero value, i.e. an unset dimension.
func (d DimenT) IsNone() bool {
	return d.flags == dimenNone
}

// Unit returns the CSS unit of a relative dimension ("%" for percentages),
// or the empty string for every other kind.
func (d DimenT) Unit() string {
	rel := d.flags & relativeMask
	if rel == 0 {
		return ""
	}
	if rel == dimenPercent {
		return "%"
	}
	for u, f := range relativeUnits {
		if f == rel {
			return u
		}
	}
	return ""
}

var relativeUnits = map[string]uint32{
	"em":   dimenEM,
	"ex":   dimenEX,
	"ch":   dimenCH,
	"rem":  dimenREM,
	"vw":   dimenVW,
	"vh":   dimenVH,
	"vmin": dimenVMIN,
	"vmax": dimenVMAX,
}

// absolute units, as multiples of a point (CSS: 1in = 72pt = 96px)
var absoluteUnits = map[string]float64{
	"pt": 1,
	"px": 0.75,
	"pc": 12,
	"in": 72,
	"cm": 72 / 2.54,
	"mm": 72 / 25.4,
	"q":  72 / 101.6,
}

// ParseWidth classifies a CSS width literal. Accepted are <length>s
// (absolute, font-relative and viewport-relative), <percentage>s, a unitless
// zero and the keywords auto, inherit and initial. Leading and trailing
// white space is ignored.
//
// ParseWidth never panics; for anything else it returns an error wrapping
// ErrMalformedWidth.
func ParseWidth(s string) (DimenT, error) {
	w := strings.ToLower(strings.TrimSpace(s))
	switch w {
	case "":
		return DimenT{}, fmt.Errorf("%w: empty value", ErrMalformedWidth)
	case "auto":
		return Auto(), nil
	case "inherit":
		return Inherit(), nil
	case "initial":
		return Initial(), nil
	}
	num, unit := splitNumber(w)
	if num == "" {
		return DimenT{}, fmt.Errorf("%w: %q has no numeric part", ErrMalformedWidth, s)
	}
	x, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(x, 0) || math.IsNaN(x) {
		return DimenT{}, fmt.Errorf("%w: %q is not a number", ErrMalformedWidth, s)
	}
	switch {
	case unit == "":
		if x != 0 {
			return DimenT{}, fmt.Errorf("%w: %q needs a unit", ErrMalformedWidth, s)
		}
		return JustDimen(0), nil
	case unit == "%":
		d := Percentage(FromInt(int(math.Round(x))))
		d.value = x
		return d, nil
	}
	if factor, ok := absoluteUnits[unit]; ok {
		return JustDimen(dimen.DU(x * factor * float64(dimen.PT))), nil
	}
	if d := Relative(x, unit); !d.IsNone() {
		return d, nil
	}
	tracer().Debugf("css: unknown unit %q in width %q", unit, s)
	return DimenT{}, fmt.Errorf("%w: unknown unit %q", ErrMalformedWidth, unit)
}

// IsWidth is a predicate: is s a valid CSS <length> or <percentage>?
// Keywords do not count as widths.
func IsWidth(s string) bool {
	d, err := ParseWidth(s)
	if err != nil {
		return false
	}
	return d.flags&kindMask == dimenAbsolute || d.flags&relativeMask != 0
}

// splitNumber splits a literal into its numeric prefix and its unit suffix,
// following the CSS <number> token grammar.
func splitNumber(s string) (string, string) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return "", s
	}
	if i+1 < len(s) && s[i] == 'e' && (isDigit(s[i+1]) || s[i+1] == '+' || s[i+1] == '-') {
		j := i + 1
		if s[j] == '+' || s[j] == '-' {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ---------------------------------------------------------------------------

func (d DimenT) Match() *Matcher {
	return &Matcher{dimen: d}
}

type Matcher struct {
	dimen DimenT
}

func (m *Matcher) IsKind(d DimenT) *Matcher {
	mk, dk := m.dimen.flags&kindMask, d.flags&kindMask
	if mk != 0 || dk != 0 {
		if mk == dk {
			return m
		}
		return nil
	}
	mr, dr := m.dimen.flags&relativeMask, d.flags&relativeMask
	if mr == 0 || dr == 0 {
		if mr == dr {
			return m
		}
		return nil
	}
	if (mr == dimenPercent) != (dr == dimenPercent) {
		return nil
	}
	return m
}

func (m *Matcher) Just(du *dimen.DU) *Matcher {
	if m.dimen.flags&kindMask == dimenAbsolute {
		if du != nil {
			*du = m.dimen.d
		}
		return m
	}
	return nil
}

func (m *Matcher) Percentage(p *Percent) *Matcher {
	if m.dimen.flags&relativeMask == dimenPercent {
		if p != nil {
			*p = m.dimen.percent
		}
		return m
	}
	return nil
}

// Relative matches font- and viewport-relative dimensions and extracts the
// numeric value and the unit.
func (m *Matcher) Relative(x *float64, unit *string) *Matcher {
	rel := m.dimen.flags & relativeMask
	if rel == 0 || rel == dimenPercent {
		return nil
	}
	if x != nil {
		*x = m.dimen.value
	}
	if unit != nil {
		*unit = m.dimen.Unit()
	}
	return m
}

// --- Expression matching ---------------------------------------------------

type DimenPatterns[T any] struct {
	Auto     T
	Inherit  T
	Initial  T
	Just     T
	Relative T
	Percent  T
	Default  T
}

func DimenPattern[T any](d DimenT) *MatchExpr[T] {
	return &MatchExpr[T]{dimen: d}
}

type MatchExpr[T any] struct {
	dimen DimenT
}

func (m *MatchExpr[T]) OneOf(patterns DimenPatterns[T]) T {
	switch {
	case m.dimen.flags&kindMask == dimenAuto:
		return patterns.Auto
	case m.dimen.flags&kindMask == dimenAbsolute:
		return patterns.Just
	case m.dimen.flags&kindMask == dimenInitial:
		return patterns.Initial
	case m.dimen.flags&kindMask == dimenInherit:
		return patterns.Inherit
	case m.dimen.flags&relativeMask == dimenPercent:
		return patterns.Percent
	case m.dimen.flags&relativeMask != 0:
		return patterns.Relative
	}
	return patterns.Default
}

func (m *MatchExpr[T]) With(du *dimen.DU) *MatchExpr[T] {
	*du = m.dimen.d
	return m
}

func (m *MatchExpr[T]) Const(x T) T {
	return x
}
