/*
Package css provides helpers for CSS width literals.

Settings hold widths as raw CSS text (e.g., "40rem" or "88%"). These
strings are written into a stylesheet unchanged, so the browser layer is
the final judge of their validity. This package classifies a literal as a
CSS <length> or <percentage>, which lets callers report malformed values
without ever rejecting them.

Status

The unit set follows CSS Values Level 3. Math functions (calc, min, max,
clamp) are not parsed and are reported as malformed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package css

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'panewidth.css'.
func tracer() tracing.Trace {
	return tracing.Select("panewidth.css")
}
