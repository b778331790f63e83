/*
Package tracker keeps the active-pane markers in the host's documents in
sync with the focused pane.

Overview

On every focus change the tracker clears the marker class from all known
windows, then marks the outer container of the newly focused pane. If
that container sits directly inside a horizontal split, the split is
marked as well, so stylesheet rules may widen the whole split. Vertical
splits stack their children and do not compete for width; they are never
marked.

The tracker keeps no record of which element is active. The documents are
the single source of truth, every update re-derives the marked set by
query-and-clear.

Focus changes tend to arrive in bursts (programmatic navigation fires
several in a row). OnFocusChange therefore debounces: each event cancels
the pending update and schedules a new one. Only the last event of a burst
is processed, earlier ones are dropped, not queued.

Windows

Marker state does not propagate between windows. Clearing runs for every
window the host is able to enumerate, each on its own document root.
Windows the host does not report are left alone.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tracker

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'panewidth.tracker'.
func tracer() tracing.Trace {
	return tracing.Select("panewidth.tracker")
}
