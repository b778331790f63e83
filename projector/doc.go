/*
Package projector projects the plugin's settings into a stylesheet.

Overview

The generated stylesheet holds one base rule for the active-pane marker
class, followed by one rule per configured view type, qualified by the
view-type marker attribute:

    .mw-active-pane { min-width: min(88%, 40rem); }
    .mw-active-pane[data-mw-view-type="excalidraw"] { min-width: min(88%, 60rem); }

The attribute-qualified rules carry one more attribute selector and thus
win over the base rule by CSS specificity alone. View-type rules follow
the insertion order of the settings, so of two rules with equal specificity
the later one wins.

Render is a pure function; equal settings yield byte-identical text. A
Projector owns exactly one <style> element and writes Render's output into
it.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package projector

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'panewidth.projector'.
func tracer() tracing.Trace {
	return tracing.Select("panewidth.projector")
}
