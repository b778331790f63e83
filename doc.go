/*
Package panewidth keeps the focused pane of a multi-pane workspace at a
configurable minimum width.

Overview

The plugin is driven by its host. The host calls Activate once its
workspace is ready and Deactivate on unload; in between it reports focus
changes and settings edits. The plugin never changes layout directly. It
annotates the container of the focused pane with a marker class and a
view-type attribute (see package tracker), and it maintains a <style>
element whose rules give marked containers a minimum width (see package
projector):

    .mw-active-pane { min-width: min(88%, 40rem); }
    .mw-active-pane[data-mw-view-type="excalidraw"] { min-width: min(88%, 60rem); }

Settings are loaded from a settings.Store on activation and merged over
the defaults. Every edit re-applies the stylesheet immediately and is
persisted in the background; rendering never waits for the store.

Configuration

New reads these keys from a configuration (any schuko.Configuration will
do):

    panewidth.debounce   quiescence window for focus changes in ms (1…1000, default 150)
    panewidth.class      marker class (default "mw-active-pane")
    panewidth.attr       view-type attribute (default "data-mw-view-type")
    panewidth.styleid    id of the style element (default "mw-active-pane-styles")

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package panewidth

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'panewidth'.
func tracer() tracing.Trace {
	return tracing.Select("panewidth")
}
