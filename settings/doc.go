/*
Package settings holds the plugin's persisted settings and the stores they
are loaded from and saved to.

Overview

Settings consist of two global width values and a mapping from view types
to minimum widths. Width values are CSS literals and are handed to the
stylesheet unchanged; empty values fall back to DefaultMaxWidthPercent and
DefaultDefaultMinWidth. The view-type mapping keeps insertion order, so a
settings UI lists entries in the order a user has created them.

Settings are loaded once when the plugin is activated, merged over the
defaults (a shallow merge; the view-type mapping is replaced as a whole),
and saved back on every change. Stores are opaque to the plugin: anything
which can round-trip the settings shape implements interface Store.
FileStore keeps settings in a JSON or YAML file and is able to report
changes made to that file by other processes.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package settings

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'panewidth.settings'.
func tracer() tracing.Trace {
	return tracing.Select("panewidth.settings")
}
