/*
Package dom provides the small set of DOM operations the plugin performs on
host-owned documents.

Status

Stable for the needs of package tracker and package projector.

Overview

The host's windows are modelled as HTML parse trees of package
golang.org/x/net/html: every window is a node of type html.DocumentNode,
every pane and split container is an element node below it. The plugin does
not own these nodes. It only annotates them with a marker class and a
marker attribute, and it owns exactly one element of its own, a <style>
element in the document head.

Element lookup uses CSS selectors, compiled with
https://godoc.org/github.com/andybalholm/cascadia. Selectors are compiled
once and cached, as the same few queries run on every focus change.

Class handling treats the "class" attribute as a white-space separated set.
Adding a class which is already present or removing a class which is absent
leaves the attribute untouched.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package dom

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'panewidth.dom'
func tracer() tracing.Trace {
	return tracing.Select("panewidth.dom")
}
