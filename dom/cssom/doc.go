/*
Package cssom provides an object model for the plugin's stylesheet.

Status

Covers qualified rules with declarations only. At-rules are not needed by
the plugin and are passed through opaquely.

Overview

CSSOM is the "CSS Object Model", similar to the DOM for HTML.
The plugin writes exactly one stylesheet, and it writes it as text. Reading
it back as an object model serves two purposes: tests verify rules without
depending on formatting, and the plugin may locate its own rules inside a
document which has been handed over by the host.

CSS handling is de-coupled by introducing the interfaces StyleSheet and
Rule. A concrete implementation based on
https://github.com/aymerick/douceur may be found in sub-package
douceuradapter.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package cssom
