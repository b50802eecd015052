// Package board translates Granboard notification tokens into throws and
// button presses.
//
// The board reports every physical event as a short ASCII token such as
// "3.4@" (triple 20) or "BTN@" (the player button). The token set is an
// undocumented, fixed vendor format; this package holds it as a static
// bijective table and exposes a pure Translate plus a Dispatcher that routes
// decoded events to host callbacks.
package board
