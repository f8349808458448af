// Package hostenv models the host-interop boundary between an add-in and
// the chat client embedding it.
//
// In the original hosting environment this boundary is the page's global
// scope: the host injects a synchronous API object and reads back a handful
// of well-known callback slots. Here the boundary is an explicit
// Environment value. The host side populates it (API objects, message
// channel, document readiness) and fires the callback slots; the add-in
// side probes it for capabilities and installs the slots.
package hostenv
