// Package addin is the client SDK an add-in uses to talk to the chat
// client hosting it.
//
// The host exposes one of two integration surfaces: a synchronous API
// object injected into the host-interop boundary (native integration), or
// an asynchronous message channel carrying JSON envelopes (cross-domain
// embedding). New probes the boundary once, picks the matching transport,
// and returns a Client whose operation surface is identical either way.
//
// Host-originated events (message received, pre-send interception,
// teardown) flow through a multicast Dispatcher to every registered
// handler, again independent of the transport in use.
//
// Two deliberate limitations are inherited from the integration contract
// and not papered over: message-transport requests have no timeout, so a
// continuation never fires if the host never replies; and event dispatch
// has no fault isolation, so a panicking handler aborts the dispatch pass.
package addin
