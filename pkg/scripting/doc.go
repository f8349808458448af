// Package scripting runs JavaScript add-ins against an addin.Client.
//
// The add-in's original habitat is a script embedded in the host's page;
// this package preserves that authoring surface. Scripts run on a
// goja_nodejs event loop (goja runtimes are not reentrant) and see a global
// `addin` object mirroring the Client facade: getChatRoom,
// getLocalUserDetails, getDomainDetails, getMaxMessageLength, sendMessage,
// addMessageReceivedHandler, addBeforeMessageSendHandler,
// addClosingHandler. Values cross the boundary in their wire shape
// (camelCase keys), so scripts read room.name exactly as they would from
// the host itself.
package scripting
