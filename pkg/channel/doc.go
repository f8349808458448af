// Package channel abstracts the asynchronous byte-frame channel between an
// add-in and its host.
//
// The message transport in pkg/addin is written against the Channel
// interface only. Two implementations are provided:
//   - Pipe: an in-process cross-wired pair with synchronous delivery,
//     used by tests and the demo command.
//   - WebSocket: a gorilla/websocket binding for hosts reachable over the
//     network.
package channel
