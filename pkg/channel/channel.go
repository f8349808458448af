package channel

import "github.com/pkg/errors"

// ErrChannelClosed is returned by Post once a channel has been closed,
// either locally or by the peer going away.
var ErrChannelClosed = errors.New("channel is closed")

// Channel is a bidirectional frame channel to the host. Post sends a frame
// to the peer; frames arriving from the peer are handed to the receiver
// installed with SetReceiver.
//
// The channel has no notion of message origin: whoever holds the peer end
// can deliver frames. Callers that need origin policy must enforce it at
// connection time (the websocket binding trusts its dialed peer).
//
// Install the receiver before the first inbound frame can arrive; frames
// delivered while no receiver is set are dropped.
type Channel interface {
	Post(payload []byte) error
	SetReceiver(fn func(payload []byte))
	Close() error
}
