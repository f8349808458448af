package channel

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// PipeEnd is one end of an in-process channel pair. Post delivers the frame
// synchronously to the peer's receiver on the calling goroutine, which keeps
// request/response tests fully deterministic. Receivers may Post back from
// within the delivery call.
type PipeEnd struct {
	mu     sync.Mutex
	peer   *PipeEnd
	recv   func(payload []byte)
	closed bool
}

// Pipe returns two cross-wired channel ends.
func Pipe() (*PipeEnd, *PipeEnd) {
	a := &PipeEnd{}
	b := &PipeEnd{}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *PipeEnd) Post(payload []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrChannelClosed
	}
	peer := p.peer
	p.mu.Unlock()

	peer.mu.Lock()
	if peer.closed {
		peer.mu.Unlock()
		return ErrChannelClosed
	}
	recv := peer.recv
	peer.mu.Unlock()

	if recv == nil {
		log.Warn().Str("component", "channel").Msg("pipe frame dropped, no receiver installed")
		return nil
	}

	// Deliver a copy so the receiver cannot observe later mutation of the
	// caller's buffer. Delivery happens outside both locks so the receiver
	// is free to Post back.
	frame := append([]byte(nil), payload...)
	recv(frame)
	return nil
}

func (p *PipeEnd) SetReceiver(fn func(payload []byte)) {
	p.mu.Lock()
	p.recv = fn
	p.mu.Unlock()
}

// Close closes both ends of the pipe.
func (p *PipeEnd) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	peer := p.peer
	p.mu.Unlock()

	peer.mu.Lock()
	peer.closed = true
	peer.mu.Unlock()
	return nil
}
