package channel

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket adapts a gorilla/websocket connection to the Channel interface.
// Post writes a text frame; a read pump feeds inbound frames to the
// receiver. A read error closes the channel.
type WebSocket struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	recv    func(payload []byte)
	pumping bool
	closed  bool
	done    chan struct{}
}

// NewWebSocket wraps an established connection. The read pump starts with
// the first SetReceiver, so frames the peer sends early queue in the
// connection rather than being read into the void.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{
		conn: conn,
		done: make(chan struct{}),
	}
}

func (ws *WebSocket) Post(payload []byte) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return ErrChannelClosed
	}
	if err := ws.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Debug().Err(err).Str("component", "channel").Msg("ws write failed, closing channel")
		ws.closeLocked()
		return ErrChannelClosed
	}
	return nil
}

func (ws *WebSocket) SetReceiver(fn func(payload []byte)) {
	ws.mu.Lock()
	ws.recv = fn
	start := !ws.pumping && !ws.closed
	if start {
		ws.pumping = true
	}
	ws.mu.Unlock()
	if start {
		go ws.readPump()
	}
}

func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.closeLocked()
	return nil
}

// Done is closed once the channel shuts down, whether locally or because
// the peer disconnected.
func (ws *WebSocket) Done() <-chan struct{} {
	return ws.done
}

func (ws *WebSocket) closeLocked() {
	if ws.closed {
		return
	}
	ws.closed = true
	_ = ws.conn.Close()
	close(ws.done)
}

func (ws *WebSocket) readPump() {
	for {
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("component", "channel").Msg("ws read loop end")
			ws.mu.Lock()
			ws.closeLocked()
			ws.mu.Unlock()
			return
		}

		ws.mu.Lock()
		recv := ws.recv
		ws.mu.Unlock()
		if recv == nil {
			log.Warn().Str("component", "channel").Msg("ws frame dropped, no receiver installed")
			continue
		}
		recv(data)
	}
}
