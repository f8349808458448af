package hostsim

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mindlink/add-in-client/pkg/channel"
)

// BrokerServer serves one Broker per websocket connection. Origins are not
// checked: the message protocol itself accepts frames from any origin, and
// the demo host mirrors that.
type BrokerServer struct {
	fixture   Fixture
	onConnect func(*Broker)
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	brokers map[string]*Broker
}

// NewBrokerServer creates a server answering from the fixture. onConnect,
// when non-nil, runs on its own goroutine for every new add-in connection;
// demos use it to push events at the freshly connected add-in.
func NewBrokerServer(fixture Fixture, onConnect func(*Broker)) *BrokerServer {
	return &BrokerServer{
		fixture:   fixture,
		onConnect: onConnect,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		brokers: map[string]*Broker{},
	}
}

func (s *BrokerServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("component", "hostsim").Msg("ws upgrade failed")
		return
	}

	id := uuid.NewString()
	ws := channel.NewWebSocket(conn)
	broker := NewBroker(ws, s.fixture)

	s.mu.Lock()
	s.brokers[id] = broker
	s.mu.Unlock()
	log.Info().Str("component", "hostsim").Str("session_id", id).Str("remote", conn.RemoteAddr().String()).Msg("add-in connected")

	go func() {
		<-ws.Done()
		s.mu.Lock()
		delete(s.brokers, id)
		s.mu.Unlock()
		log.Info().Str("component", "hostsim").Str("session_id", id).Msg("add-in disconnected")
	}()

	if s.onConnect != nil {
		go s.onConnect(broker)
	}
}

// Brokers returns the brokers of the currently connected add-ins.
func (s *BrokerServer) Brokers() []*Broker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Broker, 0, len(s.brokers))
	for _, b := range s.brokers {
		out = append(out, b)
	}
	return out
}
