package hostsim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mindlink/add-in-client/pkg/addin"
	"github.com/mindlink/add-in-client/pkg/channel"
)

// SentMessage records one message an add-in asked the host to send.
type SentMessage struct {
	Message string
	Alert   bool
}

// Broker is a message-transport host: it answers request envelopes from a
// fixture, pushes event envelopes, and collects the add-in's suppression
// answers for events that carry an id.
type Broker struct {
	ch      channel.Channel
	fixture Fixture

	mu         sync.Mutex
	registered bool
	sent       []SentMessage
	failures   map[string]any
	drops      map[string]struct{}
	acks       map[string]chan bool
}

// NewBroker attaches a broker to its end of the channel.
func NewBroker(ch channel.Channel, fixture Fixture) *Broker {
	b := &Broker{
		ch:       ch,
		fixture:  fixture,
		failures: map[string]any{},
		drops:    map[string]struct{}{},
		acks:     map[string]chan bool{},
	}
	ch.SetReceiver(b.receive)
	return b
}

// FailMethod makes the broker answer the method with success=false and the
// given failure detail.
func (b *Broker) FailMethod(method string, detail any) {
	b.mu.Lock()
	b.failures[method] = detail
	b.mu.Unlock()
}

// DropMethod makes the broker swallow requests for the method without
// responding, reproducing a host that never replies.
func (b *Broker) DropMethod(method string) {
	b.mu.Lock()
	b.drops[method] = struct{}{}
	b.mu.Unlock()
}

// Registered reports whether the add-in has posted its Register envelope.
func (b *Broker) Registered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registered
}

// Sent returns the messages sent through the broker so far.
func (b *Broker) Sent() []SentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentMessage(nil), b.sent...)
}

// PushMessageReceived delivers a chat message event to the add-in.
func (b *Broker) PushMessageReceived(message, senderURI string) {
	b.postEvent(addin.EventMessageReceived, nil, message, senderURI)
}

// PushClosing notifies the add-in it is being torn down.
func (b *Broker) PushClosing() {
	b.postEvent(addin.EventClosing, nil)
}

// AskBeforeMessageSend runs the pre-send interception round trip: it pushes
// a beforemessagesend event carrying an event id and waits for the add-in's
// {"eventId","stopEvent"} acknowledgement. It returns whether the add-in
// asked for the send to be suppressed.
func (b *Broker) AskBeforeMessageSend(ctx context.Context, message string) (bool, error) {
	id := uuid.NewString()
	ack := make(chan bool, 1)
	b.mu.Lock()
	b.acks[id] = ack
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.acks, id)
		b.mu.Unlock()
	}()

	b.postEvent(addin.EventBeforeMessageSend, id, message)

	select {
	case stop := <-ack:
		return stop, nil
	case <-ctx.Done():
		return false, errors.Wrap(ctx.Err(), "waiting for beforemessagesend acknowledgement")
	}
}

// inboundFrame is everything an add-in may post to the host: request
// envelopes and event acknowledgements.
type inboundFrame struct {
	ID        string `json:"id"`
	Method    string `json:"method"`
	Message   string `json:"message"`
	Alert     bool   `json:"alert"`
	EventID   any    `json:"eventId"`
	StopEvent *bool  `json:"stopEvent"`
}

func (b *Broker) receive(payload []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Debug().Err(err).Str("component", "hostsim").Msg("broker dropping malformed frame")
		return
	}

	if frame.StopEvent != nil && frame.EventID != nil {
		b.resolveAck(fmt.Sprint(frame.EventID), *frame.StopEvent)
		return
	}

	switch frame.Method {
	case "Register":
		b.mu.Lock()
		b.registered = true
		b.mu.Unlock()
		log.Debug().Str("component", "hostsim").Msg("add-in registered")
	case "":
		log.Debug().Str("component", "hostsim").Msg("broker dropping frame without method")
	default:
		b.handleRequest(frame)
	}
}

func (b *Broker) handleRequest(frame inboundFrame) {
	b.mu.Lock()
	detail, failed := b.failures[frame.Method]
	_, dropped := b.drops[frame.Method]
	b.mu.Unlock()

	if dropped {
		log.Debug().Str("component", "hostsim").Str("method", frame.Method).Msg("broker dropping request by configuration")
		return
	}
	if failed {
		b.respond(frame.ID, false, detail)
		return
	}

	switch frame.Method {
	case "GetChatRoom":
		b.respond(frame.ID, true, b.fixture.Room)
	case "GetSelfUser":
		b.respond(frame.ID, true, b.fixture.User)
	case "GetDomain":
		b.respond(frame.ID, true, b.fixture.Domain)
	case "GetMaxMessageLength":
		b.respond(frame.ID, true, b.fixture.MaxMessageLength)
	case "SendMessage":
		b.mu.Lock()
		b.sent = append(b.sent, SentMessage{Message: frame.Message, Alert: frame.Alert})
		b.mu.Unlock()
		b.respond(frame.ID, true, true)
	default:
		b.respond(frame.ID, false, fmt.Sprintf("unknown method %q", frame.Method))
	}
}

func (b *Broker) respond(id string, success bool, result any) {
	if id == "" {
		return
	}
	b.post(map[string]any{"id": id, "success": success, "result": result})
}

func (b *Broker) postEvent(name string, id any, args ...any) {
	if args == nil {
		args = []any{}
	}
	event := map[string]any{"name": name, "args": args}
	if id != nil {
		event["id"] = id
	}
	b.post(map[string]any{"event": event})
}

func (b *Broker) post(envelope map[string]any) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Str("component", "hostsim").Msg("encode broker envelope")
		return
	}
	if err := b.ch.Post(payload); err != nil {
		log.Debug().Err(err).Str("component", "hostsim").Msg("broker post failed")
	}
}

func (b *Broker) resolveAck(id string, stop bool) {
	b.mu.Lock()
	ack, ok := b.acks[id]
	b.mu.Unlock()
	if !ok {
		log.Debug().Str("component", "hostsim").Str("event_id", id).Msg("broker ignoring unexpected acknowledgement")
		return
	}
	select {
	case ack <- stop:
	default:
	}
}
