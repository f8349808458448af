package addin

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mindlink/add-in-client/pkg/channel"
	"github.com/mindlink/add-in-client/pkg/hostenv"
)

// Message transport method names carried in request envelopes.
const (
	methodRegister    = "Register"
	methodSendMessage = "SendMessage"
)

// correlationPrefix distinguishes this client's correlation ids from other
// producers sharing the channel.
const correlationPrefix = "cb-"

type pendingCall struct {
	succeed func(any)
	fail    func(error)
}

// inboundEnvelope is the tagged union of everything the host may deliver.
// Exactly one shape is recognized per frame: an event envelope (Event set)
// or a response envelope (ID plus Success set). Anything else is dropped.
type inboundEnvelope struct {
	Event   *eventEnvelope `json:"event"`
	ID      string         `json:"id"`
	Success *bool          `json:"success"`
	Result  any            `json:"result"`
}

type eventEnvelope struct {
	Name string `json:"name"`
	Args []any  `json:"args"`
	ID   any    `json:"id"`
}

// MessageTransport correlates asynchronous JSON request/response envelopes
// over the environment's message channel and routes host-pushed event
// envelopes through the dispatcher.
//
// A request whose response never arrives leaks its pending call and its
// continuations never fire; the contract has no timeout layer. Callers that
// need to give up use the Client's Await variants with a context.
type MessageTransport struct {
	handlerSurface

	ch channel.Channel

	mu           sync.Mutex
	pending      map[string]pendingCall
	nextID       int
	registerOnce sync.Once
}

// NewMessageTransport attaches to the environment's channel and defers the
// one-time Register envelope until the document is ready; hosts ignore
// add-ins that register before their page has settled.
func NewMessageTransport(env *hostenv.Environment) (*MessageTransport, error) {
	ch := env.Channel()
	if ch == nil {
		return nil, errMissingChannel
	}
	t := &MessageTransport{
		handlerSurface: handlerSurface{d: NewDispatcher()},
		ch:             ch,
		pending:        map[string]pendingCall{},
	}
	ch.SetReceiver(t.receive)

	if env.ReadyNow() {
		t.register()
	} else {
		go func() {
			<-env.Ready()
			t.register()
		}()
	}
	return t, nil
}

func (t *MessageTransport) Kind() TransportKind { return KindMessage }

func (t *MessageTransport) register() {
	t.registerOnce.Do(func() {
		t.post(map[string]any{"method": methodRegister})
	})
}

// sendAPIRequest allocates a correlation id, files the pending call, and
// posts {"id", "method", ...extra} to the host. It returns immediately; the
// continuations run when (and if) the matching response envelope arrives.
func (t *MessageTransport) sendAPIRequest(method string, extra map[string]any, onSuccess func(any), onFailure func(error)) {
	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("%s%d", correlationPrefix, t.nextID)
	t.pending[id] = pendingCall{succeed: onSuccess, fail: onFailure}
	t.mu.Unlock()

	envelope := map[string]any{"id": id, "method": method}
	for k, v := range extra {
		envelope[k] = v
	}
	t.post(envelope)
}

func (t *MessageTransport) post(envelope map[string]any) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Str("component", "addin").Msg("encode outbound envelope")
		return
	}
	if err := t.ch.Post(payload); err != nil {
		log.Debug().Err(err).Str("component", "addin").Msg("post to host failed")
	}
}

// receive classifies one inbound frame. Malformed frames and unrecognized
// shapes are dropped with a log, never a crash and never a callback.
func (t *MessageTransport) receive(payload []byte) {
	var envelope inboundEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Debug().Err(err).Str("component", "addin").Msg("dropping malformed inbound frame")
		return
	}
	switch {
	case envelope.Event != nil:
		t.handleEvent(envelope.Event)
	case envelope.ID != "" && envelope.Success != nil:
		t.handleResponse(&envelope)
	default:
		log.Debug().Str("component", "addin").Msg("dropping inbound frame matching neither envelope shape")
	}
}

// handleEvent dispatches a host-pushed event. When the envelope carries an
// id the host is waiting to hear whether any handler asked to suppress the
// event, and gets back {"eventId", "stopEvent"}.
func (t *MessageTransport) handleEvent(ev *eventEnvelope) {
	results := t.d.CallHandlers(ev.Name, ev.Args...)
	if ev.ID == nil {
		return
	}
	t.post(map[string]any{
		"eventId":   ev.ID,
		"stopEvent": anyTrue(results),
	})
}

// handleResponse settles the pending call with the envelope's id. The call
// is removed before its continuation runs, so a duplicate or stale response
// finds nothing and is ignored.
func (t *MessageTransport) handleResponse(envelope *inboundEnvelope) {
	t.mu.Lock()
	call, ok := t.pending[envelope.ID]
	if ok {
		delete(t.pending, envelope.ID)
	}
	t.mu.Unlock()
	if !ok {
		log.Debug().Str("component", "addin").Str("id", envelope.ID).Msg("ignoring response with no pending call")
		return
	}

	if *envelope.Success {
		result := envelope.Result
		if result == nil {
			result = ""
		}
		if call.succeed != nil {
			call.succeed(result)
		}
		return
	}
	fail(call.fail, &HostError{Detail: envelope.Result})
}

// PendingCalls reports how many requests still await a response.
func (t *MessageTransport) PendingCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *MessageTransport) GetChatRoom(onSuccess func(ChatRoom), onFailure func(error)) {
	t.sendAPIRequest(methodGetChatRoom, nil, deliver(onSuccess, onFailure), onFailure)
}

func (t *MessageTransport) GetLocalUserDetails(onSuccess func(User), onFailure func(error)) {
	t.sendAPIRequest(methodGetSelfUser, nil, deliver(onSuccess, onFailure), onFailure)
}

func (t *MessageTransport) GetDomainDetails(onSuccess func(string), onFailure func(error)) {
	t.sendAPIRequest(methodGetDomain, nil, deliver(onSuccess, onFailure), onFailure)
}

func (t *MessageTransport) GetMaxMessageLength(onSuccess func(int), onFailure func(error)) {
	t.sendAPIRequest(methodGetMaxMessageLength, nil, deliver(onSuccess, onFailure), onFailure)
}

func (t *MessageTransport) SendMessage(message string, alert bool, onSuccess func(bool), onFailure func(error)) {
	t.sendAPIRequest(methodSendMessage, map[string]any{
		"message": message,
		"alert":   alert,
	}, deliver(onSuccess, onFailure), onFailure)
}
