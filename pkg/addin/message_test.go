package addin

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindlink/add-in-client/pkg/channel"
	"github.com/mindlink/add-in-client/pkg/hostenv"
)

// hostEnd captures every frame the transport posts and lets tests answer
// as the host would. Frames may arrive from the transport's registration
// goroutine, hence the lock.
type hostEnd struct {
	end *channel.PipeEnd

	mu     sync.Mutex
	frames []map[string]any
}

func (h *hostEnd) Frames() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.frames...)
}

func newMessageFixture(t *testing.T, ready bool) (*MessageTransport, *hostenv.Environment, *hostEnd) {
	t.Helper()
	addInSide, hostSide := channel.Pipe()
	host := &hostEnd{end: hostSide}
	hostSide.SetReceiver(func(payload []byte) {
		var frame map[string]any
		require.NoError(t, json.Unmarshal(payload, &frame))
		host.mu.Lock()
		host.frames = append(host.frames, frame)
		host.mu.Unlock()
	})

	env := hostenv.NewEnvironment(hostenv.EnvironmentConfig{
		Channel: addInSide,
		Ready:   ready,
	})
	tr, err := NewMessageTransport(env)
	require.NoError(t, err)
	return tr, env, host
}

func (h *hostEnd) respond(t *testing.T, frame map[string]any) {
	t.Helper()
	payload, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, h.end.Post(payload))
}

func TestMessageTransportRequiresChannel(t *testing.T) {
	env := hostenv.NewEnvironment(hostenv.EnvironmentConfig{Ready: true})
	_, err := NewMessageTransport(env)
	require.Error(t, err)
}

func TestMessageTransportRegistersWhenAlreadyReady(t *testing.T) {
	_, _, host := newMessageFixture(t, true)
	require.Equal(t, []map[string]any{{"method": methodRegister}}, host.Frames())
}

func TestMessageTransportDefersRegistrationUntilReady(t *testing.T) {
	_, env, host := newMessageFixture(t, false)
	require.Empty(t, host.Frames())

	env.SignalReady()
	require.Eventually(t, func() bool {
		return len(host.Frames()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, map[string]any{"method": methodRegister}, host.Frames()[0])
}

func TestMessageTransportRequestResponseRoundTrip(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	var domain string
	tr.GetDomainDetails(func(d string) { domain = d }, func(err error) {
		t.Fatalf("unexpected failure: %v", err)
	})

	require.Len(t, host.Frames(), 2)
	request := host.Frames()[1]
	require.Equal(t, "cb-1", request["id"])
	require.Equal(t, methodGetDomain, request["method"])

	host.respond(t, map[string]any{"id": "cb-1", "success": true, "result": "example.com"})
	require.Equal(t, "example.com", domain)
	require.Zero(t, tr.PendingCalls())
}

func TestMessageTransportDuplicateResponseIgnored(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	calls := 0
	tr.GetDomainDetails(func(string) { calls++ }, nil)

	response := map[string]any{"id": "cb-1", "success": true, "result": "example.com"}
	host.respond(t, response)
	host.respond(t, response)
	require.Equal(t, 1, calls)
}

func TestMessageTransportFailureResponse(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	var failure error
	tr.GetChatRoom(func(ChatRoom) {
		t.Fatal("success callback must not fire")
	}, func(err error) { failure = err })

	host.respond(t, map[string]any{"id": "cb-1", "success": false, "result": "boom"})

	var hostErr *HostError
	require.ErrorAs(t, failure, &hostErr)
	require.Equal(t, "boom", hostErr.Detail)
	require.Zero(t, tr.PendingCalls())
}

func TestMessageTransportSendMessageEnvelopeShape(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	var sent bool
	tr.SendMessage("hello", false, func(ok bool) { sent = ok }, nil)

	require.Len(t, host.Frames(), 2)
	require.Equal(t, map[string]any{
		"id":      "cb-1",
		"method":  methodSendMessage,
		"message": "hello",
		"alert":   false,
	}, host.Frames()[1])

	host.respond(t, map[string]any{"id": "cb-1", "success": true, "result": true})
	require.True(t, sent)
}

func TestMessageTransportDecodesStructResult(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	var room ChatRoom
	tr.GetChatRoom(func(r ChatRoom) { room = r }, func(err error) {
		t.Fatalf("unexpected failure: %v", err)
	})
	host.respond(t, map[string]any{"id": "cb-1", "success": true, "result": map[string]any{
		"name":   "ops",
		"domain": "example.com",
		"topic":  "incidents",
	}})

	require.Equal(t, ChatRoom{Name: "ops", Domain: "example.com", Topic: "incidents"}, room)
}

func TestMessageTransportAbsentResultDefaultsToEmptyString(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	var domain *string
	tr.GetDomainDetails(func(d string) { domain = &d }, func(err error) {
		t.Fatalf("unexpected failure: %v", err)
	})
	host.respond(t, map[string]any{"id": "cb-1", "success": true})

	require.NotNil(t, domain)
	require.Equal(t, "", *domain)
}

func TestMessageTransportDropsUnrecognizedFrames(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	fired := false
	tr.GetDomainDetails(func(string) { fired = true }, func(error) { fired = true })

	require.NoError(t, host.end.Post([]byte("not json at all")))
	host.respond(t, map[string]any{"ping": "pong"})
	host.respond(t, map[string]any{"id": "cb-99", "success": true, "result": "stray"})
	host.respond(t, map[string]any{"id": "cb-1"}) // response without success tag

	require.False(t, fired)
	require.Equal(t, 1, tr.PendingCalls())
}

func TestMessageTransportCorrelationIDsAreMonotonic(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	tr.GetDomainDetails(nil, nil)
	tr.GetMaxMessageLength(nil, nil)
	tr.GetChatRoom(nil, nil)

	require.Len(t, host.Frames(), 4)
	require.Equal(t, "cb-1", host.Frames()[1]["id"])
	require.Equal(t, "cb-2", host.Frames()[2]["id"])
	require.Equal(t, "cb-3", host.Frames()[3]["id"])
	require.Equal(t, 3, tr.PendingCalls())
}

func TestMessageTransportDispatchesHostEvents(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	var messages []string
	tr.AddMessageReceivedHandler(func(message, senderURI string) {
		messages = append(messages, message+"|"+senderURI)
	}, nil)
	var closed bool
	tr.AddClosingHandler(func() { closed = true }, nil)

	host.respond(t, map[string]any{"event": map[string]any{
		"name": EventMessageReceived,
		"args": []any{"hi", "sip:alice@example.com"},
	}})
	host.respond(t, map[string]any{"event": map[string]any{"name": EventClosing}})

	require.Equal(t, []string{"hi|sip:alice@example.com"}, messages)
	require.True(t, closed)
}

func TestMessageTransportAcksInterceptableEvents(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)

	tr.AddBeforeMessageSendHandler(func(message string) bool {
		return message == "secret"
	}, nil)

	host.respond(t, map[string]any{"event": map[string]any{
		"name": EventBeforeMessageSend,
		"args": []any{"secret"},
		"id":   7,
	}})
	host.respond(t, map[string]any{"event": map[string]any{
		"name": EventBeforeMessageSend,
		"args": []any{"fine"},
		"id":   8,
	}})

	require.Len(t, host.Frames(), 3)
	require.Equal(t, map[string]any{"eventId": float64(7), "stopEvent": true}, host.Frames()[1])
	require.Equal(t, map[string]any{"eventId": float64(8), "stopEvent": false}, host.Frames()[2])
}

func TestMessageTransportEventWithoutIDIsNotAcked(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)
	tr.AddBeforeMessageSendHandler(func(string) bool { return true }, nil)

	host.respond(t, map[string]any{"event": map[string]any{
		"name": EventBeforeMessageSend,
		"args": []any{"anything"},
	}})

	require.Len(t, host.Frames(), 1) // just the registration
}

func TestMessageTransportKind(t *testing.T) {
	tr, _, _ := newMessageFixture(t, true)
	require.Equal(t, KindMessage, tr.Kind())
}
