package hostsim

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mindlink/add-in-client/pkg/hostenv"
)

// NativeHost populates a hostenv.Environment the way a native integration
// does: a synchronous API object (or its legacy external flavor) answering
// from the fixture, and host-initiated events fired through the
// environment's callback slots.
type NativeHost struct {
	fixture Fixture

	mu   sync.Mutex
	env  *hostenv.Environment
	sent []SentMessage
}

func NewNativeHost(fixture Fixture) *NativeHost {
	return &NativeHost{fixture: fixture}
}

// Attach binds the host to the environment whose callback slots it fires,
// and through which pre-send interception is consulted.
func (h *NativeHost) Attach(env *hostenv.Environment) {
	h.mu.Lock()
	h.env = env
	h.mu.Unlock()
}

// APIObject returns the synchronous API surface as a host-injectable
// object.
func (h *NativeHost) APIObject() hostenv.HostObject {
	return hostenv.MapObject{
		"GetChatRoom": func(...any) (any, error) {
			return h.fixture.Room, nil
		},
		"GetSelfUser": func(...any) (any, error) {
			return h.fixture.User, nil
		},
		"GetDomain": func(...any) (any, error) {
			return h.fixture.Domain, nil
		},
		"GetMaxMessageLength": func(...any) (any, error) {
			return h.fixture.MaxMessageLength, nil
		},
		"PostMessage": h.postMessage,
	}
}

// External returns the same surface as a legacy external object, whose
// members are reachable only through the generic call entry point.
func (h *NativeHost) External() hostenv.LegacyExternal {
	return legacyView{api: h.APIObject()}
}

// Sent returns the messages sent through the host so far.
func (h *NativeHost) Sent() []SentMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SentMessage(nil), h.sent...)
}

// PushMessageReceived delivers a chat message to the add-in.
func (h *NativeHost) PushMessageReceived(message, senderURI string) {
	if env := h.environment(); env != nil {
		env.FireMessageReceived(message, senderURI)
	}
}

// PushClosing notifies the add-in it is being torn down.
func (h *NativeHost) PushClosing() {
	if env := h.environment(); env != nil {
		env.FireClosing()
	}
}

func (h *NativeHost) environment() *hostenv.Environment {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.env
}

// postMessage is the host's PostMessage binding: it consults the add-in's
// pre-send interceptors and reports whether the message was sent.
func (h *NativeHost) postMessage(args ...any) (any, error) {
	if len(args) < 2 {
		return nil, errors.New("PostMessage expects (message, alert)")
	}
	message, ok := args[0].(string)
	if !ok {
		return nil, errors.Errorf("PostMessage: message must be a string, got %T", args[0])
	}
	alert, ok := args[1].(bool)
	if !ok {
		return nil, errors.Errorf("PostMessage: alert must be a bool, got %T", args[1])
	}

	if env := h.environment(); env != nil && env.FireBeforeMessageSend(message) {
		return false, nil
	}

	h.mu.Lock()
	h.sent = append(h.sent, SentMessage{Message: message, Alert: alert})
	h.mu.Unlock()
	return true, nil
}

type legacyView struct {
	api hostenv.HostObject
}

func (v legacyView) HasMember(name string) bool {
	_, ok := v.api.Lookup(name)
	return ok
}

func (v legacyView) CallMember(name string, args ...any) (any, error) {
	fn, ok := v.api.Lookup(name)
	if !ok {
		return nil, errors.Errorf("external object has no member %q", name)
	}
	return fn(args...)
}
