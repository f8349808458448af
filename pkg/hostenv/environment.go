package hostenv

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mindlink/add-in-client/pkg/channel"
)

// ErrNoParent is returned by ParentLocation when the environment has no
// parent frame at all.
var ErrNoParent = errors.New("no parent frame")

// EnvironmentConfig describes the host-provided half of the boundary.
// Every field is optional; an empty config is a fully isolated cross-domain
// page with no channel and no direct API.
type EnvironmentConfig struct {
	// ParentLocation probes the parent frame's location. Returning an
	// error models the browser denying cross-origin access. A nil func
	// models an absent parent frame.
	ParentLocation func() (string, error)

	// AddIns is the host-exposed direct API object, when present.
	AddIns HostObject

	// External is the legacy host external object, when present.
	External LegacyExternal

	// Channel is the asynchronous message channel to the host, when the
	// host supports cross-domain embedding.
	Channel channel.Channel

	// Ready marks the document as already complete at construction time.
	Ready bool
}

// Environment is the explicit host-interop boundary object. The host
// populates it and fires callbacks; the add-in probes it and installs the
// callback slots. Safe for concurrent use.
type Environment struct {
	mu sync.Mutex

	parentLocation func() (string, error)
	addIns         HostObject
	external       LegacyExternal
	ch             channel.Channel

	ready     chan struct{}
	readyOnce sync.Once

	onMessageReceived   func(message, senderURI string)
	onBeforeMessageSend func(message string) bool
	onClosing           func()
}

func NewEnvironment(cfg EnvironmentConfig) *Environment {
	e := &Environment{
		parentLocation: cfg.ParentLocation,
		addIns:         cfg.AddIns,
		external:       cfg.External,
		ch:             cfg.Channel,
		ready:          make(chan struct{}),
	}
	if cfg.Ready {
		e.SignalReady()
	}
	return e
}

// ParentLocation probes the parent frame. ErrNoParent means there is no
// parent; any other error means access was denied.
func (e *Environment) ParentLocation() (string, error) {
	if e.parentLocation == nil {
		return "", ErrNoParent
	}
	return e.parentLocation()
}

func (e *Environment) AddIns() HostObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addIns
}

func (e *Environment) External() LegacyExternal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.external
}

func (e *Environment) Channel() channel.Channel { return e.ch }

// InjectAddIns installs the direct API object after construction. Hosts
// populate the boundary at their own pace; the direct transport's probe
// retries until something shows up.
func (e *Environment) InjectAddIns(obj HostObject) {
	e.mu.Lock()
	e.addIns = obj
	e.mu.Unlock()
}

// InjectExternal installs the legacy external object after construction.
func (e *Environment) InjectExternal(ext LegacyExternal) {
	e.mu.Lock()
	e.external = ext
	e.mu.Unlock()
}

// SignalReady marks the document ready state as complete. Idempotent.
func (e *Environment) SignalReady() {
	e.readyOnce.Do(func() { close(e.ready) })
}

// Ready is closed once the document ready state reaches complete.
func (e *Environment) Ready() <-chan struct{} { return e.ready }

// ReadyNow reports whether the document is already complete.
func (e *Environment) ReadyNow() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// SetMessageReceived installs the message-received callback slot.
func (e *Environment) SetMessageReceived(fn func(message, senderURI string)) {
	e.mu.Lock()
	e.onMessageReceived = fn
	e.mu.Unlock()
}

// SetBeforeMessageSend installs the pre-send interception slot. The
// callback returns whether sending should be suppressed.
func (e *Environment) SetBeforeMessageSend(fn func(message string) bool) {
	e.mu.Lock()
	e.onBeforeMessageSend = fn
	e.mu.Unlock()
}

// SetClosing installs the teardown notification slot.
func (e *Environment) SetClosing(fn func()) {
	e.mu.Lock()
	e.onClosing = fn
	e.mu.Unlock()
}

// FireMessageReceived is invoked by the host when a chat message arrives.
func (e *Environment) FireMessageReceived(message, senderURI string) {
	e.mu.Lock()
	fn := e.onMessageReceived
	e.mu.Unlock()
	if fn != nil {
		fn(message, senderURI)
	}
}

// FireBeforeMessageSend is invoked by the host before it sends a message.
// It returns true when the add-in asks for the send to be suppressed.
// With no slot installed the message is never suppressed.
func (e *Environment) FireBeforeMessageSend(message string) bool {
	e.mu.Lock()
	fn := e.onBeforeMessageSend
	e.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn(message)
}

// FireClosing is invoked by the host when the add-in is being torn down.
func (e *Environment) FireClosing() {
	e.mu.Lock()
	fn := e.onClosing
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
