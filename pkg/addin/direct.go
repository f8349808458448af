package addin

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mindlink/add-in-client/pkg/hostenv"
)

// Direct API method names on the host-injected object.
const (
	methodGetChatRoom         = "GetChatRoom"
	methodGetSelfUser         = "GetSelfUser"
	methodGetDomain           = "GetDomain"
	methodGetMaxMessageLength = "GetMaxMessageLength"
	methodPostMessage         = "PostMessage"
)

// DirectTransport invokes host operations synchronously through the API
// object the host injected into the environment. At construction it also
// installs itself as the target of the three host callback slots and
// forwards them into the dispatcher.
type DirectTransport struct {
	handlerSurface

	env *hostenv.Environment

	mu  sync.Mutex
	api hostenv.HostObject
}

// NewDirectTransport wires a direct transport to the environment. api may
// carry an explicitly assigned API object, which then takes priority over
// anything probed from the environment; pass nil to rely on the probe.
func NewDirectTransport(env *hostenv.Environment, api hostenv.HostObject) *DirectTransport {
	t := &DirectTransport{
		handlerSurface: handlerSurface{d: NewDispatcher()},
		env:            env,
		api:            api,
	}

	env.SetMessageReceived(func(message, senderURI string) {
		t.d.CallHandlers(EventMessageReceived, message, senderURI)
	})
	env.SetBeforeMessageSend(func(message string) bool {
		return anyTrue(t.d.CallHandlers(EventBeforeMessageSend, message))
	})
	env.SetClosing(func() {
		t.d.CallHandlers(EventClosing)
	})

	return t
}

func (t *DirectTransport) Kind() TransportKind { return KindDirect }

// resolveAPI lazily resolves the API object: an already-assigned reference,
// else the host-exposed add-in API global, else the legacy external object
// behind its call adapter. An unresolved probe is not cached; every call
// retries it, since hosts populate the environment at their own pace.
func (t *DirectTransport) resolveAPI() hostenv.HostObject {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.api != nil {
		return t.api
	}
	if obj := t.env.AddIns(); obj != nil {
		t.api = obj
	} else if ext := t.env.External(); ext != nil {
		t.api = hostenv.AdaptExternal(ext)
	}
	return t.api
}

// callAPIMethod is the primitive every public operation binds to. The
// method is invoked synchronously with positional args; its result goes to
// onSuccess, a missing object or method to onFailure. A panic inside the
// host function propagates unwrapped, so the caller's own recovery applies.
func (t *DirectTransport) callAPIMethod(method string, onSuccess func(any), onFailure func(error), args ...any) {
	api := t.resolveAPI()
	if api == nil {
		fail(onFailure, ErrHostUnavailable)
		return
	}
	fn, ok := api.Lookup(method)
	if !ok {
		log.Debug().Str("component", "addin").Str("method", method).Msg("direct API method not found")
		fail(onFailure, ErrMethodNotFound)
		return
	}
	result, err := fn(args...)
	if err != nil {
		fail(onFailure, err)
		return
	}
	if onSuccess != nil {
		onSuccess(result)
	}
}

func (t *DirectTransport) GetChatRoom(onSuccess func(ChatRoom), onFailure func(error)) {
	t.callAPIMethod(methodGetChatRoom, deliver(onSuccess, onFailure), onFailure)
}

func (t *DirectTransport) GetLocalUserDetails(onSuccess func(User), onFailure func(error)) {
	t.callAPIMethod(methodGetSelfUser, deliver(onSuccess, onFailure), onFailure)
}

func (t *DirectTransport) GetDomainDetails(onSuccess func(string), onFailure func(error)) {
	t.callAPIMethod(methodGetDomain, deliver(onSuccess, onFailure), onFailure)
}

func (t *DirectTransport) GetMaxMessageLength(onSuccess func(int), onFailure func(error)) {
	t.callAPIMethod(methodGetMaxMessageLength, deliver(onSuccess, onFailure), onFailure)
}

func (t *DirectTransport) SendMessage(message string, alert bool, onSuccess func(bool), onFailure func(error)) {
	t.callAPIMethod(methodPostMessage, deliver(onSuccess, onFailure), onFailure, message, alert)
}
