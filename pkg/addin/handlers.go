package addin

// handlerSurface implements the typed registration half of the Transport
// contract over a shared Dispatcher. Both transports embed it.
type handlerSurface struct {
	d *Dispatcher
}

// AddMessageReceivedHandler registers a handler for chat messages delivered
// to the room.
func (h handlerSurface) AddMessageReceivedHandler(fn func(message, senderURI string), scope any) {
	if fn == nil {
		return
	}
	h.d.AddHandler(EventMessageReceived, func(args ...any) any {
		fn(stringArg(args, 0), stringArg(args, 1))
		return nil
	}, scope)
}

// AddBeforeMessageSendHandler registers a pre-send interceptor. Returning
// true asks the host to suppress the send; the message is suppressed when
// any registered interceptor returns true.
func (h handlerSurface) AddBeforeMessageSendHandler(fn func(message string) bool, scope any) {
	if fn == nil {
		return
	}
	h.d.AddHandler(EventBeforeMessageSend, func(args ...any) any {
		return fn(stringArg(args, 0))
	}, scope)
}

// AddClosingHandler registers a teardown notification handler.
func (h handlerSurface) AddClosingHandler(fn func(), scope any) {
	if fn == nil {
		return
	}
	h.d.AddHandler(EventClosing, func(args ...any) any {
		fn()
		return nil
	}, scope)
}

// Dispatcher exposes the underlying multicast registry, mainly so callers
// can remove handlers or register untyped ones.
func (h handlerSurface) Dispatcher() *Dispatcher { return h.d }

func stringArg(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

// anyTrue reports whether any handler result is the boolean true. This is
// the suppression aggregate for pre-send interception on both transports.
func anyTrue(results []any) bool {
	for _, r := range results {
		if b, ok := r.(bool); ok && b {
			return true
		}
	}
	return false
}
