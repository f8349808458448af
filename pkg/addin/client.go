package addin

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// TransportKind identifies which integration strategy a client runs on.
type TransportKind int

const (
	// KindDirect is the synchronous in-process call-through to a
	// host-injected API object.
	KindDirect TransportKind = iota
	// KindMessage is the asynchronous JSON-envelope channel with
	// correlation ids.
	KindMessage
)

func (k TransportKind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Transport is the uniform operation surface both transports implement.
// Success and failure callbacks are mutually exclusive per call; either may
// be nil. The direct transport invokes them synchronously within the call,
// the message transport whenever the matching response envelope arrives
// (which, with no timeout in the contract, may be never).
type Transport interface {
	GetChatRoom(onSuccess func(ChatRoom), onFailure func(error))
	GetLocalUserDetails(onSuccess func(User), onFailure func(error))
	GetDomainDetails(onSuccess func(string), onFailure func(error))
	GetMaxMessageLength(onSuccess func(int), onFailure func(error))
	SendMessage(message string, alert bool, onSuccess func(sent bool), onFailure func(error))

	AddMessageReceivedHandler(fn func(message, senderURI string), scope any)
	AddBeforeMessageSendHandler(fn func(message string) bool, scope any)
	AddClosingHandler(fn func(), scope any)

	Dispatcher() *Dispatcher
	Kind() TransportKind
}

// Client owns the transport chosen for the page's lifetime and adds
// awaitable variants of every operation. Construct one with New, or wrap a
// transport directly with NewClient in tests.
type Client struct {
	Transport
}

func NewClient(t Transport) *Client {
	return &Client{Transport: t}
}

// AwaitChatRoom is the awaitable variant of GetChatRoom. The context only
// abandons the wait; the underlying request is not cancelled and its
// pending call is never reaped.
func (c *Client) AwaitChatRoom(ctx context.Context) (ChatRoom, error) {
	return await(ctx, c.Transport.GetChatRoom)
}

func (c *Client) AwaitLocalUserDetails(ctx context.Context) (User, error) {
	return await(ctx, c.Transport.GetLocalUserDetails)
}

func (c *Client) AwaitDomainDetails(ctx context.Context) (string, error) {
	return await(ctx, c.Transport.GetDomainDetails)
}

func (c *Client) AwaitMaxMessageLength(ctx context.Context) (int, error) {
	return await(ctx, c.Transport.GetMaxMessageLength)
}

func (c *Client) AwaitSendMessage(ctx context.Context, message string, alert bool) (bool, error) {
	return await(ctx, func(onSuccess func(bool), onFailure func(error)) {
		c.Transport.SendMessage(message, alert, onSuccess, onFailure)
	})
}

func await[T any](ctx context.Context, start func(onSuccess func(T), onFailure func(error))) (T, error) {
	type outcome struct {
		val T
		err error
	}
	// Buffered, and sends never block: a stray duplicate settlement must
	// not hang the transport's delivery goroutine.
	ch := make(chan outcome, 1)
	start(
		func(v T) {
			select {
			case ch <- outcome{val: v}:
			default:
			}
		},
		func(err error) {
			select {
			case ch <- outcome{err: err}:
			default:
			}
		},
	)
	select {
	case o := <-ch:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// deliver adapts a typed success callback to the untyped result a transport
// produces. Results that cannot be coerced to T are routed to the failure
// callback.
func deliver[T any](onSuccess func(T), onFailure func(error)) func(any) {
	return func(v any) {
		t, err := coerce[T](v)
		if err != nil {
			fail(onFailure, err)
			return
		}
		if onSuccess != nil {
			onSuccess(t)
		}
	}
}

// coerce converts a host-produced value to T: a direct type assertion for
// native host objects, otherwise a JSON round trip for the decoded
// envelope shapes (map[string]any for structs, float64 for numbers).
func coerce[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var t T
	encoded, err := json.Marshal(v)
	if err != nil {
		return t, errors.Wrap(err, "encode host result")
	}
	if err := json.Unmarshal(encoded, &t); err != nil {
		return t, errors.Wrapf(err, "decode host result %q", string(encoded))
	}
	return t, nil
}

func fail(onFailure func(error), err error) {
	if onFailure != nil {
		onFailure(err)
	}
}
