package addin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// respondingHost answers every request on a background goroutine so the
// Await variants have something to block on.
func respondingHost(t *testing.T, host *hostEnd, answer func(request map[string]any) map[string]any) {
	t.Helper()
	host.end.SetReceiver(func(payload []byte) {
		frame := make(map[string]any)
		require.NoError(t, json.Unmarshal(payload, &frame))
		if frame["method"] == methodRegister {
			return
		}
		go host.respond(t, answer(frame))
	})
}

func TestClientAwaitResolvesWithResult(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)
	respondingHost(t, host, func(request map[string]any) map[string]any {
		require.Equal(t, methodGetDomain, request["method"])
		return map[string]any{"id": request["id"], "success": true, "result": "example.com"}
	})

	client := NewClient(tr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	domain, err := client.AwaitDomainDetails(ctx)
	require.NoError(t, err)
	require.Equal(t, "example.com", domain)
}

func TestClientAwaitSurfacesHostFailure(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)
	respondingHost(t, host, func(request map[string]any) map[string]any {
		return map[string]any{"id": request["id"], "success": false, "result": "room vanished"}
	})

	client := NewClient(tr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.AwaitChatRoom(ctx)
	var hostErr *HostError
	require.ErrorAs(t, err, &hostErr)
	require.Equal(t, "room vanished", hostErr.Detail)
}

func TestClientAwaitSendMessage(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)
	respondingHost(t, host, func(request map[string]any) map[string]any {
		require.Equal(t, methodSendMessage, request["method"])
		require.Equal(t, "hello", request["message"])
		require.Equal(t, true, request["alert"])
		return map[string]any{"id": request["id"], "success": true, "result": true}
	})

	client := NewClient(tr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sent, err := client.AwaitSendMessage(ctx, "hello", true)
	require.NoError(t, err)
	require.True(t, sent)
}

func TestClientAwaitAbandonsOnContextButLeavesCallPending(t *testing.T) {
	tr, _, _ := newMessageFixture(t, true)
	client := NewClient(tr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.AwaitMaxMessageLength(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Abandoning the wait cancels nothing on the wire: the request stays
	// filed until a response arrives, which here is never.
	require.Equal(t, 1, tr.PendingCalls())
}

func TestClientAwaitLocalUserDetails(t *testing.T) {
	tr, _, host := newMessageFixture(t, true)
	respondingHost(t, host, func(request map[string]any) map[string]any {
		require.Equal(t, methodGetSelfUser, request["method"])
		return map[string]any{"id": request["id"], "success": true, "result": map[string]any{
			"uri":         "sip:alice@example.com",
			"displayName": "Alice",
		}}
	})

	client := NewClient(tr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	user, err := client.AwaitLocalUserDetails(ctx)
	require.NoError(t, err)
	require.Equal(t, User{URI: "sip:alice@example.com", DisplayName: "Alice"}, user)
}

func TestCoerceFailureRoutesToFailureCallback(t *testing.T) {
	var failure error
	succeed := deliver(func(int) {
		t.Fatal("success callback must not fire for an uncoercible result")
	}, func(err error) { failure = err })
	succeed("definitely not a number")
	require.Error(t, failure)
}
