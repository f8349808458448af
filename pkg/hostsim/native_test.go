package hostsim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindlink/add-in-client/pkg/addin"
	"github.com/mindlink/add-in-client/pkg/hostenv"
)

func nativeClient(t *testing.T, fixture Fixture) (*addin.Client, *NativeHost) {
	t.Helper()
	host := NewNativeHost(fixture)
	env := hostenv.NewEnvironment(hostenv.EnvironmentConfig{AddIns: host.APIObject()})
	host.Attach(env)

	client, err := addin.New(addin.Config{Environment: env})
	require.NoError(t, err)
	require.Equal(t, addin.KindDirect, client.Kind())
	return client, host
}

func TestNativeHostAnswersEveryAPIMethod(t *testing.T) {
	fixture := DefaultFixture()
	client, _ := nativeClient(t, fixture)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	room, err := client.AwaitChatRoom(ctx)
	require.NoError(t, err)
	require.Equal(t, fixture.Room, room)

	user, err := client.AwaitLocalUserDetails(ctx)
	require.NoError(t, err)
	require.Equal(t, fixture.User, user)

	domain, err := client.AwaitDomainDetails(ctx)
	require.NoError(t, err)
	require.Equal(t, fixture.Domain, domain)

	max, err := client.AwaitMaxMessageLength(ctx)
	require.NoError(t, err)
	require.Equal(t, fixture.MaxMessageLength, max)
}

func TestNativeHostRecordsSentMessages(t *testing.T) {
	client, host := nativeClient(t, DefaultFixture())

	var sent bool
	client.SendMessage("ship it", false, func(ok bool) { sent = ok }, func(err error) {
		t.Fatalf("unexpected failure: %v", err)
	})
	require.True(t, sent)
	require.Equal(t, []SentMessage{{Message: "ship it", Alert: false}}, host.Sent())
}

func TestNativeHostConsultsInterceptorsBeforeSending(t *testing.T) {
	client, host := nativeClient(t, DefaultFixture())
	client.AddBeforeMessageSendHandler(func(message string) bool {
		return message == "secret"
	}, nil)

	var sent bool
	client.SendMessage("secret", false, func(ok bool) { sent = ok }, nil)
	require.False(t, sent, "a suppressed message reports sent=false")
	require.Empty(t, host.Sent())

	client.SendMessage("fine", false, func(ok bool) { sent = ok }, nil)
	require.True(t, sent)
	require.Equal(t, []SentMessage{{Message: "fine", Alert: false}}, host.Sent())
}

func TestNativeHostPushesEvents(t *testing.T) {
	client, host := nativeClient(t, DefaultFixture())

	var messages []string
	client.AddMessageReceivedHandler(func(message, senderURI string) {
		messages = append(messages, senderURI+": "+message)
	}, nil)
	var closed bool
	client.AddClosingHandler(func() { closed = true }, nil)

	host.PushMessageReceived("standup in 5", "sip:bob@example.org")
	host.PushClosing()

	require.Equal(t, []string{"sip:bob@example.org: standup in 5"}, messages)
	require.True(t, closed)
}

func TestNativeHostLegacyExternalSurface(t *testing.T) {
	fixture := DefaultFixture()
	host := NewNativeHost(fixture)
	env := hostenv.NewEnvironment(hostenv.EnvironmentConfig{External: host.External()})
	host.Attach(env)

	client, err := addin.New(addin.Config{Environment: env})
	require.NoError(t, err)
	require.Equal(t, addin.KindDirect, client.Kind())

	var domain string
	client.GetDomainDetails(func(d string) { domain = d }, func(err error) {
		t.Fatalf("unexpected failure: %v", err)
	})
	require.Equal(t, fixture.Domain, domain)

	ext := host.External()
	require.True(t, ext.HasMember("GetChatRoom"))
	require.False(t, ext.HasMember("FormatHardDrive"))
	_, err = ext.CallMember("FormatHardDrive")
	require.Error(t, err)
}
