package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mindlink/add-in-client/pkg/addin"
	"github.com/mindlink/add-in-client/pkg/channel"
	"github.com/mindlink/add-in-client/pkg/hostenv"
	"github.com/mindlink/add-in-client/pkg/hostsim"
	"github.com/mindlink/add-in-client/pkg/scripting"
)

func newDemoCmd() *cobra.Command {
	var (
		fixturePath string
		scriptPath  string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "run an add-in against an in-process simulated host",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}

			addinEnd, hostEnd := channel.Pipe()
			broker := hostsim.NewBroker(hostEnd, fixture)

			env := hostenv.NewEnvironment(hostenv.EnvironmentConfig{
				Channel: addinEnd,
				Ready:   true,
			})
			client, err := addin.New(addin.Config{Environment: env})
			if err != nil {
				return err
			}
			log.Info().Str("component", "demo").Stringer("transport", client.Kind()).Msg("client ready")

			if scriptPath != "" {
				runtime, err := scripting.NewRuntime(client)
				if err != nil {
					return err
				}
				defer runtime.Close()
				if err := runtime.LoadScriptFile(scriptPath); err != nil {
					return err
				}
				// Let the script see some host traffic before the demo ends.
				broker.PushMessageReceived("hello from the host", fixture.User.URI)
				time.Sleep(200 * time.Millisecond)
				broker.PushClosing()
				time.Sleep(200 * time.Millisecond)
				return nil
			}

			return runGoDemo(cmd.Context(), client, broker)
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture file (default built-in fixture)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "optional add-in script; without it a built-in Go demo runs")
	return cmd
}

// runGoDemo exercises the whole facade once: the awaitable getters, a send,
// and the host-initiated event paths.
func runGoDemo(ctx context.Context, client *addin.Client, broker *hostsim.Broker) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	room, err := client.AwaitChatRoom(ctx)
	if err != nil {
		return err
	}
	user, err := client.AwaitLocalUserDetails(ctx)
	if err != nil {
		return err
	}
	domain, err := client.AwaitDomainDetails(ctx)
	if err != nil {
		return err
	}
	maxLen, err := client.AwaitMaxMessageLength(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("component", "demo").
		Str("room", room.Name).
		Str("topic", room.Topic).
		Str("user", user.DisplayName).
		Str("domain", domain).
		Int("max_message_length", maxLen).
		Msg("host answered")

	client.AddMessageReceivedHandler(func(message, senderURI string) {
		log.Info().Str("component", "demo").Str("from", senderURI).Str("message", message).Msg("message received")
	}, nil)
	client.AddBeforeMessageSendHandler(func(message string) bool {
		return strings.Contains(message, "secret")
	}, nil)
	client.AddClosingHandler(func() {
		log.Info().Str("component", "demo").Msg("host is closing the add-in")
	}, nil)

	sent, err := client.AwaitSendMessage(ctx, "hello from the add-in", false)
	if err != nil {
		return err
	}
	log.Info().Str("component", "demo").Bool("sent", sent).Msg("message posted")

	broker.PushMessageReceived("hello from the host", "sip:host@example.org")

	stopped, err := broker.AskBeforeMessageSend(ctx, "this contains a secret")
	if err != nil {
		return err
	}
	log.Info().Str("component", "demo").Bool("suppressed", stopped).Msg("pre-send interception answered")

	broker.PushClosing()
	return nil
}
