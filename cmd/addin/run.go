package main

import (
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mindlink/add-in-client/pkg/addin"
	"github.com/mindlink/add-in-client/pkg/channel"
	"github.com/mindlink/add-in-client/pkg/hostenv"
	"github.com/mindlink/add-in-client/pkg/scripting"
)

func newRunCmd() *cobra.Command {
	var (
		url        string
		scriptPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "connect a JavaScript add-in to a host over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			if err != nil {
				return errors.Wrapf(err, "dial host %q", url)
			}
			ws := channel.NewWebSocket(conn)
			defer func() { _ = ws.Close() }()

			// A page reachable only through a message channel: no parent
			// frame, no injected API object. Selection falls through to
			// the message transport.
			env := hostenv.NewEnvironment(hostenv.EnvironmentConfig{
				Channel: ws,
				Ready:   true,
			})
			client, err := addin.New(addin.Config{Environment: env})
			if err != nil {
				return err
			}
			log.Info().Str("component", "run").Stringer("transport", client.Kind()).Str("url", url).Msg("connected")

			runtime, err := scripting.NewRuntime(client)
			if err != nil {
				return err
			}
			defer runtime.Close()
			if err := runtime.LoadScriptFile(scriptPath); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
			case <-ws.Done():
				log.Info().Str("component", "run").Msg("host closed the connection")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:8090/ws", "host websocket URL")
	cmd.Flags().StringVar(&scriptPath, "script", "", "add-in script to run")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}
