package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mindlink/add-in-client/pkg/hostsim"
)

func newHostCmd() *cobra.Command {
	var (
		addr        string
		fixturePath string
		greet       bool
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "run a simulated chat host serving the message protocol over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}

			var onConnect func(*hostsim.Broker)
			if greet {
				onConnect = func(b *hostsim.Broker) {
					// Give the add-in a moment to register before the
					// first event lands.
					time.Sleep(200 * time.Millisecond)
					b.PushMessageReceived("welcome to "+fixture.Room.Name, fixture.User.URI)
				}
			}

			mux := http.NewServeMux()
			mux.Handle("/ws", hostsim.NewBrokerServer(fixture, onConnect))
			server := &http.Server{Addr: addr, Handler: mux}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info().Str("component", "host").Str("addr", addr).Msg("listening")
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "host server")
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture file (default built-in fixture)")
	cmd.Flags().BoolVar(&greet, "greet", true, "push a greeting message event to every connecting add-in")
	return cmd
}

func loadFixture(path string) (hostsim.Fixture, error) {
	if path == "" {
		return hostsim.DefaultFixture(), nil
	}
	return hostsim.LoadFixture(path)
}
