package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/nexiatray/internal/httpapi"
	"github.com/example/nexiatray/internal/ipc"
	"github.com/example/nexiatray/internal/menu"
	"github.com/example/nexiatray/internal/service"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the tray together with the IPC and HTTP relays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd, opts, true)
		},
	}
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the IPC and HTTP relays without a tray icon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd, opts, false)
		},
	}
}

func runRelay(cmd *cobra.Command, opts *globalOptions, withTray bool) error {
	settings, err := opts.settings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Printf("relaying to %s", a.relay.BaseURL())

	var wg sync.WaitGroup
	errCh := make(chan error, 3)
	launch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
				log.Printf("%s stopped: %v", name, err)
			}
		}()
	}

	token := serviceToken()
	if token != "" {
		srv, err := service.New(ipc.ResolveEndpoint(settings.IPCAddr), token, a.registry, a.relay)
		if err != nil {
			return err
		}
		srv.SetMaxPayloadBytes(settings.MaxAudioBytes)
		launch("ipc service", func() error { return srv.Run(ctx) })

		handler := httpapi.NewHandler(httpapi.Options{
			Registry:       a.registry,
			Relay:          a.relay,
			Metrics:        a.metrics,
			Audit:          a.auditReader(),
			MaxBodyBytes:   settings.MaxAudioBytes,
			Token:          token,
			AllowedOrigins: []string{settings.DashboardURL},
		})
		launch("http api", func() error { return httpapi.ListenAndServe(ctx, settings.HTTPAddr, handler) })
	} else {
		log.Printf("ipc service and http api disabled: set NEXIATRAY_SECRET or NEXIATRAY_SERVICE_TOKEN to enable them")
	}

	if withTray {
		runner, err := menu.NewRunner(menu.Options{
			Dispatcher:      a.registry,
			State:           a.relay,
			DashboardURL:    settings.DashboardURL,
			RefreshInterval: settings.StatusRefresh(),
			Quit:            cancel,
		})
		if err != nil {
			return err
		}
		launch("tray", func() error { return runner.Start(ctx) })
	}

	<-ctx.Done()
	wg.Wait()
	close(errCh)
	return <-errCh
}
