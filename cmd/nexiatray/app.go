package main

import (
	"context"
	"fmt"
	"log"

	"github.com/example/nexiatray/internal/audit"
	"github.com/example/nexiatray/internal/config"
	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/ipc"
	"github.com/example/nexiatray/internal/metrics"
	"github.com/example/nexiatray/internal/relay"
	"github.com/example/nexiatray/internal/security"
	"github.com/example/nexiatray/internal/service"
)

// app holds the wired relay components shared by the commands.
type app struct {
	settings *config.Settings
	metrics  *metrics.Metrics
	relay    *relay.Relay
	registry *dispatch.Registry
	audit    audit.Sink
	closeFn  func() error
}

func newApp(ctx context.Context, settings *config.Settings) (*app, error) {
	m := metrics.New()
	r := relay.FromSettings(settings, m)

	var sink audit.Sink = audit.Nop{}
	closeFn := func() error { return nil }
	if settings.RedisAddr != "" {
		redisSink, err := audit.DialRedis(ctx, settings.RedisAddr, settings.RedisKey)
		if err != nil {
			log.Printf("audit trail disabled: %v", err)
		} else {
			sink = redisSink
			closeFn = redisSink.Close
		}
	}

	registry, err := dispatch.NewRelayRegistry(r, dispatch.WithMetrics(m), dispatch.WithAuditSink(sink))
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("register commands: %w", err)
	}

	return &app{
		settings: settings,
		metrics:  m,
		relay:    r,
		registry: registry,
		audit:    sink,
		closeFn:  closeFn,
	}, nil
}

func (a *app) Close() error {
	return a.closeFn()
}

// auditReader returns the sink as a Reader when it supports listing.
func (a *app) auditReader() audit.Reader {
	if reader, ok := a.audit.(audit.Reader); ok {
		return reader
	}
	return nil
}

func serviceToken() string {
	return security.ResolveServiceToken(config.ResolveSecret())
}

func newServiceClient(settings *config.Settings) (*service.Client, error) {
	token := serviceToken()
	if token == "" {
		return nil, fmt.Errorf("service token could not be resolved; set NEXIATRAY_SERVICE_TOKEN or NEXIATRAY_SECRET")
	}
	return service.NewClient(ipc.ResolveEndpoint(settings.IPCAddr), token), nil
}
