// Package service exposes the relay commands to local processes over a
// token-authenticated loopback socket.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/example/nexiatray/internal/config"
	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/ipc"
	"github.com/example/nexiatray/internal/protocol"
	"github.com/example/nexiatray/internal/relay"
	"github.com/example/nexiatray/internal/security"
)

const (
	connectionTimeout = 30 * time.Second
	envelopeBytes     = 64 << 10
)

// Service brokers IPC requests to the command registry.
type Service struct {
	token    string
	endpoint ipc.Endpoint
	registry *dispatch.Registry
	relay    *relay.Relay

	maxRequestBytes int64
}

// New constructs a Service. The token must be non-empty.
func New(endpoint ipc.Endpoint, token string, registry *dispatch.Registry, r *relay.Relay) (*Service, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("service token could not be resolved; set NEXIATRAY_SERVICE_TOKEN or NEXIATRAY_SECRET")
	}
	if registry == nil {
		return nil, errors.New("service requires a command registry")
	}
	return &Service{
		token:    token,
		endpoint: endpoint,
		registry: registry,
		relay:    r,

		maxRequestBytes: requestLimit(config.DefaultMaxAudioBytes),
	}, nil
}

// SetMaxPayloadBytes bounds the payload a single request may carry. The
// request read is capped at the base64 size of n plus a fixed envelope.
func (s *Service) SetMaxPayloadBytes(n int64) {
	if n <= 0 {
		n = config.DefaultMaxAudioBytes
	}
	s.maxRequestBytes = requestLimit(n)
}

func requestLimit(payload int64) int64 {
	return (payload+2)/3*4 + envelopeBytes
}

// Endpoint exposes the listening endpoint for logging and diagnostics.
func (s *Service) Endpoint() string {
	return s.endpoint.String()
}

// Run binds the endpoint and serves until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	listener, err := s.endpoint.Listen()
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.endpoint.String(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until the context is canceled.
func (s *Service) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()

	log.Printf("relay service listening on %s", listener.Addr())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Println("relay service shutting down")
				return context.Canceled
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Printf("temporary accept error: %v", err)
				time.Sleep(250 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept connection: %w", err)
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Service) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(connectionTimeout))
	}

	limited := &io.LimitedReader{R: conn, N: s.maxRequestBytes}
	decoder := json.NewDecoder(limited)
	encoder := json.NewEncoder(conn)

	var req protocol.Request
	if err := decoder.Decode(&req); err != nil {
		if limited.N <= 0 {
			log.Printf("service: request exceeds %d bytes", s.maxRequestBytes)
			_ = encoder.Encode(protocol.Response{Error: fmt.Sprintf("request exceeds %d bytes", s.maxRequestBytes)})
			return
		}
		log.Printf("service: failed to decode request: %v", err)
		return
	}

	if !security.TokensEqual(req.Token, s.token) {
		_ = encoder.Encode(protocol.Response{Error: "unauthorized"})
		return
	}

	_ = encoder.Encode(s.handle(ctx, req))
}

func (s *Service) handle(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Command {
	case protocol.CommandList:
		data, err := json.Marshal(s.registry.Commands())
		if err != nil {
			return protocol.Response{Error: err.Error()}
		}
		return protocol.Response{Result: string(data)}
	case protocol.CommandSessionInfo:
		if s.relay == nil {
			return protocol.Response{Error: "session info unavailable"}
		}
		data, err := json.Marshal(s.relay.Session())
		if err != nil {
			return protocol.Response{Error: err.Error()}
		}
		return protocol.Response{Result: string(data)}
	}

	res := s.registry.Dispatch(ctx, dispatch.Request{
		Name:    req.Command,
		Source:  "ipc",
		Payload: req.Payload,
		Args:    req.Args,
	})
	return protocol.Response{Result: res.Value, Error: res.Error}
}
