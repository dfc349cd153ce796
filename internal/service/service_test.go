package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/ipc"
	"github.com/example/nexiatray/internal/protocol"
	"github.com/example/nexiatray/internal/relay"
)

const testToken = "test-token"

func startService(t *testing.T, configure ...func(*Service)) (*Client, *relay.Relay) {
	t.Helper()

	r := relay.New(relay.Options{BaseURL: "http://127.0.0.1:1"})
	reg, err := dispatch.NewRelayRegistry(r)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := ipc.Endpoint{Network: "tcp", Address: listener.Addr().String()}

	srv, err := New(endpoint, testToken, reg, r)
	require.NoError(t, err)
	for _, fn := range configure {
		fn(srv)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Error("service did not stop")
		}
	})

	return NewClient(endpoint, testToken), r
}

func TestNewRequiresToken(t *testing.T) {
	reg := dispatch.NewRegistry()
	_, err := New(ipc.DefaultEndpoint(), " ", reg, nil)
	assert.Error(t, err)

	_, err = New(ipc.DefaultEndpoint(), "tok", nil, nil)
	assert.Error(t, err)
}

func TestServiceDispatchesRelayCommands(t *testing.T) {
	client, r := startService(t)
	ctx := context.Background()

	out, err := client.Call(ctx, dispatch.CommandStartSession, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, relay.SessionStartedMessage, out)
	assert.Equal(t, relay.SessionActive, r.Session().State)

	out, err = client.Call(ctx, dispatch.CommandProcessCommand, []byte{0x01, 0x02}, nil)
	require.NoError(t, err)
	assert.Equal(t, relay.ProcessingMessage, out)

	out, err = client.Call(ctx, dispatch.CommandGetEcosystemStatus, nil, nil)
	require.NoError(t, err)
	var status relay.EcosystemStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, relay.HealthOperational, status.Health)

	out, err = client.Call(ctx, dispatch.CommandStopSession, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, relay.SessionStoppedMessage, out)
}

func TestServiceReportsFailures(t *testing.T) {
	client, _ := startService(t)
	ctx := context.Background()

	_, err := client.Call(ctx, "selfDestruct", nil, nil)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "unknown command: selfDestruct", remote.Message)

	_, err = client.Call(ctx, dispatch.CommandQueryBackend, nil, map[string]any{"endpoint": "/x", "data": "{}"})
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Message, "API request failed: ")
}

func TestServiceRejectsBadToken(t *testing.T) {
	client, _ := startService(t)
	bad := NewClient(client.endpoint, "wrong")

	_, err := bad.Call(context.Background(), dispatch.CommandStartSession, nil, nil)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestServiceBuiltins(t *testing.T) {
	client, _ := startService(t)
	ctx := context.Background()

	out, err := client.Call(ctx, protocol.CommandList, nil, nil)
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.ElementsMatch(t, dispatch.RelayCommands(), names)

	out, err = client.Call(ctx, protocol.CommandSessionInfo, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `"state":"idle"`)
}

func TestServiceDropsOversizedRequests(t *testing.T) {
	client, r := startService(t, func(s *Service) { s.SetMaxPayloadBytes(16) })
	ctx := context.Background()

	_, err := client.Call(ctx, dispatch.CommandStartSession, make([]byte, 256<<10), nil)
	require.Error(t, err)
	assert.Equal(t, relay.SessionIdle, r.Session().State)

	out, err := client.Call(ctx, dispatch.CommandProcessCommand, make([]byte, 16), nil)
	require.NoError(t, err)
	assert.Equal(t, relay.ProcessingMessage, out)
}

func TestRequestLimitCoversBase64Payload(t *testing.T) {
	assert.Equal(t, int64(4+envelopeBytes), requestLimit(3))
	assert.Equal(t, int64(8+envelopeBytes), requestLimit(4))
}
