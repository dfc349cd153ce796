package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/nexiatray/internal/config"
	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/ipc"
	"github.com/example/nexiatray/internal/relay"
	"github.com/example/nexiatray/internal/service"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("NEXIATRAY_CONFIG_PATH", filepath.Join(t.TempDir(), "settings.enc"))
	t.Setenv("NEXIATRAY_SECRET", "test-secret")
	for _, key := range []string{
		"NEXIATRAY_BACKEND_URL", "NEXIATRAY_BACKEND_TOKEN", "NEXIATRAY_SERVICE_ADDR",
		"NEXIATRAY_SERVICE_TOKEN", "NEXIATRAY_REDIS_ADDR", "NEXIATRAY_ALLOWED_ENDPOINTS",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusJSON(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"health":"All systems operational"`)
	assert.Contains(t, out, `"KREACH"`)
}

func TestRenderStatusPlain(t *testing.T) {
	buf := new(bytes.Buffer)
	status := relay.EcosystemStatus{Services: relay.Services(), Health: relay.HealthOperational, Timestamp: "2024-01-01T00:00:00Z"}

	renderStatus(buf, termenv.Ascii, status, "http://localhost:9090")

	out := buf.String()
	assert.Contains(t, out, "health:   All systems operational")
	assert.Contains(t, out, "    - KVIBE")
	assert.Contains(t, out, "backend:  http://localhost:9090")
}

func TestQueryCommandLocal(t *testing.T) {
	isolate(t)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "/v1/ask", r.URL.Path)
		_, _ = w.Write(append([]byte("echo:"), body...))
	}))
	t.Cleanup(backend.Close)
	t.Setenv("NEXIATRAY_BACKEND_URL", backend.URL)

	out, err := execute(t, `{"q":"stdin"}`, "query", "/v1/ask", "-")
	require.NoError(t, err)
	assert.Equal(t, `echo:{"q":"stdin"}`+"\n", out)

	out, err = execute(t, "line one\r\n", "query", "/v1/ask", "-")
	require.NoError(t, err)
	assert.Equal(t, "echo:line one\r\n\n", out)

	_, err = execute(t, "", "query", "v1/ask", "{}")
	assert.ErrorIs(t, err, relay.ErrInvalidEndpoint)
}

func TestSessionCommandsUseRunningService(t *testing.T) {
	isolate(t)

	r := relay.New(relay.Options{BaseURL: "http://127.0.0.1:1"})
	reg, err := dispatch.NewRelayRegistry(r)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Setenv("NEXIATRAY_SERVICE_ADDR", listener.Addr().String())

	srv, err := service.New(ipc.DefaultEndpoint(), serviceToken(), reg, r)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, listener)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})

	out, err := execute(t, "", "session", "start")
	require.NoError(t, err)
	assert.Equal(t, relay.SessionStartedMessage+"\n", out)
	assert.Equal(t, relay.SessionActive, r.Session().State)

	out, err = execute(t, "pcm-bytes", "process", "-")
	require.NoError(t, err)
	assert.Equal(t, relay.ProcessingMessage+"\n", out)

	out, err = execute(t, "", "session", "stop")
	require.NoError(t, err)
	assert.Equal(t, relay.SessionStoppedMessage+"\n", out)
}

func TestConfigSetAndShow(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "config", "set",
		"backend_url=http://backend.local:8080/",
		"request_timeout_sec=12",
		"allowed_endpoints=/api, /health",
		"backend_token=supersecret",
	)
	require.NoError(t, err)

	stored, err := config.Load("test-secret")
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local:8080", stored.BackendURL)
	assert.Equal(t, 12, stored.RequestTimeoutSec)
	assert.Equal(t, []string{"/api", "/health"}, stored.AllowedEndpoints)

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend_url: http://backend.local:8080")
	assert.Contains(t, out, "*******cret")
	assert.NotContains(t, out, "supersecret")
}

func TestApplyAssignmentsRejectsUnknownKeys(t *testing.T) {
	settings := config.Default()
	assert.Error(t, applyAssignments(&settings, []string{"colour=blue"}))
	assert.Error(t, applyAssignments(&settings, []string{"no-equals-sign"}))
	assert.Error(t, applyAssignments(&settings, []string{"request_timeout_sec=soon"}))
}
