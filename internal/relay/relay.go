// Package relay implements the command relay sitting between the UI layer
// and the backend cluster: canned voice-session acknowledgements, the static
// ecosystem status, and the HTTP pass-through to the backend.
package relay

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/nexiatray/internal/config"
	"github.com/example/nexiatray/internal/logging"
	"github.com/example/nexiatray/internal/metrics"
)

// Acknowledgements returned by the session and voice placeholders.
const (
	SessionStartedMessage = "Voice session started"
	SessionStoppedMessage = "Voice session stopped"
	ProcessingMessage     = "Processing voice command..."
)

const defaultTimeout = 30 * time.Second

// Options configures a Relay.
type Options struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	AllowedEndpoints []string
	MaxAudioBytes    int64
	HTTPClient       *http.Client
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

// Relay is safe for concurrent use. Only the placeholder session state is
// shared between calls.
type Relay struct {
	baseURL       string
	token         string
	policy        EndpointPolicy
	maxAudioBytes int64
	client        *http.Client
	metrics       *metrics.Metrics
	now           func() time.Time
	session       voiceSession
}

// New constructs a Relay. Zero-valued options fall back to the defaults.
func New(opts Options) *Relay {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = config.DefaultBackendURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxAudio := opts.MaxAudioBytes
	if maxAudio <= 0 {
		maxAudio = config.DefaultMaxAudioBytes
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Relay{
		baseURL:       base,
		token:         strings.TrimSpace(opts.Token),
		policy:        NewEndpointPolicy(opts.AllowedEndpoints),
		maxAudioBytes: maxAudio,
		client:        client,
		metrics:       opts.Metrics,
		now:           now,
	}
}

// FromSettings builds a Relay from the resolved settings.
func FromSettings(s *config.Settings, m *metrics.Metrics) *Relay {
	if s == nil {
		def := config.Default()
		s = &def
	}
	return New(Options{
		BaseURL:          s.BackendURL,
		Token:            s.BackendToken,
		Timeout:          s.RequestTimeout(),
		AllowedEndpoints: s.AllowedEndpoints,
		MaxAudioBytes:    s.MaxAudioBytes,
		Metrics:          m,
	})
}

// BaseURL reports the backend origin requests are sent to.
func (r *Relay) BaseURL() string {
	return r.baseURL
}

// StartSession marks the voice session active. It always succeeds.
func (r *Relay) StartSession(_ context.Context) (string, error) {
	id, fresh := r.session.start(r.now())
	if fresh {
		log.Printf("voice session %s started", id)
	} else {
		logging.Debugf("voice session %s already active", id)
	}
	r.metrics.SetSessionActive(true)
	return SessionStartedMessage, nil
}

// StopSession marks the voice session idle. It always succeeds.
func (r *Relay) StopSession(_ context.Context) (string, error) {
	if id, wasActive := r.session.stop(); wasActive {
		log.Printf("voice session %s stopped", id)
	} else {
		logging.Debugf("stop requested with no active voice session")
	}
	r.metrics.SetSessionActive(false)
	return SessionStoppedMessage, nil
}

// ToggleSession starts an idle session or stops an active one.
func (r *Relay) ToggleSession(ctx context.Context) (string, error) {
	if r.session.snapshot().State == SessionActive {
		return r.StopSession(ctx)
	}
	return r.StartSession(ctx)
}

// Session returns the current voice session snapshot.
func (r *Relay) Session() SessionInfo {
	return r.session.snapshot()
}

// ProcessCommand acknowledges a voice payload without decoding it. Payloads
// above the size bound are still acknowledged but flagged.
func (r *Relay) ProcessCommand(_ context.Context, audio []byte) (string, error) {
	if int64(len(audio)) > r.maxAudioBytes {
		log.Printf("voice payload of %d bytes exceeds bound of %d bytes; not buffered for processing", len(audio), r.maxAudioBytes)
		r.metrics.ObserveOversizedAudio()
	} else {
		logging.Debugf("voice payload received (%d bytes)", len(audio))
	}
	return ProcessingMessage, nil
}

// QueryBackend POSTs data to the backend at BaseURL+endpoint and returns the
// response body verbatim, whatever the HTTP status. It makes one attempt.
func (r *Relay) QueryBackend(ctx context.Context, endpoint, data string) (string, error) {
	if err := r.policy.Validate(endpoint); err != nil {
		r.metrics.ObserveBackend(metrics.OutcomeRejected)
		return "", err
	}

	target := r.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(data))
	if err != nil {
		r.metrics.ObserveBackend(metrics.OutcomeTransportError)
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	logging.LogHTTPRequest(req, []byte(data))

	resp, err := r.client.Do(req)
	if err != nil {
		r.metrics.ObserveBackend(metrics.OutcomeTransportError)
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.metrics.ObserveBackend(metrics.OutcomeReadError)
		return "", &ResponseReadError{Err: err}
	}
	logging.LogHTTPResponse(resp, body)

	r.metrics.ObserveBackend(metrics.OutcomeOK)
	return string(body), nil
}
