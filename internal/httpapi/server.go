// Package httpapi serves the relay commands to the local webview over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/nexiatray/internal/audit"
	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/logging"
	"github.com/example/nexiatray/internal/metrics"
	"github.com/example/nexiatray/internal/relay"
	"github.com/example/nexiatray/internal/security"
)

const (
	shutdownGrace     = 5 * time.Second
	defaultAuditLimit = 50
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
)

// Options wires the handler dependencies. Metrics and Audit may be nil.
//
// Every route except /health requires "Authorization: Bearer <Token>"; an
// empty Token rejects them all. Requests carrying an Origin header are served
// only when that origin is listed in AllowedOrigins.
type Options struct {
	Registry       *dispatch.Registry
	Relay          *relay.Relay
	Metrics        *metrics.Metrics
	Audit          audit.Reader
	MaxBodyBytes   int64
	Token          string
	AllowedOrigins []string
}

type server struct {
	opts    Options
	origins map[string]struct{}
}

// NewHandler builds the router.
func NewHandler(opts Options) http.Handler {
	s := &server{opts: opts, origins: make(map[string]struct{}, len(opts.AllowedOrigins))}
	for _, origin := range opts.AllowedOrigins {
		if o := OriginOf(origin); o != "" {
			s.origins[o] = struct{}{}
		}
	}

	r := chi.NewRouter()
	r.Use(s.corsMiddleware)

	r.Get("/health", s.health)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/status", s.status)
		r.Get("/session", s.session)
		r.Post("/commands/{name}", s.command)
		if opts.Metrics != nil {
			r.Handle("/metrics", opts.Metrics.Handler())
		}
		if opts.Audit != nil {
			r.Get("/audit", s.audit)
		}
	})
	return r
}

// OriginOf reduces a URL to its scheme://host origin, or "" when it has none.
func OriginOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func (s *server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Origin")
		if _, ok := s.origins[strings.ToLower(origin)]; !ok {
			logging.Debugf("http api: rejected %s %s from origin %q", r.Method, r.URL.Path, origin)
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)

		if r.Method == http.MethodOptions {
			switch strings.ToUpper(strings.TrimSpace(r.Header.Get("Access-Control-Request-Method"))) {
			case "", http.MethodGet, http.MethodPost:
				w.WriteHeader(http.StatusNoContent)
			default:
				http.Error(w, "method not allowed", http.StatusForbidden)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token := ""
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			token = strings.TrimSpace(header[7:])
		}
		if !security.TokensEqual(token, s.opts.Token) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="nexiatray"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves handler on addr until ctx is canceled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http api listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http api shutdown: %w", err)
		}
		return nil
	}
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *server) status(w http.ResponseWriter, r *http.Request) {
	res := s.opts.Registry.Dispatch(r.Context(), dispatch.Request{
		Name:   dispatch.CommandGetEcosystemStatus,
		Source: "http",
	})
	if !res.OK() {
		http.Error(w, res.Error, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, res.Value)
}

func (s *server) session(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Relay == nil {
		http.Error(w, "session info unavailable", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Relay.Session())
}

func (s *server) command(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body := r.Body
	if s.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	res := s.opts.Registry.Dispatch(r.Context(), dispatch.Request{
		Name:    name,
		Source:  "http",
		Payload: payload,
	})
	if !res.OK() {
		logging.Debugf("http command %s failed: %s", name, res.Error)
		http.Error(w, res.Error, statusFor(res.Err()))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, res.Value)
}

func (s *server) audit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := s.opts.Audit.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func statusFor(err error) int {
	switch {
	case relay.IsTransient(err):
		return http.StatusBadGateway
	case errors.Is(err, dispatch.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, relay.ErrInvalidEndpoint), errors.Is(err, dispatch.ErrInvalidArguments):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http api: encode response: %v", err)
	}
}
