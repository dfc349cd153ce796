// Package dispatch maps named relay commands to their handlers and wraps
// each invocation with metrics, logging and an audit event.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/nexiatray/internal/audit"
	"github.com/example/nexiatray/internal/logging"
	"github.com/example/nexiatray/internal/metrics"
)

var (
	// ErrUnknownCommand is returned for names with no registered handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArguments is returned when a command's arguments cannot be decoded.
	ErrInvalidArguments = errors.New("invalid arguments")

	errCommandExists = errors.New("command already registered")
)

const auditTimeout = 2 * time.Second

// Request is one command invocation. It is not retained after dispatch.
type Request struct {
	Name    string
	Source  string
	Payload []byte
	Args    map[string]any
}

// Result is either a success value or a failure message.
type Result struct {
	Value string `json:"result,omitempty"`
	Error string `json:"error,omitempty"`

	err error
}

// Success wraps a successful value.
func Success(value string) Result {
	return Result{Value: value}
}

// Failure wraps err; its message becomes the failure string.
func Failure(err error) Result {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	return Result{Error: err.Error(), err: err}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.err == nil && r.Error == ""
}

// Err returns the underlying error of a failure, or nil.
func (r Result) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.Error != "" {
		return errors.New(r.Error)
	}
	return nil
}

// Handler executes a single command.
type Handler func(ctx context.Context, req Request) (string, error)

// Registry holds the command table. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	metrics *metrics.Metrics
	audit   audit.Sink
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records command counts and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithAuditSink writes one audit event per dispatch.
func WithAuditSink(sink audit.Sink) Option {
	return func(r *Registry) {
		if sink != nil {
			r.audit = sink
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		audit:    audit.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a handler; names must be unique and non-empty.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("command name is empty: %w", ErrInvalidArguments)
	}
	if handler == nil {
		return fmt.Errorf("%s: nil handler: %w", name, ErrInvalidArguments)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%s: %w", name, errCommandExists)
	}
	r.handlers[name] = handler
	return nil
}

// Commands lists the registered command names in sorted order.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named command and converts its outcome into a Result.
func (r *Registry) Dispatch(ctx context.Context, req Request) Result {
	r.mu.RLock()
	handler, ok := r.handlers[req.Name]
	r.mu.RUnlock()

	source := req.Source
	if source == "" {
		source = "local"
	}

	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, req.Name)
		logging.LogCommand(source, req.Name, 0, err)
		return Failure(err)
	}

	start := time.Now()
	value, err := handler(ctx, req)
	elapsed := time.Since(start)

	r.metrics.ObserveCommand(req.Name, elapsed, err)
	logging.LogCommand(source, req.Name, elapsed, err)
	r.writeAudit(ctx, audit.NewEvent(source, req.Name, elapsed, err))

	if err != nil {
		return Failure(err)
	}
	return Success(value)
}

func (r *Registry) writeAudit(ctx context.Context, ev audit.Event) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.audit.Write(auditCtx, ev); err != nil {
		logging.Debugf("audit write for %s failed: %v", ev.Command, err)
	}
}
