// Package audit records one event per dispatched relay command.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event describes a single command invocation.
type Event struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Command    string `json:"command"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
	At         string `json:"at"`
}

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// Reader is implemented by sinks that can list recent events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(source, command string, elapsed time.Duration, err error) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Source:     source,
		Command:    command,
		Status:     "ok",
		DurationMS: elapsed.Milliseconds(),
		At:         time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err != nil {
		ev.Status = "error"
		ev.Error = err.Error()
	}
	return ev
}

// Nop discards every event.
type Nop struct{}

func (Nop) Write(context.Context, Event) error { return nil }
