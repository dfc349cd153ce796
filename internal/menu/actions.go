package menu

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/relay"
)

// Action is a tray menu verb.
type Action int

const (
	// ActionShow is raised by the status entry and brings the dashboard up.
	ActionShow Action = iota
	ActionToggleVoice
	ActionOpenDashboard
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionShow:
		return "show"
	case ActionToggleVoice:
		return "voice_toggle"
	case ActionOpenDashboard:
		return "dashboard"
	case ActionQuit:
		return "quit"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ErrUnknownAction is returned for values outside the Action set.
var ErrUnknownAction = errors.New("unknown tray action")

// Dispatcher runs relay commands. *dispatch.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) dispatch.Result
}

// RelayState exposes the relay state the tray renders. *relay.Relay
// satisfies it.
type RelayState interface {
	Session() relay.SessionInfo
	Status() relay.EcosystemStatus
}

// Handler maps tray actions onto relay commands and desktop side effects.
type Handler struct {
	dispatcher   Dispatcher
	state        RelayState
	dashboardURL string
	openURL      func(string) error
	quit         func()
	onChange     func()
}

// Handle performs a single tray action.
func (h *Handler) Handle(ctx context.Context, action Action) error {
	switch action {
	case ActionShow, ActionOpenDashboard:
		if err := h.openURL(h.dashboardURL); err != nil {
			return fmt.Errorf("open dashboard: %w", err)
		}
		return nil
	case ActionToggleVoice:
		return h.toggleVoice(ctx)
	case ActionQuit:
		log.Println("quit requested from tray")
		if h.quit != nil {
			h.quit()
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (h *Handler) toggleVoice(ctx context.Context) error {
	command := dispatch.CommandStartSession
	if h.state.Session().State == relay.SessionActive {
		command = dispatch.CommandStopSession
	}

	res := h.dispatcher.Dispatch(ctx, dispatch.Request{Name: command, Source: "tray"})
	if !res.OK() {
		return res.Err()
	}
	log.Printf("tray: %s", res.Value)
	if h.onChange != nil {
		h.onChange()
	}
	return nil
}
