package menu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/nexiatray/internal/logging"
	"github.com/example/nexiatray/internal/relay"
)

const defaultRefreshInterval = 60 * time.Second

// Options configures a Runner.
type Options struct {
	Dispatcher      Dispatcher
	State           RelayState
	DashboardURL    string
	RefreshInterval time.Duration
	// Quit is invoked by ActionQuit; it normally cancels the run context.
	Quit func()
	// OpenURL overrides the platform browser launcher.
	OpenURL func(string) error
}

// Runner owns the tray lifecycle and keeps the tooltip in step with the relay.
type Runner struct {
	*Handler

	state           RelayState
	refreshInterval time.Duration

	mu   sync.RWMutex
	last Update

	tray            trayController
	updates         chan Update
	refreshRequests chan struct{}
}

// NewRunner constructs a Runner. Dispatcher and State are required.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Dispatcher == nil || opts.State == nil {
		return nil, errors.New("tray runner requires a dispatcher and relay state")
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	open := opts.OpenURL
	if open == nil {
		open = openURL
	}

	r := &Runner{
		state:           opts.State,
		refreshInterval: interval,
		updates:         make(chan Update, 1),
		refreshRequests: make(chan struct{}, 1),
	}
	r.Handler = &Handler{
		dispatcher:   opts.Dispatcher,
		state:        opts.State,
		dashboardURL: opts.DashboardURL,
		openURL:      open,
		quit:         opts.Quit,
		onChange:     r.requestRefresh,
	}
	r.tray = newTrayController(r.handleClick)
	return r, nil
}

// Start runs the tray and the refresh loop until ctx is canceled. Without a
// tray backend the loop keeps running headless.
func (r *Runner) Start(ctx context.Context) error {
	logging.Debugf("tray runner initialising with refresh interval %s", r.refreshInterval)

	var trayErr <-chan error
	if r.tray != nil {
		ch := make(chan error, 1)
		trayErr = ch
		go func() {
			ch <- r.tray.Run(ctx, r.updates)
		}()
	}

	r.refresh()

	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("tray stopping")
			return ctx.Err()
		case <-ticker.C:
			r.refresh()
		case <-r.refreshRequests:
			logging.Debugf("tray refresh requested")
			r.refresh()
		case err := <-trayErr:
			trayErr = nil
			if errors.Is(err, ErrTrayUnavailable) {
				log.Printf("%v; running headless", err)
				continue
			}
			if err == nil {
				return nil
			}
			return err
		}
	}
}

// Latest returns the most recently published tray state.
func (r *Runner) Latest() Update {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Runner) handleClick(ctx context.Context, action Action) {
	if err := r.Handle(ctx, action); err != nil {
		log.Printf("tray action %s failed: %v", action, err)
	}
}

func (r *Runner) refresh() {
	update := buildUpdate(r.state.Status(), r.state.Session())

	r.mu.Lock()
	changed := update != r.last
	r.last = update
	r.mu.Unlock()

	if changed {
		logging.Debugf("publishing tray state: %q voice=%t", update.Tooltip, update.VoiceActive)
		r.publish(update)
	}
}

func buildUpdate(status relay.EcosystemStatus, session relay.SessionInfo) Update {
	label := fmt.Sprintf("%s: %s", appName, status.Health)
	tooltip := fmt.Sprintf("%s (%d services)", label, len(status.Services))
	active := session.State == relay.SessionActive
	if active {
		tooltip += " - listening"
	}
	return Update{Tooltip: tooltip, StatusLabel: label, VoiceActive: active}
}

func (r *Runner) requestRefresh() {
	select {
	case r.refreshRequests <- struct{}{}:
	default:
	}
}

// publish keeps only the newest update queued.
func (r *Runner) publish(update Update) {
	select {
	case r.updates <- update:
	default:
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- update:
		default:
		}
	}
}
