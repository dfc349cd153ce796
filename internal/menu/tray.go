package menu

import (
	"context"
	"errors"
)

const appName = "Nexia"

// ErrTrayUnavailable is returned by builds without a system tray backend.
var ErrTrayUnavailable = errors.New("system tray is unavailable without cgo support")

// Update is the state rendered by the tray.
type Update struct {
	Tooltip     string
	StatusLabel string
	VoiceActive bool
}

type trayController interface {
	Run(ctx context.Context, updates <-chan Update) error
}

func voiceLabel(active bool) string {
	if active {
		return "Stop Voice Command"
	}
	return "Voice Command"
}
