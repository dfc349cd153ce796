//go:build cgo || windows
// +build cgo windows

package menu

import (
	"context"

	"github.com/getlantern/systray"
)

type systrayController struct {
	handle func(context.Context, Action)
}

func newTrayController(handle func(context.Context, Action)) trayController {
	return &systrayController{handle: handle}
}

func (c *systrayController) Run(ctx context.Context, updates <-chan Update) error {
	done := make(chan struct{})

	go systray.Run(func() {
		applyIcon(normalizedIcon(nil))
		systray.SetTooltip(appName)

		status := systray.AddMenuItem(appName, "Show Nexia")
		systray.AddSeparator()
		voice := systray.AddMenuItem(voiceLabel(false), "Start or stop the voice session")
		systray.AddSeparator()
		dashboard := systray.AddMenuItem("Open Dashboard", "Open the Nexia dashboard")
		systray.AddSeparator()
		quit := systray.AddMenuItem("Quit Nexia", "Exit the application")

		go c.listen(ctx, updates, status, voice)
		go c.clicks(ctx, map[Action]<-chan struct{}{
			ActionShow:          status.ClickedCh,
			ActionToggleVoice:   voice.ClickedCh,
			ActionOpenDashboard: dashboard.ClickedCh,
			ActionQuit:          quit.ClickedCh,
		})
	}, func() {
		close(done)
	})

	select {
	case <-ctx.Done():
		systray.Quit()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *systrayController) listen(ctx context.Context, updates <-chan Update, status, voice *systray.MenuItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			systray.SetTooltip(update.Tooltip)
			status.SetTitle(update.StatusLabel)
			voice.SetTitle(voiceLabel(update.VoiceActive))
			if update.VoiceActive {
				voice.Check()
			} else {
				voice.Uncheck()
			}
		}
	}
}

func (c *systrayController) clicks(ctx context.Context, channels map[Action]<-chan struct{}) {
	for action, ch := range channels {
		go func(action Action, ch <-chan struct{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					go c.handle(ctx, action)
				}
			}
		}(action, ch)
	}
}
