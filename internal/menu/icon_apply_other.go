//go:build (cgo || windows) && !darwin

package menu

import "github.com/getlantern/systray"

func applyIcon(icon []byte) {
	systray.SetIcon(icon)
}
