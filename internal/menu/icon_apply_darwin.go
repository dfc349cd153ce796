//go:build darwin && cgo

package menu

import "github.com/getlantern/systray"

// applyIcon also registers the icon as a template so the menu bar tints it.
func applyIcon(icon []byte) {
	systray.SetTemplateIcon(icon, icon)
}
