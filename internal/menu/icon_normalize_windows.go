//go:build windows

package menu

import "github.com/example/nexiatray/internal/logging"

// The Windows tray only accepts ICO data.
func platformNormalizeIcon(data []byte) []byte {
	ico, err := pngToICO(data)
	if err != nil {
		logging.Debugf("tray icon: %v", err)
		return nil
	}
	return ico
}
