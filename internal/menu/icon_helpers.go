package menu

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const defaultIconSize = 32

var (
	defaultIconOnce sync.Once
	defaultIconData []byte
)

// renderDefaultIcon draws the fallback tray glyph: a filled disc on a
// transparent background.
func renderDefaultIcon() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, defaultIconSize, defaultIconSize))
	fill := color.NRGBA{R: 0x4f, G: 0x46, B: 0xe5, A: 0xff}
	center := float64(defaultIconSize-1) / 2
	radius := float64(defaultIconSize)/2 - 1
	for y := 0; y < defaultIconSize; y++ {
		for x := 0; x < defaultIconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func cloneDefaultIcon() []byte {
	defaultIconOnce.Do(func() {
		defaultIconData = renderDefaultIcon()
	})
	return cloneIcon(defaultIconData)
}

func cloneIcon(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp
}

func normalizedIcon(data []byte) []byte {
	if len(data) == 0 {
		data = cloneDefaultIcon()
	}
	normalized := platformNormalizeIcon(data)
	if len(normalized) == 0 {
		return cloneDefaultIcon()
	}
	return cloneIcon(normalized)
}
