package menu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"
)

// icoHeader is an ICONDIR with a single ICONDIRENTRY.
type icoHeader struct {
	Reserved   uint16
	Type       uint16
	Count      uint16
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved2  uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

const icoHeaderSize = 6 + 16

// pngToICO wraps PNG bytes in a single-image ICO container.
func pngToICO(data []byte) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode icon png: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > 256 || cfg.Height > 256 {
		return nil, fmt.Errorf("icon size %dx%d out of range", cfg.Width, cfg.Height)
	}

	hdr := icoHeader{
		Type:       1,
		Count:      1,
		Width:      uint8(cfg.Width),
		Height:     uint8(cfg.Height),
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(len(data)),
		Offset:     icoHeaderSize,
	}
	buf := bytes.NewBuffer(make([]byte, 0, icoHeaderSize+len(data)))
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	buf.Write(data)
	return buf.Bytes(), nil
}
