package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var (
	iconOnce sync.Once
	iconData []byte
)

// iconPNG renders the tray glyph once: a dashed selection rectangle on
// a transparent 16x16 canvas.
func iconPNG() []byte {
	iconOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		frame := color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
		for x := 2; x <= 13; x++ {
			if x%3 != 0 {
				img.Set(x, 3, frame)
				img.Set(x, 12, frame)
			}
		}
		for y := 3; y <= 12; y++ {
			if y%3 != 0 {
				img.Set(2, y, frame)
				img.Set(13, y, frame)
			}
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return
		}
		iconData = buf.Bytes()
	})
	return iconData
}
