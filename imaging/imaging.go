// Package imaging implements the optional pre-upload downscale step.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"

	_ "image/jpeg"

	"github.com/nfnt/resize"
)

// Downscale shrinks the image so it fits within maxWidth x maxHeight,
// preserving aspect ratio, and re-encodes it losslessly in the source
// format. Images already within bounds, non-positive bounds, and
// formats without a lossless encoder pass through unchanged.
func Downscale(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, fmt.Errorf("decode for resize: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return data, nil
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	tw := int(float64(w) * scale)
	th := int(float64(h) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	if format != "png" {
		// Only PNG can be re-encoded without loss; anything else keeps
		// its original bytes.
		log.Printf("imaging: skipping resize for %s image (no lossless re-encode)", format)
		return data, nil
	}

	scaled := resize.Resize(uint(tw), uint(th), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return data, fmt.Errorf("re-encode resized image: %w", err)
	}

	log.Printf("imaging: downscaled %dx%d -> %dx%d (%d -> %d bytes)", w, h, tw, th, len(data), buf.Len())
	return buf.Bytes(), nil
}
