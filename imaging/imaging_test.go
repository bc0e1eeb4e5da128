package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x % 256), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestDownscalePassThroughWithinBounds(t *testing.T) {
	src := pngBytes(t, 100, 50)
	out, err := Downscale(src, 200, 200)
	require.NoError(t, err)
	assert.Equal(t, src, out, "images within bounds must pass through unchanged")
}

func TestDownscalePassThroughNonPositiveBounds(t *testing.T) {
	src := pngBytes(t, 100, 50)

	out, err := Downscale(src, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	out, err = Downscale(src, 200, -1)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestDownscalePreservesAspectRatio(t *testing.T) {
	src := pngBytes(t, 400, 100)

	out, err := Downscale(src, 200, 200)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 50, h, "scale factor must be min(maxW/w, maxH/h)")
}

func TestDownscaleHeightDominates(t *testing.T) {
	src := pngBytes(t, 100, 400)

	out, err := Downscale(src, 200, 100)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 25, w)
	assert.Equal(t, 100, h)
}

func TestDownscaleUndecodableReturnsOriginal(t *testing.T) {
	src := []byte("definitely not an image")
	out, err := Downscale(src, 10, 10)
	assert.Error(t, err)
	assert.Equal(t, src, out, "caller keeps the original bytes on decode failure")
}
