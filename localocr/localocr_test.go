package localocr

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vista-ocr/backend"
)

func TestProcessRejectsUndecodableImage(t *testing.T) {
	e := New()
	_, err := e.Process(context.Background(), []byte{0xde, 0xad, 0xbe, 0xef}, "ignored")
	require.Error(t, err)
	assert.Equal(t, backend.InvalidImageData, backend.KindOf(err))
}

func TestApplySettingsPartialUpdate(t *testing.T) {
	e := New()

	langs := []string{"eng", "deu"}
	e.ApplySettings(backend.LocalSettings{Languages: &langs})

	snap := e.snapshot()
	assert.Equal(t, []string{"eng", "deu"}, snap.languages)
	assert.Equal(t, backend.RecognitionAccurate, snap.level, "unspecified fields must not be clobbered")
	assert.True(t, snap.languageCorrection, "unspecified fields must not be clobbered")

	fast := backend.RecognitionFast
	off := false
	e.ApplySettings(backend.LocalSettings{Level: &fast, LanguageCorrection: &off})

	snap = e.snapshot()
	assert.Equal(t, backend.RecognitionFast, snap.level)
	assert.False(t, snap.languageCorrection)
	assert.Equal(t, []string{"eng", "deu"}, snap.languages, "earlier update must survive")
}

func TestApplySettingsCopiesSlices(t *testing.T) {
	e := New()
	words := []string{"kubernetes"}
	e.ApplySettings(backend.LocalSettings{CustomWords: &words})
	words[0] = "mutated"
	assert.Equal(t, []string{"kubernetes"}, e.snapshot().customWords)
}

func TestWriteUserWords(t *testing.T) {
	path, err := writeUserWords([]string{"alpha", "beta"})
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n", string(data))
}
