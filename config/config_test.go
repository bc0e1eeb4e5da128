package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vista-ocr/backend"
	"vista-ocr/prompt"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# empty\n"), 0o644))
	s, err := NewStore(path)
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()

	assert.Equal(t, backend.GeminiFlash, snap.Backend)
	assert.Equal(t, prompt.FormatPlainText, snap.OutputFormat)
	assert.False(t, snap.PrettyFormatting)
	assert.True(t, snap.OriginalFormatting)
	assert.True(t, snap.LatexMath)
	assert.False(t, snap.ResolutionLimitEnabled)
	assert.Equal(t, 4000, snap.MaxImageWidth)
	assert.Equal(t, 4000, snap.MaxImageHeight)
	assert.Equal(t, "Ctrl+Alt+Q", snap.Hotkey)
	assert.Equal(t, backend.RecognitionAccurate, snap.LocalRecognitionLevel)
	assert.True(t, snap.LocalLanguageCorrection)
}

func TestFormattingTogglesAreMutuallyExclusive(t *testing.T) {
	s := newTestStore(t)

	s.Set(KeyPrettyFormatting, true)
	snap := s.Snapshot()
	assert.True(t, snap.PrettyFormatting)
	assert.False(t, snap.OriginalFormatting)

	s.Set(KeyOriginalFormatting, true)
	snap = s.Snapshot()
	assert.False(t, snap.PrettyFormatting)
	assert.True(t, snap.OriginalFormatting)

	// Never both active, whatever the sequence.
	assert.False(t, snap.PrettyFormatting && snap.OriginalFormatting)
}

func TestSnapshotNormalizesHandEditedConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pretty_formatting: true\noriginal_formatting: true\n"), 0o644))

	s, err := NewStore(path)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.False(t, snap.PrettyFormatting && snap.OriginalFormatting)
	assert.True(t, snap.OriginalFormatting, "the application default wins the conflict")
}

func TestSnapshotFallsBackOnUnknownBackend(t *testing.T) {
	s := newTestStore(t)
	s.Set(KeyBackend, "gpt-9000")
	assert.Equal(t, backend.GeminiFlash, s.Snapshot().Backend)
}

func TestPromptOptionsProjection(t *testing.T) {
	s := newTestStore(t)
	s.Set(KeyOutputFormat, prompt.FormatMarkdown)
	s.Set(KeySpellCheck, true)
	s.Set(KeyOutputLanguage, "Spanish")

	opts := s.Snapshot().PromptOptions()
	assert.Equal(t, prompt.FormatMarkdown, opts.Format)
	assert.True(t, opts.SpellCheck)
	assert.Equal(t, "Spanish", opts.OutputLanguage)
	assert.True(t, opts.OriginalFormatting)
}

func TestLocalSettingsProjectionIsComplete(t *testing.T) {
	s := newTestStore(t)
	s.Set(KeyLocalRecognitionLevel, string(backend.RecognitionFast))
	s.Set(KeyLocalLanguages, []string{"eng"})

	ls := s.Snapshot().LocalSettings()
	require.NotNil(t, ls.Level)
	require.NotNil(t, ls.Languages)
	require.NotNil(t, ls.LanguageCorrection)
	require.NotNil(t, ls.CustomWords)
	assert.Equal(t, backend.RecognitionFast, *ls.Level)
	assert.Equal(t, []string{"eng"}, *ls.Languages)
}

func TestAPIKeyEnvFallback(t *testing.T) {
	s := newTestStore(t)
	t.Setenv(apiKeyEnvVar, "env-key")
	assert.Equal(t, "env-key", s.Snapshot().APIKey)

	s.Set(KeyGeminiAPIKey, "store-key")
	assert.Equal(t, "store-key", s.Snapshot().APIKey, "the store value takes precedence")
}
