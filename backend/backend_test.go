package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCloud struct {
	model string
	calls int
}

func (s *stubCloud) Process(ctx context.Context, image []byte, prompt string) (string, error) {
	s.calls++
	return "cloud", nil
}

func (s *stubCloud) SetModel(model string) { s.model = model }

type stubLocal struct {
	settings LocalSettings
	calls    int
}

func (s *stubLocal) Process(ctx context.Context, image []byte, prompt string) (string, error) {
	s.calls++
	return "local", nil
}

func (s *stubLocal) ApplySettings(ls LocalSettings) { s.settings = ls }

func TestParseID(t *testing.T) {
	for _, valid := range []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.0-pro-exp-02-05", "local"} {
		id, err := ParseID(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, ID(valid), id)
	}

	_, err := ParseID("gpt-4")
	assert.Error(t, err)
	_, err = ParseID("")
	assert.Error(t, err)
}

func TestIsCloud(t *testing.T) {
	assert.True(t, GeminiFlash.IsCloud())
	assert.True(t, GeminiPro.IsCloud())
	assert.False(t, Local.IsCloud())
}

func TestSelectorRoutesByIdentity(t *testing.T) {
	cloud := &stubCloud{}
	local := &stubLocal{}
	s := NewSelector(cloud, local)
	assert.Equal(t, string(GeminiFlash), cloud.model, "default model pushed at construction")

	text, err := s.Dispatch(context.Background(), []byte("img"), "p")
	require.NoError(t, err)
	assert.Equal(t, "cloud", text)

	require.NoError(t, s.SetBackend(Local))
	text, err = s.Dispatch(context.Background(), []byte("img"), "p")
	require.NoError(t, err)
	assert.Equal(t, "local", text)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 1, local.calls)
}

func TestSelectorPushesCloudModel(t *testing.T) {
	cloud := &stubCloud{}
	s := NewSelector(cloud, &stubLocal{})

	require.NoError(t, s.SetBackend(GeminiPro))
	assert.Equal(t, string(GeminiPro), cloud.model)
	assert.Equal(t, GeminiPro, s.Backend())

	assert.Error(t, s.SetBackend("nonsense"))
	assert.Equal(t, GeminiPro, s.Backend(), "invalid identity leaves state untouched")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, NoTextDetected, KindOf(NewError(NoTextDetected, "")))
	assert.Equal(t, ProcessingCancelled, KindOf(context.Canceled))
	assert.Equal(t, Unexpected, KindOf(errors.New("boom")))

	wrapped := NewError(UploadFailed, "dns")
	assert.Equal(t, UploadFailed, KindOf(wrapped))
	assert.Equal(t, "dns", Detail(wrapped))
	assert.Equal(t, "boom", Detail(errors.New("boom")))
	assert.Empty(t, Detail(nil))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "upload_failed: network down", NewError(UploadFailed, "network down").Error())
	assert.Equal(t, "no_text_detected", NewError(NoTextDetected, "").Error())
}
