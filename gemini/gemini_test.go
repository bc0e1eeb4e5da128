package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vista-ocr/backend"
)

func newTestClient(url string) *Client {
	c := New("test-key")
	c.baseURL = url
	return c
}

func candidateBody(t *testing.T, inner any) []byte {
	t.Helper()
	innerJSON, err := json.Marshal(inner)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": string(innerJSON)}},
			},
		}},
	})
	require.NoError(t, err)
	return body
}

func TestProcessSuccess(t *testing.T) {
	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(0), req.GenerationConfig.Temperature)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
		assert.ElementsMatch(t, []string{"extractedText", "hasText"}, req.GenerationConfig.ResponseSchema.Required)
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "read this", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MIMEType)

		w.Write(candidateBody(t, extractedContent{ExtractedText: "hello world", HasText: true}))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.SetModel("gemini-2.0-flash-lite")

	text, err := c.Process(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "read this")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash-lite:generateContent", gotPath.Load())
}

func TestProcessNoTextDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 with a well-formed body saying nothing was found.
		w.Write(candidateBody(t, extractedContent{ExtractedText: "", HasText: false}))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Process(context.Background(), []byte("img"), "p")
	require.Error(t, err)
	assert.Equal(t, backend.NoTextDetected, backend.KindOf(err))
}

func TestProcessServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Process(context.Background(), []byte("img"), "p")
	require.Error(t, err)
	assert.Equal(t, backend.GenerationFailed, backend.KindOf(err))
	assert.Contains(t, backend.Detail(err), "model overloaded")
}

func TestProcessInvalidResponseShape(t *testing.T) {
	cases := map[string]string{
		"not json":          `<<not json>>`,
		"no candidates":     `{"candidates": []}`,
		"inner not schemad": `{"candidates":[{"content":{"parts":[{"text":"plain prose, not the schema"}]}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Process(context.Background(), []byte("img"), "p")
			require.Error(t, err)
			assert.Equal(t, backend.InvalidResponseShape, backend.KindOf(err))
		})
	}
}

func TestProcessCancellationAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			t.Error("server never observed the abort")
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := newTestClient(srv.URL).Process(ctx, []byte("img"), "p")
	require.Error(t, err)
	assert.Equal(t, backend.ProcessingCancelled, backend.KindOf(err),
		"a deliberate abort must not be reported as a network failure")
}

func TestProcessMissingAPIKey(t *testing.T) {
	c := New("")
	_, err := c.Process(context.Background(), []byte("img"), "p")
	require.Error(t, err)
	assert.Equal(t, backend.UploadFailed, backend.KindOf(err))
}
