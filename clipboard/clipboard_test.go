package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCommits swaps the commit paths for one test and records what got
// written where.
type stubCommits struct {
	richClass string
	richText  string
	richErr   error
	richCalls int

	plainText  string
	plainCalls int
}

func (s *stubCommits) install(t *testing.T) {
	t.Helper()
	origRich, origPlain := richCommit, plainCommit
	richCommit = func(class, text string) error {
		s.richCalls++
		s.richClass = class
		s.richText = text
		return s.richErr
	}
	plainCommit = func(text string) {
		s.plainCalls++
		s.plainText = text
	}
	t.Cleanup(func() {
		richCommit, plainCommit = origRich, origPlain
	})
}

func TestRichClassesCoverRichFormatsOnly(t *testing.T) {
	class, ok := richClasses["html"]
	assert.True(t, ok)
	assert.Equal(t, "HTML", class)

	class, ok = richClasses["rtf"]
	assert.True(t, ok)
	assert.Equal(t, "RTF ", class, "pasteboard type codes are exactly four characters")

	for _, plainOnly := range []string{"plain_text", "markdown", "json", "latex", "xml", ""} {
		_, ok := richClasses[plainOnly]
		assert.False(t, ok, "format %q must be carried as plain text only", plainOnly)
	}
}

func TestRichFormatCommitsSingleRichWrite(t *testing.T) {
	s := &stubCommits{}
	s.install(t)

	require.NoError(t, Write("<b>hi</b>", "html"))

	assert.Equal(t, 1, s.richCalls)
	assert.Equal(t, "HTML", s.richClass)
	assert.Equal(t, "<b>hi</b>", s.richText, "the rich commit carries the text for both representations")
	assert.Zero(t, s.plainCalls, "the rich commit already includes the plain entry")
}

func TestRichWriteFailureFallsBackToPlain(t *testing.T) {
	s := &stubCommits{richErr: errors.New("osascript missing")}
	s.install(t)

	require.NoError(t, Write("body text", "rtf"))

	assert.Equal(t, 1, s.richCalls)
	assert.Equal(t, "RTF ", s.richClass)
	assert.Equal(t, 1, s.plainCalls)
	assert.Equal(t, "body text", s.plainText, "plain text is never skipped")
}

func TestPlainFormatNeverTouchesRichPath(t *testing.T) {
	s := &stubCommits{}
	s.install(t)

	require.NoError(t, Write("plain body", "plain_text"))

	assert.Zero(t, s.richCalls)
	assert.Equal(t, 1, s.plainCalls)
	assert.Equal(t, "plain body", s.plainText)
}
