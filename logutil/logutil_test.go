package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "********", RedactKey(""))
	assert.Equal(t, "********", RedactKey("short"))
	assert.Equal(t, "********", RedactKey("12345678"))
	assert.Equal(t, "AIza...wxyz", RedactKey("AIzaSyBfakekeymaterialwxyz"))
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "vista_debug.log.1", archiveName(1))
	assert.Equal(t, "vista_debug.log.3", archiveName(3))
}
