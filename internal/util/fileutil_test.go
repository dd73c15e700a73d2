package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "dir", "file.txt")

	require.NoError(t, AtomicWrite(dst, strings.NewReader("hello")))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	// No temp file left behind.
	_, err = os.Stat(dst + ".sitemirror.tmp")
	assert.True(t, os.IsNotExist(err))

	// Overwrite replaces content.
	require.NoError(t, AtomicWrite(dst, strings.NewReader("bye")))
	b, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "bye", string(b))
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.NoError(t, RemoveIfExists(path))
	assert.NoError(t, RemoveIfExists(path))
}
