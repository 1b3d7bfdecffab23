package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocStoreFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("hello world"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# Notes"), 0o600))

	store := NewDocStore(dir)

	text, err := store.Fetch(context.Background(), "files/report")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	// Exact filename works too.
	text, err = store.Fetch(context.Background(), "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	text, err = store.Fetch(context.Background(), "files/notes")
	require.NoError(t, err)
	assert.Equal(t, "# Notes", text)
}

func TestDocStoreFetchMissing(t *testing.T) {
	store := NewDocStore(t.TempDir())

	_, err := store.Fetch(context.Background(), "files/nothing")
	assert.Error(t, err)
}

func TestDocStoreFetchInvalidID(t *testing.T) {
	store := NewDocStore(t.TempDir())

	_, err := store.Fetch(context.Background(), "")
	assert.Error(t, err)

	_, err = store.Fetch(context.Background(), "/")
	assert.Error(t, err)
}
