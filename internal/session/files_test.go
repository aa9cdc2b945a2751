package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFileEntriesComputesTotalSize(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.txt")
	p2 := filepath.Join(dir, "two.txt")
	require.NoError(t, os.WriteFile(p1, []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("1234567890"), 0o644))

	entries, total, err := buildFileEntries([]string{p1, p2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "one.txt", entries[0].Name)
	require.Equal(t, uint64(15), total)
}

func TestBuildFileEntriesRejectsDirectories(t *testing.T) {
	dir := t.TempDir()
	_, _, err := buildFileEntries([]string{dir})
	require.Error(t, err)
}

func TestBuildFileEntriesRejectsMissingFile(t *testing.T) {
	_, _, err := buildFileEntries([]string{"/no/such/file-xyz"})
	require.Error(t, err)
}

func TestGuessMimeTypeFallsBackToOctetStream(t *testing.T) {
	require.Equal(t, "application/octet-stream", guessMimeType("no-extension"))
}

func TestGuessMimeTypeResolvesKnownExtension(t *testing.T) {
	require.Equal(t, "text/plain; charset=utf-8", guessMimeType("notes.txt"))
}
