package transfer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteZipThenExtractZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.txt")
	path2 := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(path1, []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(path2, []byte{0x01, 0x02, 0x03, 0x04}, 0o644))

	files := []FileEntry{
		{Path: path1, Name: "a.txt"},
		{Path: path2, Name: "b.bin"},
	}

	var buf bytes.Buffer
	total, err := WriteZip(&buf, files)
	require.NoError(t, err)
	require.Equal(t, uint64(len("hello world")+4), total)

	archivePath := filepath.Join(dir, "out.zip")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))

	var events []Event
	outDir := filepath.Join(dir, "extracted")
	err = ExtractZip(archivePath, outDir, total, func(e Event) { events = append(events, e) })
	require.NoError(t, err)

	gotA, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(gotA))

	gotB, err := os.ReadFile(filepath.Join(outDir, "b.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, gotB)

	require.Len(t, events, 2)
	require.Equal(t, total, events[len(events)-1].Sent)
}

func TestArchiveEntryNamePrefixesIndex(t *testing.T) {
	require.Equal(t, "0/photo.jpg", archiveEntryName(0, "photo.jpg"))
	require.Equal(t, "3/nested.txt", archiveEntryName(3, "/tmp/some/nested.txt"))
}
