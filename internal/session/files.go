package session

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/Tinnci/cattysend/internal/transfer"
)

// buildFileEntries stats each path and returns the transfer.FileEntry
// list alongside the combined total size. The mime type is not derived
// here; the sender calls guessMimeType separately.
func buildFileEntries(paths []string) ([]transfer.FileEntry, uint64, error) {
	entries := make([]transfer.FileEntry, 0, len(paths))
	var total uint64

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, 0, fmt.Errorf("session: stat %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, 0, fmt.Errorf("session: %s is a directory, not a file", p)
		}
		entries = append(entries, transfer.FileEntry{Path: p, Name: filepath.Base(p)})
		total += uint64(info.Size())
	}
	return entries, total, nil
}

// guessMimeType returns the registered MIME type for name's extension,
// falling back to the generic octet-stream type the peer treats as
// "unknown but deliverable".
func guessMimeType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
