package transfer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// FileEntry is one file offered by a sendRequest: a local path paired
// with the name it is announced under in SendRequest.FileName /
// recorded in the archive.
type FileEntry struct {
	Path string
	Name string
}

// archiveEntryName reproduces the reference container layout,
// "<index>/<file_name>", so a multi-file transfer cannot collide on
// basename and the receiver can recover declared order from the path.
func archiveEntryName(index int, name string) string {
	return strconv.Itoa(index) + "/" + filepath.Base(name)
}

// WriteZip streams files into w as an uncompressed (Stored) ZIP
// container, in order, without buffering the whole archive in memory.
// (DownloadAndExtract on the receiving side spools the complete archive
// to disk before extracting.) Returns the total number of bytes read
// from disk across all entries.
func WriteZip(w io.Writer, files []FileEntry) (uint64, error) {
	zw := zip.NewWriter(w)
	var total uint64

	for i, f := range files {
		n, err := writeZipEntry(zw, i, f)
		if err != nil {
			return total, err
		}
		total += n
	}

	if err := zw.Close(); err != nil {
		return total, fmt.Errorf("transfer: close zip writer: %w", err)
	}
	return total, nil
}

func writeZipEntry(zw *zip.Writer, index int, f FileEntry) (uint64, error) {
	src, err := os.Open(f.Path)
	if err != nil {
		return 0, fmt.Errorf("transfer: open %s: %w", f.Path, err)
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:   archiveEntryName(index, f.Name),
		Method: zip.Store,
	}
	dst, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("transfer: create zip entry %s: %w", header.Name, err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		return uint64(n), fmt.Errorf("transfer: write zip entry %s: %w", header.Name, err)
	}
	return uint64(n), nil
}

// ExtractZip reads a ZIP archive already downloaded to archivePath and
// writes each entry into outputDir, named by its basename (the
// "<index>/" prefix is stripped since order within the archive already
// preserves it). totalSize is the declared total from the matching
// SendRequest; sink receives a progress event after every entry.
func ExtractZip(archivePath, outputDir string, totalSize uint64, sink Sink) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("transfer: open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("transfer: create output dir %s: %w", outputDir, err)
	}

	var written uint64
	for _, entry := range r.File {
		n, err := extractEntry(entry, outputDir)
		written += n
		if err != nil {
			return err
		}
		if sink != nil {
			sink(ProgressEvent(written, totalSize))
		}
	}
	return nil
}

func extractEntry(entry *zip.File, outputDir string) (uint64, error) {
	name := filepath.Base(entry.Name)
	destPath := filepath.Join(outputDir, name)

	rc, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("transfer: open archive entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("transfer: create %s: %w", destPath, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, rc)
	if err != nil {
		return uint64(n), fmt.Errorf("transfer: write %s: %w", destPath, err)
	}
	return uint64(n), nil
}
