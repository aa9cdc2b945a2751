package transfer

import (
	"fmt"
	"io"
	"os"
)

// spoolToTemp copies r into a new temp file, reporting download
// progress via sink as bytes arrive. archive/zip needs random access
// (io.ReaderAt), which an HTTP response body cannot provide, so the
// archive is always spooled to disk before extraction begins.
func spoolToTemp(r io.Reader, totalSize uint64, sink Sink) (string, error) {
	tmp, err := os.CreateTemp("", "cattysend-download-*.zip")
	if err != nil {
		return "", fmt.Errorf("transfer: create temp archive: %w", err)
	}
	defer tmp.Close()

	cw := &countingWriter{w: tmp, total: totalSize, sink: sink}
	if _, err := io.Copy(cw, r); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("transfer: spool download: %w", err)
	}
	return tmp.Name(), nil
}

// countingWriter reports cumulative progress through sink, at most
// once per write, so a slow link still yields incremental events
// instead of one event at the very end.
type countingWriter struct {
	w       io.Writer
	written uint64
	total   uint64
	sink    Sink
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.written += uint64(n)
	if c.sink != nil {
		c.sink(ProgressEvent(c.written, c.total))
	}
	return n, err
}
