package transfer

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Tinnci/cattysend/internal/wire"
)

func TestGenerateSelfSignedCertProducesUsableCertificate(t *testing.T) {
	cert, err := generateSelfSignedCert()
	require.NoError(t, err)
	require.NotEmpty(t, cert.Certificate)
	require.NotNil(t, cert.PrivateKey)
}

func TestHandleDownloadRejectsWrongTaskID(t *testing.T) {
	s := NewDownloadServer("expected-task", nil, wire.SendRequest{}, zerolog.Nop())

	req := httptest.NewRequest("GET", "/download?taskId=wrong-task", nil)
	rec := httptest.NewRecorder()
	s.handleDownload(rec, req)

	require.Equal(t, 404, rec.Code)
}

func TestHandleDownloadStreamsZipForMatchingTaskID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	s := NewDownloadServer("my-task", []FileEntry{{Path: path, Name: "a.txt"}}, wire.SendRequest{}, zerolog.Nop())

	req := httptest.NewRequest("GET", "/download?taskId=my-task", nil)
	rec := httptest.NewRecorder()
	s.handleDownload(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())
}
