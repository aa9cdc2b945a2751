package transfer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tinnci/cattysend/internal/wire"
)

// generateSelfSignedCert produces a fresh, throwaway P-256 certificate
// good for one session. The receiver does not verify it at all (see
// insecureTransferClient), so the cert's only job is to
// make the transport opaque to casual local-network observers: there
// is no certificate authority to hand it to, and re-using a previous
// session's key would needlessly widen what a compromise exposes.
func generateSelfSignedCert() (tls.Certificate, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transfer: generate tls key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transfer: generate tls serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "cattysend-transfer"},
		NotBefore:             time.Now().Add(-5 * time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transfer: create tls certificate: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}, nil
}

// DownloadServer is the sender-side transfer endpoint: it serves the
// WebSocket control channel (driving version negotiation and the
// sendRequest offer) and the HTTPS bulk-download route streaming a
// Stored (uncompressed) ZIP of the offered files. It is bound to an
// ephemeral port and torn down once the transfer finishes or fails.
type DownloadServer struct {
	taskID  string
	files   []FileEntry
	sendReq wire.SendRequest
	log     zerolog.Logger

	listener net.Listener
	srv      *http.Server
	done     chan error
}

// NewDownloadServer prepares a server for taskID; it does not bind a
// socket until Start is called. sendReq is the offer presented to
// whichever receiver connects to /websocket.
func NewDownloadServer(taskID string, files []FileEntry, sendReq wire.SendRequest, log zerolog.Logger) *DownloadServer {
	return &DownloadServer{taskID: taskID, files: files, sendReq: sendReq, log: log, done: make(chan error, 1)}
}

// Start binds an ephemeral TCP port, begins serving TLS in the
// background, and returns the bound port.
func (s *DownloadServer) Start() (int, error) {
	cert, err := generateSelfSignedCert()
	if err != nil {
		return 0, err
	}

	ln, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		return 0, fmt.Errorf("transfer: bind download listener: %w", err)
	}
	tlsLn := tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}})
	s.listener = tlsLn

	mux := http.NewServeMux()
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/websocket", s.handleWebsocket)
	s.srv = &http.Server{Handler: mux}

	go func() {
		if err := s.srv.Serve(tlsLn); err != nil && err != http.ErrServerClosed {
			s.log.Warn().Err(err).Msg("download server stopped")
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, nil
}

func (s *DownloadServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("taskId")
	if taskID != s.taskID {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.WriteHeader(http.StatusOK)

	if _, err := WriteZip(w, s.files); err != nil {
		s.log.Warn().Err(err).Str("taskId", taskID).Msg("download stream failed")
	}
}

// handleWebsocket drives the sender's half of the control exchange:
// negotiate the version, offer sendReq, then wait for the receiver's
// terminal status frame (sent once it finishes or gives up on the
// HTTPS download). The result is reported through s.done so
// WaitForCompletion can block on it.
func (s *DownloadServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := Accept(w, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := s.runControlExchange(conn); err != nil {
		select {
		case s.done <- err:
		default:
		}
		return
	}
}

func (s *DownloadServer) runControlExchange(conn *Conn) error {
	if err := conn.Send(wire.VersionNegotiation(1)); err != nil {
		return err
	}
	if _, err := conn.Receive(); err != nil {
		return fmt.Errorf("transfer: version negotiation ack: %w", err)
	}

	sendMsg, err := wire.Action(2, "sendRequest", s.sendReq)
	if err != nil {
		return err
	}
	if err := conn.Send(sendMsg); err != nil {
		return err
	}
	ack, err := conn.Receive()
	if err != nil {
		return fmt.Errorf("transfer: sendRequest ack: %w", err)
	}
	if ack.Name == "status" {
		s.done <- fmt.Errorf("transfer: receiver rejected the offer")
		return nil
	}

	status, err := conn.Receive()
	if err != nil {
		return fmt.Errorf("transfer: waiting for final status: %w", err)
	}
	var payload struct {
		Type int `json:"type"`
	}
	if err := json.Unmarshal(status.Payload, &payload); err != nil {
		return fmt.Errorf("transfer: decode final status: %w", err)
	}
	if payload.Type == wire.StatusOK {
		s.done <- nil
	} else {
		s.done <- fmt.Errorf("transfer: receiver reported failure status %d", payload.Type)
	}
	return nil
}

// WaitForCompletion blocks until the control exchange reports a
// terminal outcome or ctx is done.
func (s *DownloadServer) WaitForCompletion(ctx context.Context) error {
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting new connections and waits up to ctx's
// deadline for in-flight requests to finish.
func (s *DownloadServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// insecureTransferClient never verifies the ephemeral self-signed
// certificate generated by generateSelfSignedCert: there is no CA to
// check it against, and trust in the connection comes from having
// already negotiated it over the authenticated BLE/WebSocket control
// channel, not from certificate validation.
var insecureTransferClient = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // see doc comment
	},
}

// DownloadAndExtract fetches the archive at url, writes it to a temp
// file while reporting download progress, then extracts it into
// outputDir and reports per-entry extraction progress. totalSize is
// the declared total from the matching SendRequest.
func DownloadAndExtract(ctx context.Context, url, outputDir string, totalSize uint64, sink Sink) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("transfer: build download request: %w", err)
	}

	resp, err := insecureTransferClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer: download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transfer: download %s: unexpected status %d", url, resp.StatusCode)
	}

	archivePath, err := spoolToTemp(resp.Body, totalSize, sink)
	if err != nil {
		return err
	}

	return ExtractZip(archivePath, outputDir, totalSize, sink)
}
