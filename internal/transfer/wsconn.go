package transfer

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tinnci/cattysend/internal/wire"
)

// Conn wraps a gorilla/websocket.Conn to exchange wire.Message frames
// as text messages, one "kind:id:name[?payload]" message per frame,
// matching the reference peer's framing.
type Conn struct {
	ws *websocket.Conn
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Accept upgrades an incoming HTTP request to a control-channel
// WebSocket connection (sender role: DownloadServer accepts the
// receiver's dial).
func Accept(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("transfer: upgrade websocket: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// dialer never verifies the peer's ephemeral self-signed certificate:
// there is no CA to check it against, matching insecureTransferClient's
// rationale for the bulk-download HTTPS leg.
var dialer = &websocket.Dialer{
	TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // see comment
}

// Dial opens the control channel as a client (the receiver device
// dials into the sender's listening socket, per spec).
func Dial(url string) (*Conn, error) {
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transfer: dial websocket %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes msg as a single text frame.
func (c *Conn) Send(msg wire.Message) error {
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(msg.String())); err != nil {
		return fmt.Errorf("transfer: send %s:%d:%s: %w", msg.Kind, msg.ID, msg.Name, err)
	}
	return nil
}

// Receive blocks for the next control frame. It returns an error
// wrapping the underlying close/read failure when the peer hangs up.
func (c *Conn) Receive() (wire.Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return wire.Message{}, fmt.Errorf("transfer: receive: %w", err)
	}
	msg, ok := wire.Parse(string(data))
	if !ok {
		return wire.Message{}, fmt.Errorf("transfer: malformed control frame %q", string(data))
	}
	return msg, nil
}

// SetDeadline applies a read/write deadline to the underlying socket,
// used by callers enforcing the session-level wall-clock budget.
func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.ws.Close()
}
