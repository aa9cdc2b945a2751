package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"

	"github.com/Tinnci/cattysend/internal/advert"
	"github.com/Tinnci/cattysend/internal/ble"
	"github.com/Tinnci/cattysend/internal/config"
	"github.com/Tinnci/cattysend/internal/transfer"
	"github.com/Tinnci/cattysend/internal/wifi"
	"github.com/Tinnci/cattysend/internal/wire"
)

// transferDeadline bounds a whole send/receive from the sender's
// perspective, per spec's "5-minute wall-clock deadline".
const transferDeadline = 5 * time.Minute

// Sender drives the send_to_device workflow: bring up a transport
// server and a Wi-Fi group, hand the receiver a BLE-delivered
// invitation, then wait for the receiver to negotiate, download, and
// report completion over the control channel the transport server
// itself drives.
type Sender struct {
	settings config.Settings
	log      zerolog.Logger
	adapter  *bluetooth.Adapter
}

// NewSender builds a Sender bound to the host's default BLE adapter.
func NewSender(settings config.Settings, log zerolog.Logger) *Sender {
	return &Sender{settings: settings, log: log, adapter: bluetooth.DefaultAdapter}
}

// SendToDevice offers filePaths to target over BLE pairing plus a
// Wi-Fi Direct/hotspot bulk transport, reporting progress through
// sink. It blocks until the transfer reaches a terminal state or the
// overall deadline elapses. Every resource acquired along the way —
// the transport server, the Wi-Fi group — is released before
// returning, on every exit path.
func (s *Sender) SendToDevice(ctx context.Context, target advert.DiscoveredDevice, filePaths []string, sink Sink) error {
	ctx, cancel := context.WithTimeout(ctx, transferDeadline)
	defer cancel()

	sink.emit(statusEvent("preparing files"))
	files, totalSize, err := buildFileEntries(filePaths)
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}
	if len(files) == 0 {
		err := fmt.Errorf("session: no files to send")
		sink.emit(errorEvent(err))
		return err
	}

	taskID := uuid.NewString()
	sendReq := wire.SendRequest{
		TaskID:     strPtr2(taskID),
		SenderName: s.settings.DeviceName,
		FileName:   files[0].Name,
		MimeType:   guessMimeType(files[0].Name),
		FileCount:  uint32(len(files)),
		TotalSize:  totalSize,
	}

	transferSrv := transfer.NewDownloadServer(taskID, files, sendReq, s.log)
	port, err := transferSrv.Start()
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := transferSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			s.log.Warn().Err(shutdownErr).Msg("transport server shutdown failed")
		}
	}()

	sink.emit(statusEvent("creating wifi group"))
	bearer := wifi.NewBearer(s.log)
	defer bearer.Close()

	creds, err := bearer.CreateGroup(ctx, s.settings.WifiInterface, port, s.settings.Supports5GHz)
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	sink.emit(statusEvent("pairing over bluetooth"))
	localP2p := wire.P2pInfo{
		SSID:     creds.SSID,
		PSK:      creds.PSK,
		MAC:      creds.MAC,
		Port:     creds.Port,
		CatShare: intPtr(wire.CatShareVersion),
	}

	address, err := parseAddress(target.Address)
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	// ConnectAndHandshake sends an encrypted copy of localP2p (generating its own
	// ephemeral key pair) whenever the peer's DeviceInfo advertises a
	// public key; plaintext is sent otherwise. The sender never needs
	// its own long-lived key pair for this direction.
	if _, err := ble.ConnectAndHandshake(ctx, s.adapter, address, localP2p); err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	sink.emit(statusEvent("waiting for receiver"))
	sink.emit(progressEvent(0, totalSize))
	if err := transferSrv.WaitForCompletion(ctx); err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	sink.emit(progressEvent(totalSize, totalSize))
	sink.emit(completeEvent())
	return nil
}

func parseAddress(mac string) (bluetooth.Address, error) {
	parsed, err := bluetooth.ParseMAC(mac)
	if err != nil {
		return bluetooth.Address{}, fmt.Errorf("session: parse address %s: %w", mac, err)
	}
	return bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: parsed}}, nil
}

func intPtr(i int) *int        { return &i }
func strPtr2(s string) *string { return &s }
