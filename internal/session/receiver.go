package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"

	"github.com/Tinnci/cattysend/internal/advert"
	"github.com/Tinnci/cattysend/internal/ble"
	"github.com/Tinnci/cattysend/internal/brand"
	"github.com/Tinnci/cattysend/internal/config"
	cryptoctx "github.com/Tinnci/cattysend/internal/crypto"
	"github.com/Tinnci/cattysend/internal/transfer"
	"github.com/Tinnci/cattysend/internal/wifi"
)

// discoveryTimeout bounds the whole Start workflow, from advertising
// through waiting for a P2pReceiveEvent to the end of the download.
const discoveryTimeout = transferDeadline

// Receiver drives the start workflow: advertise over BLE, accept one
// invitation, join the advertised Wi-Fi group, then pull and extract
// the offered files over the control+download channel the sender's
// transport server exposes.
type Receiver struct {
	settings config.Settings
	log      zerolog.Logger
	adapter  *bluetooth.Adapter
}

// NewReceiver builds a Receiver bound to the host's default BLE
// adapter.
func NewReceiver(settings config.Settings, log zerolog.Logger) *Receiver {
	return &Receiver{settings: settings, log: log, adapter: bluetooth.DefaultAdapter}
}

// Start blocks until one transfer completes, is rejected by policy, or
// fails, or the overall deadline elapses; sink receives progress
// throughout.
func (r *Receiver) Start(ctx context.Context, sink Sink) error {
	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	localMAC := wifi.LocalMAC(r.settings.WifiInterface)

	kp, localPubB64, err := cryptoctx.New()
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	server := ble.NewServer(r.adapter, localMAC, &ble.ServerCrypto{KeyPair: kp, PublicKeyB64: localPubB64})

	sink.emit(statusEvent("advertising"))
	advertiser := ble.NewAdvertiser(r.adapter, r.log)
	b := brand.FromID(r.settings.BrandID)
	advPayload, scanResp, err := advert.Build(b, r.settings.Supports5GHz, newSenderID(), r.settings.DeviceName)
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}
	if err := advertiser.Start(r.settings.DeviceName, advPayload, scanResp); err != nil {
		sink.emit(errorEvent(err))
		return err
	}
	defer advertiser.Stop()

	if err := server.Start(); err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	sink.emit(statusEvent("waiting for sender"))
	event, err := r.awaitInvitation(ctx, server)
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}
	if err := advertiser.Stop(); err != nil {
		r.log.Warn().Err(err).Msg("failed to stop advertiser after pairing")
	}

	sink.emit(statusEvent("joining wifi group"))
	bearer := wifi.NewBearer(r.log)
	defer bearer.Close()

	localIP, err := bearer.Connect(ctx, r.settings.WifiInterface, wifi.Credentials{
		SSID: event.Info.SSID,
		PSK:  event.Info.PSK,
		MAC:  event.Info.MAC,
		Port: event.Info.Port,
	})
	if err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	// The mac field normally carries the sender's hardware address; it is
	// used as the server address only when it holds an IP literal.
	serverIP := event.Info.MAC
	if net.ParseIP(serverIP) == nil {
		serverIP = wifi.GatewayIP(localIP)
	}

	sink.emit(statusEvent("connecting to sender"))
	if err := r.runTransfer(ctx, serverIP, event.Info.Port, sink); err != nil {
		sink.emit(errorEvent(err))
		return err
	}

	sink.emit(completeEvent())
	return nil
}

func (r *Receiver) awaitInvitation(ctx context.Context, server *ble.Server) (ble.P2pReceiveEvent, error) {
	select {
	case event := <-server.Events():
		return event, nil
	case <-ctx.Done():
		return ble.P2pReceiveEvent{}, fmt.Errorf("session: timed out waiting for an invitation: %w", ctx.Err())
	}
}

// runTransfer dials the sender's control channel, drives the receiver
// state machine, and downloads/extracts once a sendRequest is
// accepted.
func (r *Receiver) runTransfer(ctx context.Context, serverIP string, port int, sink Sink) error {
	wsURL := fmt.Sprintf("wss://%s:%d/websocket", serverIP, port)
	conn, err := transfer.Dial(wsURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	fsm := transfer.NewReceiverFSM(r.acceptPolicy())

	for fsm.State() != transfer.StateDownloading {
		msg, err := conn.Receive()
		if err != nil {
			fsm.Fail()
			return fmt.Errorf("session: control channel: %w", err)
		}
		replies, err := fsm.Step(msg)
		if err != nil {
			fsm.Fail()
			return err
		}
		for _, reply := range replies {
			if err := conn.Send(reply); err != nil {
				fsm.Fail()
				return err
			}
		}
		if fsm.State().IsTerminal() {
			return fmt.Errorf("session: transfer ended before downloading: %s", fsm.State())
		}
	}

	sink.emit(statusEvent("downloading"))
	downloadURL := fmt.Sprintf("https://%s:%d/download?taskId=%s", serverIP, port, fsm.TaskID)
	outputDir := r.settings.DownloadDir

	progressSink := func(e transfer.Event) { sink.emit(progressEvent(e.Sent, e.Total)) }
	if err := transfer.DownloadAndExtract(ctx, downloadURL, outputDir, fsm.Accepted.TotalSize, progressSink); err != nil {
		fsm.Fail()
		return err
	}

	status := fsm.CompleteDownload()
	return conn.Send(status)
}

// acceptPolicy always accepts: interactive confirmation belongs to
// whatever UI eventually sits above this orchestrator, which this
// package does not implement. AutoAccept in Settings only matters once
// such a UI exists to consult; until then every invitation is taken.
func (r *Receiver) acceptPolicy() transfer.AcceptPolicy {
	return transfer.AcceptAll
}

// newSenderID generates the two random "sender id" bytes the
// advertisement's service-data TLV carries, fresh per advertising
// session.
func newSenderID() [2]byte {
	var id [2]byte
	_, _ = rand.Read(id[:])
	return id
}
