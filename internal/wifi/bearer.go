package wifi

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	activationTimeout  = 15 * time.Second
	ipv4PollTimeout    = 20 * time.Second
)

// Credentials is the bearer's view of a group's connection details,
// independent of any BLE-layer encryption that may later wrap them in
// a wire.P2pInfo.
type Credentials struct {
	SSID string
	PSK  string
	MAC  string
	Port int
}

// Bearer owns at most one live NetworkManager connection object at a
// time, created by either CreateGroup or Connect, and removed on
// Close.
type Bearer struct {
	client   *NmClient
	log      zerolog.Logger
	connPath dbus.ObjectPath // the added Settings.Connection, "" if none
}

// NewBearer dials NetworkManager's D-Bus service. The D-Bus client is
// optional: when dial fails, CreateGroup/Connect still work through
// the CLI/wpa_supplicant fallbacks, logging the D-Bus failure instead
// of propagating it.
func NewBearer(log zerolog.Logger) *Bearer {
	client, err := NewNmClient()
	if err != nil {
		log.Warn().Err(err).Msg("NetworkManager D-Bus unavailable, will rely on CLI/wpa_supplicant fallbacks")
		client = nil
	}
	return &Bearer{client: client, log: log}
}

// CreateGroup establishes a hotspot on iface and returns its
// credentials (sender role). Backends are tried in order: NM D-Bus,
// then wpa_supplicant's p2p_group_add.
func (b *Bearer) CreateGroup(ctx context.Context, iface string, port int, supports5GHz bool) (Credentials, error) {
	ssid, psk, err := NewGroupCredentials()
	if err != nil {
		return Credentials{}, err
	}
	mac := LocalMAC(iface)
	band := "bg"
	if supports5GHz {
		band = "a"
	}

	if b.client != nil {
		if err := b.createGroupViaDBus(ctx, iface, ssid, psk, band); err != nil {
			b.log.Warn().Err(err).Msg("NM D-Bus hotspot creation failed, falling back to wpa_supplicant")
		} else {
			return Credentials{SSID: ssid, PSK: psk, MAC: mac, Port: port}, nil
		}
	}

	if err := addGroupViaSupplicant(ctx, ssid, psk); err != nil {
		return Credentials{}, fmt.Errorf("wifi: create group: all backends failed: %w", err)
	}
	return Credentials{SSID: ssid, PSK: psk, MAC: mac, Port: port}, nil
}

func (b *Bearer) createGroupViaDBus(ctx context.Context, iface, ssid, psk, band string) error {
	dev, ok, err := b.client.FindDeviceByInterface(iface)
	if err != nil {
		return fmt.Errorf("find device %s: %w", iface, err)
	}
	if !ok {
		return fmt.Errorf("interface %s not managed by NetworkManager", iface)
	}

	settings := hotspotSettings(iface, ssid, psk, band)
	conn, active, err := b.client.AddAndActivateConnection(settings, dev)
	if err != nil {
		return err
	}
	b.connPath = conn

	if err := b.client.WaitForActivation(ctx, active, activationTimeout); err != nil {
		return err
	}
	return nil
}

// Connect joins a peer's hotspot (receiver role) and returns the
// locally assigned IPv4 address. Backends are tried in order: NM
// D-Bus infrastructure connection on the main Wi-Fi interface, NM
// D-Bus targeting a wifi-p2p device if one exists, then the nmcli CLI.
func (b *Bearer) Connect(ctx context.Context, iface string, creds Credentials) (string, error) {
	if b.client != nil {
		if addr, err := b.connectViaDBus(ctx, iface, creds, deviceTypeWifi); err == nil {
			return addr, nil
		} else {
			b.log.Warn().Err(err).Msg("NM D-Bus infrastructure join failed, trying wifi-p2p device")
		}
		if b.connPath != "" {
			if err := b.client.DeleteConnection(b.connPath); err != nil {
				b.log.Warn().Err(err).Str("connection", string(b.connPath)).Msg("failed to delete NetworkManager connection")
			}
			b.connPath = ""
		}

		if addr, err := b.connectViaDBus(ctx, iface, creds, deviceTypeWifiP2P); err == nil {
			return addr, nil
		} else {
			b.log.Warn().Err(err).Msg("NM D-Bus wifi-p2p join failed, falling back to nmcli")
		}
	}

	return joinViaCLI(ctx, iface, creds.SSID, creds.PSK, ipv4PollTimeout)
}

func (b *Bearer) connectViaDBus(ctx context.Context, iface string, creds Credentials, wantType uint32) (string, error) {
	var dev dbus.ObjectPath
	var ok bool
	var err error
	if wantType == deviceTypeWifi {
		dev, ok, err = b.client.FindDeviceByInterface(iface)
	} else {
		dev, ok, err = b.client.FindDeviceByType(wantType)
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no device of type %d available", wantType)
	}

	settings := infrastructureSettings(iface, creds.SSID, creds.PSK)
	conn, active, err := b.client.AddAndActivateConnection(settings, dev)
	if err != nil {
		return "", err
	}
	b.connPath = conn

	if err := b.client.WaitForActivation(ctx, active, activationTimeout); err != nil {
		return "", err
	}
	return b.client.IPv4Address(ctx, active, ipv4PollTimeout)
}

// Close removes the recorded connection, if any, and releases the
// D-Bus client. Both steps are best-effort: failures are logged, not
// returned, per the bearer's cleanup contract.
func (b *Bearer) Close() {
	if b.client != nil && b.connPath != "" {
		if err := b.client.DeleteConnection(b.connPath); err != nil {
			b.log.Warn().Err(err).Str("connection", string(b.connPath)).Msg("failed to delete NetworkManager connection")
		}
		b.connPath = ""
	}
	if b.client != nil {
		if err := b.client.Close(); err != nil {
			b.log.Warn().Err(err).Msg("failed to close NetworkManager D-Bus connection")
		}
	}
}
