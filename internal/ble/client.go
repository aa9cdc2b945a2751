package ble

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"

	cryptoctx "github.com/Tinnci/cattysend/internal/crypto"
	"github.com/Tinnci/cattysend/internal/wire"
)

const defaultHandshakeTimeout = 15 * time.Second

// ConnectAndHandshake connects to address, reads its DeviceInfo, and
// writes back local's P2pInfo (encrypted if the peer advertised a
// public key), then disconnects. It returns the peer's parsed
// DeviceInfo. No retry is attempted at this layer; the caller decides
// recovery on error.
func ConnectAndHandshake(ctx context.Context, adapter *bluetooth.Adapter, address bluetooth.Address, local wire.P2pInfo) (wire.DeviceInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultHandshakeTimeout)
	defer cancel()

	device, err := adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: connect: %w", err)
	}
	defer device.Disconnect()

	services, err := device.DiscoverServices([]bluetooth.UUID{ServiceUUID})
	if err != nil || len(services) == 0 {
		return wire.DeviceInfo{}, fmt.Errorf("ble: discover service: %w", firstErr(err, errNotFound))
	}
	service := services[0]

	chars, err := service.DiscoverCharacteristics([]bluetooth.UUID{StatusCharUUID, P2PCharUUID})
	if err != nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: discover characteristics: %w", err)
	}

	var statusChar, p2pChar *bluetooth.DeviceCharacteristic
	for i := range chars {
		switch chars[i].UUID() {
		case StatusCharUUID:
			statusChar = &chars[i]
		case P2PCharUUID:
			p2pChar = &chars[i]
		}
	}
	if statusChar == nil || p2pChar == nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: %w: status or p2p characteristic missing", errNotFound)
	}

	buf := make([]byte, 512)
	n, err := statusChar.Read(buf)
	if err != nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: read status characteristic: %w", err)
	}

	var peerInfo wire.DeviceInfo
	if err := json.Unmarshal(buf[:n], &peerInfo); err != nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: %w: decode DeviceInfo: %v", errProtocol, err)
	}

	outgoing := local
	if peerInfo.Key != nil {
		outgoing, err = encryptP2pInfo(local, *peerInfo.Key)
		if err != nil {
			return wire.DeviceInfo{}, fmt.Errorf("ble: %w: %v", errProtocol, err)
		}
	}

	payload, err := json.Marshal(outgoing)
	if err != nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: marshal P2pInfo: %w", err)
	}
	if _, err := p2pChar.WriteWithoutResponse(payload); err != nil {
		return wire.DeviceInfo{}, fmt.Errorf("ble: write p2p characteristic: %w", err)
	}

	return peerInfo, nil
}

// encryptP2pInfo generates a fresh ephemeral key pair, agrees with
// peerPublicB64, and returns a copy of info with SSID/PSK/MAC replaced
// by their AES-256-CTR ciphertexts and Key set to the local public key.
func encryptP2pInfo(info wire.P2pInfo, peerPublicB64 string) (wire.P2pInfo, error) {
	kp, localPub, err := cryptoctx.New()
	if err != nil {
		return wire.P2pInfo{}, fmt.Errorf("generate ephemeral key: %w", err)
	}
	sessionKey, err := cryptoctx.Agree(kp, peerPublicB64)
	if err != nil {
		return wire.P2pInfo{}, fmt.Errorf("agree: %w", err)
	}

	ssid, err := cryptoctx.Encrypt(sessionKey, info.SSID)
	if err != nil {
		return wire.P2pInfo{}, err
	}
	psk, err := cryptoctx.Encrypt(sessionKey, info.PSK)
	if err != nil {
		return wire.P2pInfo{}, err
	}
	mac, err := cryptoctx.Encrypt(sessionKey, info.MAC)
	if err != nil {
		return wire.P2pInfo{}, err
	}

	out := info
	out.SSID, out.PSK, out.MAC = ssid, psk, mac
	out.Key = &localPub
	return out, nil
}
