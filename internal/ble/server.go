package ble

import (
	"encoding/json"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	cryptoctx "github.com/Tinnci/cattysend/internal/crypto"
	"github.com/Tinnci/cattysend/internal/wire"
)

// P2pReceiveEvent is emitted once per accepted write to the P2P
// characteristic.
type P2pReceiveEvent struct {
	Info            wire.P2pInfo
	SenderPublicKey *string // Base64 SPKI, set only when Info arrived encrypted
}

// Server publishes the status/P2P GATT service. Crypto is optional: if
// set, an incoming P2pInfo with Key present is decrypted in place
// before the event is emitted.
type Server struct {
	adapter *bluetooth.Adapter
	crypto  *ServerCrypto

	mu       sync.RWMutex
	deviceMAC string
	publicKey *string

	events chan P2pReceiveEvent
	guard  *spamGuard
}

// ServerCrypto holds the key material a server uses to decrypt incoming
// P2pInfo writes. Generating it is the orchestrator's job (C1); the
// server runs the key agreement itself, against the sender public key
// carried in each encrypted write.
type ServerCrypto struct {
	KeyPair      cryptoctx.KeyPair
	PublicKeyB64 string
}

// NewServer builds a Server bound to adapter. deviceMAC is the value
// advertised in DeviceInfo.mac; crypto may be nil when pairing is not
// required (plaintext P2pInfo only).
func NewServer(adapter *bluetooth.Adapter, deviceMAC string, crypto *ServerCrypto) *Server {
	s := &Server{
		adapter:   adapter,
		crypto:    crypto,
		deviceMAC: deviceMAC,
		events:    make(chan P2pReceiveEvent, 4),
		guard:     newSpamGuard(),
	}
	if crypto != nil {
		s.publicKey = &crypto.PublicKeyB64
	}
	return s
}

// Events returns the channel P2pReceiveEvent values are delivered on.
// The orchestrator owns draining it.
func (s *Server) Events() <-chan P2pReceiveEvent { return s.events }

// Start publishes the GATT service. Receiver.Start calls it after the
// advertiser has been started.
func (s *Server) Start() error {
	statusChar := bluetooth.CharacteristicConfig{
		UUID:  StatusCharUUID,
		Flags: bluetooth.CharacteristicReadPermission,
		Handler: func(client bluetooth.Connection, offset int, value []byte) []byte {
			payload := s.statusPayload()
			if offset >= len(payload) {
				return nil
			}
			return payload[offset:]
		},
	}

	p2pChar := bluetooth.CharacteristicConfig{
		UUID:  P2PCharUUID,
		Flags: bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
		WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
			s.handleP2PWrite(client, value)
		},
	}

	return s.adapter.AddService(&bluetooth.Service{
		UUID:            ServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{statusChar, p2pChar},
	})
}

func (s *Server) statusPayload() []byte {
	s.mu.RLock()
	info := wire.NewDeviceInfo(s.deviceMAC, s.publicKey)
	s.mu.RUnlock()

	raw, err := json.Marshal(info)
	if err != nil {
		// DeviceInfo's fields are all plain strings/ints; marshalling
		// cannot fail.
		panic(fmt.Sprintf("ble: marshal DeviceInfo: %v", err))
	}
	return raw
}

func (s *Server) handleP2PWrite(client bluetooth.Connection, value []byte) {
	addr := client.String()
	if !s.guard.Allow(addr) {
		return
	}

	var info wire.P2pInfo
	if err := json.Unmarshal(value, &info); err != nil {
		return
	}

	event := P2pReceiveEvent{Info: info}

	if info.Key != nil && s.crypto != nil {
		sessionKey, err := cryptoctx.Agree(s.crypto.KeyPair, *info.Key)
		if err == nil {
			if ssid, decErr := cryptoctx.Decrypt(sessionKey, info.SSID); decErr == nil {
				info.SSID = ssid
			}
			if psk, decErr := cryptoctx.Decrypt(sessionKey, info.PSK); decErr == nil {
				info.PSK = psk
			}
			if mac, decErr := cryptoctx.Decrypt(sessionKey, info.MAC); decErr == nil {
				info.MAC = mac
			}
			event.SenderPublicKey = info.Key
			info.Key = nil
			event.Info = info
		}
	}

	select {
	case s.events <- event:
	default:
		// A slow consumer drops the oldest-pending event rather than
		// blocking the BLE stack's callback goroutine.
		select {
		case <-s.events:
		default:
		}
		s.events <- event
	}
}
