//go:build linux

package ble

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// BlueZ management-socket constants (mgmt-api.txt). golang.org/x/sys
// does not expose these as named constants, so they are pinned here
// the way low-level HCI tooling on Linux conventionally does.
const (
	hciDevNone        = 0xffff
	mgmtOpAddAdvertising    = 0x003e
	mgmtOpRemoveAdvertising = 0x003f
	advertisingInstance     = 1

	// advFlagConnectable, advFlagDiscoverable, and advFlagAddFlagsField
	// are the only bits this advertiser ever sets. Any secondary-channel
	// bit (LE 1M/2M/Coded, bits 7-9) silently promotes the request to
	// Extended Advertising, which the reference peer's legacy GAP
	// scanner cannot decode — so those bits must never appear here.
	advFlagConnectable    = 1 << 0
	advFlagDiscoverable   = 1 << 1
	advFlagAddFlagsField  = 1 << 3
)

var rawAdvertisingFlags uint32 = advFlagConnectable | advFlagDiscoverable | advFlagAddFlagsField

// mgmtHeader is the 6-byte header prefixing every BlueZ management
// command sent over the HCI_CHANNEL_CONTROL socket.
type mgmtHeader struct {
	opcode uint16
	index  uint16
	length uint16
}

func (h mgmtHeader) marshal() []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:2], h.opcode)
	binary.LittleEndian.PutUint16(buf[2:4], h.index)
	binary.LittleEndian.PutUint16(buf[4:6], h.length)
	return buf
}

var rawSocketFD = -1

// startRawAdvertising sends an Add Advertising management command over
// a raw HCI control socket. It requires CAP_NET_ADMIN (or root); when
// that privilege is unavailable the socket open itself fails and the
// caller falls back to the high-level advertisement API.
func startRawAdvertising(adv, scanResp []byte) error {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW, unix.BTPROTO_HCI)
	if err != nil {
		return fmt.Errorf("ble: open HCI control socket: %w", err)
	}

	sa := &unix.SockaddrHCI{Dev: hciDevNone, Channel: unix.HCI_CHANNEL_CONTROL}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("ble: bind HCI control socket: %w", err)
	}

	cmd := buildAddAdvertisingCommand(adv, scanResp)
	if _, err := unix.Write(fd, cmd); err != nil {
		unix.Close(fd)
		return fmt.Errorf("ble: write Add Advertising command: %w", err)
	}

	rawSocketFD = fd
	return nil
}

// buildAddAdvertisingCommand serializes the mgmt_cp_add_advertising
// request: instance, flags, duration, timeout, then the adv/scan-resp
// payloads each prefixed by their own length byte.
func buildAddAdvertisingCommand(adv, scanResp []byte) []byte {
	body := make([]byte, 0, 11+len(adv)+len(scanResp))
	body = append(body, advertisingInstance)
	flagBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(flagBuf, rawAdvertisingFlags)
	body = append(body, flagBuf...)
	body = append(body, 0x00, 0x00) // duration: use controller default
	body = append(body, 0x00, 0x00) // timeout: no expiry
	body = append(body, byte(len(adv)))
	body = append(body, byte(len(scanResp)))
	body = append(body, adv...)
	body = append(body, scanResp...)

	header := mgmtHeader{opcode: mgmtOpAddAdvertising, index: hciDevNone, length: uint16(len(body))}
	return append(header.marshal(), body...)
}

// stopRawAdvertising removes the advertising instance and closes the
// control socket.
func stopRawAdvertising() error {
	if rawSocketFD < 0 {
		return nil
	}
	defer func() {
		unix.Close(rawSocketFD)
		rawSocketFD = -1
	}()

	header := mgmtHeader{opcode: mgmtOpRemoveAdvertising, index: hciDevNone, length: 1}
	cmd := append(header.marshal(), advertisingInstance)
	if _, err := unix.Write(rawSocketFD, cmd); err != nil {
		return fmt.Errorf("ble: write Remove Advertising command: %w", err)
	}
	return nil
}
