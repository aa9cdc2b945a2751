// Package advert encodes and decodes the legacy BLE advertising and
// scan-response payloads the reference peer scans for: a 31-byte
// primary TLV packet advertising discoverability and a brand/Wi-Fi
// capability hint, plus a separate scan-response TLV carrying the
// device's display name.
package advert

import (
	"errors"
	"unicode/utf8"

	"github.com/Tinnci/cattysend/internal/brand"
)

// TLV type octets used by this codec, named per the Bluetooth Core
// Specification Supplement (CSS) Generic Access Profile assigned
// numbers.
const (
	typeFlags        = 0x01
	typeCompleteUUID16 = 0x03
	typeServiceData16 = 0x16
	typeShortName    = 0x08
	typeCompleteName = 0x09
	typeManufacturerData = 0xFF
)

// MaxPacketLength is the legacy advertising/scan-response payload
// ceiling (31 bytes).
const MaxPacketLength = 31

// serviceUUID16 is the 16-bit service UUID this implementation
// advertises, 0x3331, little-endian on the wire.
const serviceUUID16 = 0x3331

// serviceDataUUID16 is the 0x0000FFFF fallback service-data key the
// decoder also recognizes, per spec.
const serviceDataUUID16 = 0xFFFF

// manufacturerKeyXiaomiSIG is the Xiaomi-assigned manufacturer id the
// decoder treats as a brand hint independent of service data.
const manufacturerKeyXiaomiSIG = 0x038F

// ErrPacketTooLong is returned by Build when the primary advertising
// payload would exceed MaxPacketLength.
var ErrPacketTooLong = errors.New("advert: packet exceeds 31 bytes")

// Build constructs the primary advertising payload and the
// scan-response payload for the receiver role.
//
// senderID must be at least 2 bytes; only the first 2 are placed on the
// wire (remaining ident bytes, up to 6 total, are zero-padded).
func Build(b brand.Brand, supports5GHz bool, senderID [2]byte, deviceName string) (adv, scanResp []byte, err error) {
	p := new(packet)
	p.appendField(typeFlags, []byte{0x06}) // LE General Discoverable + BR/EDR Not Supported
	p.appendField(typeCompleteUUID16, []byte{0x31, 0x33})

	var identHi byte
	if supports5GHz {
		identHi = 0x01
	}
	identLo := b.CapabilityByte()
	// Service Data - 16 bit UUID (0x16): the TLV value leads with the
	// 2-byte UUID itself (low byte first), here carrying brand/5GHz
	// rather than a registered service identity, followed by up to 6
	// ident bytes — sender id in the first two, the rest zero-padded.
	value := []byte{identLo, identHi, senderID[0], senderID[1], 0x00, 0x00, 0x00, 0x00}
	p.appendField(typeServiceData16, value)

	if len(p.data) > MaxPacketLength {
		return nil, nil, ErrPacketTooLong
	}

	scanResp = buildScanResponse(deviceName)
	return p.data, scanResp, nil
}

// buildScanResponse encodes deviceName as Complete Local Name if it
// fits in 29 bytes (MaxPacketLength minus the 2-byte TLV header);
// otherwise it truncates on a UTF-8 codepoint boundary and appends a
// trailing tab marker.
func buildScanResponse(deviceName string) []byte {
	const nameBudget = MaxPacketLength - 2
	name := deviceName
	if len(name) > nameBudget {
		name = truncateOnRuneBoundary(name, nameBudget-1) + "\t"
	}
	p := new(packet)
	p.appendField(typeCompleteName, []byte(name))
	return p.data
}

func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	b := []byte(s)[:max]
	for len(b) > 0 && !utf8.RuneStart(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	// Drop a final rune left truncated mid-sequence.
	if len(b) > 0 {
		r, size := utf8.DecodeLastRune(b)
		if r == utf8.RuneError && size <= 1 {
			b = b[:len(b)-1]
		}
	}
	return string(b)
}

// packet accumulates length-type-value advertising fields.
type packet struct {
	data []byte
}

func (p *packet) appendField(typ byte, value []byte) {
	p.data = append(p.data, byte(len(value)+1), typ)
	p.data = append(p.data, value...)
}
