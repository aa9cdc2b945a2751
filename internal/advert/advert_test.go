package advert

import (
	"strings"
	"testing"

	"github.com/Tinnci/cattysend/internal/brand"
	"github.com/stretchr/testify/require"
)

func TestBuildFitsWithin31Bytes(t *testing.T) {
	adv, scanResp, err := Build(brand.Xiaomi, true, [2]byte{0xAB, 0xCD}, "My Phone")
	require.NoError(t, err)
	require.LessOrEqual(t, len(adv), MaxPacketLength)
	require.LessOrEqual(t, len(scanResp), MaxPacketLength)
}

func TestBuildFlagsAndUUID(t *testing.T) {
	adv, _, err := Build(brand.Oppo, false, [2]byte{0x01, 0x02}, "x")
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x01, 0x06}, adv[0:3])
	require.Equal(t, []byte{0x03, 0x03, 0x31, 0x33}, adv[3:7])
}

func TestBuildEncodesIdentAndSenderID(t *testing.T) {
	adv, _, err := Build(brand.Xiaomi, true, [2]byte{0x11, 0x22}, "x")
	require.NoError(t, err)
	// TLV 3 starts at byte 7: length, type, identLo, identHi, senderID[0:2], padding.
	tlv3 := adv[7:]
	require.Equal(t, byte(0x16), tlv3[1])
	require.Equal(t, brand.Xiaomi.CapabilityByte(), tlv3[2])
	require.Equal(t, byte(0x01), tlv3[3]) // supports5GHz
	require.Equal(t, byte(0x11), tlv3[4])
	require.Equal(t, byte(0x22), tlv3[5])
}

func TestBuildScanResponseTruncatesLongNames(t *testing.T) {
	longName := strings.Repeat("a", 40)
	_, scanResp, err := Build(brand.Vivo, false, [2]byte{0, 1}, longName)
	require.NoError(t, err)
	require.LessOrEqual(t, len(scanResp), MaxPacketLength)
	require.True(t, strings.HasSuffix(string(scanResp), "\t"))
}

func TestBuildScanResponseShortNameNoTruncation(t *testing.T) {
	_, scanResp, err := Build(brand.Vivo, false, [2]byte{0, 1}, "Pixel")
	require.NoError(t, err)
	require.Equal(t, byte(typeCompleteName), scanResp[1])
	require.False(t, strings.HasSuffix(string(scanResp), "\t"))
}

func TestDecodeByServiceUUID(t *testing.T) {
	// The capability UUID itself (not the service-data value) carries
	// brand (low byte) and 5GHz support (high byte); the 6-byte value
	// shape never carries a sender id per the reference scanner.
	identUUID := uint16(0x01)<<8 | uint16(brand.Xiaomi.CapabilityByte())
	dev, ok := Decode(AdvData{
		UUID16s: []uint16{0x3331},
		ServiceData: map[uint16][]byte{
			identUUID: {0xAB, 0xCD, 0x00, 0x00, 0x00, 0x00},
		},
		LocalName: "Xiaomi 14",
		Address:   "AA:BB:CC:DD:EE:FF",
	})
	require.True(t, ok)
	require.Equal(t, "Xiaomi 14", dev.Name)
	require.Equal(t, "0000", dev.SenderID)
	require.True(t, dev.Supports5GHz)
	require.Equal(t, brand.Xiaomi, dev.Brand)
}

func TestDecodeCapabilityUUIDUnknownBrand(t *testing.T) {
	// Literal spec scenario: capability UUID 0x000001FF (5GHz + brand
	// 0xFF) must decode to supports_5ghz=true, brand=Unknown(0xFF).
	dev, ok := Decode(AdvData{
		UUID16s: []uint16{0x3331},
		ServiceData: map[uint16][]byte{
			0x01FF: {0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		LocalName: "peer",
	})
	require.True(t, ok)
	require.True(t, dev.Supports5GHz)
	require.Equal(t, brand.FromID(0xFF), dev.Brand)
}

func TestDecodeByManufacturerXiaomiSIG(t *testing.T) {
	dev, ok := Decode(AdvData{
		ManufacturerData: map[uint16][]byte{0x038F: {0x01, 0x02}},
		LocalName:        "<unknown>",
	})
	require.True(t, ok)
	require.NotEqual(t, "<unknown>", dev.Name)
}

func TestDecodeRejectsUnrelatedAdvertisement(t *testing.T) {
	_, ok := Decode(AdvData{LocalName: "Random Speaker"})
	require.False(t, ok)
}

func TestDecodeResolvesNameFromManufacturerData(t *testing.T) {
	dev, ok := Decode(AdvData{
		UUID16s:          []uint16{0x3331},
		ManufacturerData: map[uint16][]byte{0x0001: []byte("vivoY300pro")},
		LocalName:        "\t",
	})
	require.True(t, ok)
	require.Contains(t, strings.ToLower(dev.Name), "vivo")
}
