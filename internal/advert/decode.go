package advert

import (
	"encoding/binary"
	"regexp"
	"strings"

	"github.com/Tinnci/cattysend/internal/brand"
)

// AdvData is the already-parsed GAP record set a BLE stack hands back
// for a discovered peer: TLV fields bucketed by type, with each
// service-data/manufacturer-data value stripped of its own UUID/company
// prefix key.
type AdvData struct {
	// UUID16s lists every 16-bit service UUID advertised, as the full
	// 4-hex-digit value (e.g. 0x3331), regardless of whether the host
	// reports it from a 16-bit or expanded 128-bit record.
	UUID16s []uint16
	// ServiceData maps a 16-bit service UUID to its associated value
	// bytes (the UUID key itself is not included in the value).
	ServiceData map[uint16][]byte
	// ManufacturerData maps a company/manufacturer id to its value
	// bytes.
	ManufacturerData map[uint16][]byte
	LocalName        string
	Address          string
	RSSI             *int16
}

// DiscoveredDevice is the scanner's resolved view of a peer.
type DiscoveredDevice struct {
	Name         string
	Address      string
	SenderID     string // 4 hex chars
	Brand        brand.Brand
	RSSI         *int16
	Supports5GHz bool
}

// suspiciousName matches GAP names the reference scanner treats as
// unusable: the literal placeholder "<unknown>", a name that opens
// with "(" (often a MAC-address placeholder render), or one ending in
// "$" or a tab.
var suspiciousName = regexp.MustCompile(`^<unknown>$|^\(|\$$|\t$`)

// Decode resolves a DiscoveredDevice from adv when any of the
// recognition conditions hold, mirroring the reference scanner's
// acceptance rules. It returns ok=false when none of the UUID,
// service-data, manufacturer-data, or name-keyword signals match.
func Decode(adv AdvData) (DiscoveredDevice, bool) {
	matched := false

	for _, u := range adv.UUID16s {
		if u >= 0x3331 && u <= 0x3334 {
			matched = true
			break
		}
	}
	if !matched {
		for uuid := range adv.ServiceData {
			if (uuid >= 0x3331 && uuid <= 0x3334) || uuid == serviceDataUUID16 {
				matched = true
				break
			}
		}
	}
	if _, ok := adv.ManufacturerData[manufacturerKeyXiaomiSIG]; ok {
		matched = true
	}

	name := resolveName(adv)
	if !matched {
		for known := range knownBrandKeywords() {
			if strings.Contains(strings.ToLower(name), known) {
				matched = true
				break
			}
		}
	}

	if !matched {
		return DiscoveredDevice{}, false
	}

	dev := DiscoveredDevice{
		Name:    name,
		Address: adv.Address,
		RSSI:    adv.RSSI,
	}

	senderID, brandVal, supports5GHz := resolveIdentity(adv.ServiceData, adv.ManufacturerData)
	dev.SenderID = senderID
	dev.Brand = brandVal
	dev.Supports5GHz = supports5GHz

	return dev, true
}

// resolveIdentity derives sender id, brand, and 5GHz support by
// scanning every service-data record the same way the reference scanner
// does: each record is classified purely by its data length, and the
// capability UUID key itself — not its value — carries brand/5GHz for
// the 6-byte shape. No sender id is derived from that shape; the
// reference never populates one there, so it stays the default "0000".
func resolveIdentity(serviceData map[uint16][]byte, mfg map[uint16][]byte) (senderID string, b brand.Brand, supports5GHz bool) {
	senderID = "0000"
	brandFromUUID := false

	for uuid, data := range serviceData {
		switch {
		case len(data) == 6:
			// ident_uuid = (supports5GHz ? 0x01 : 0x00) << 8 | brand_id.
			supports5GHz = byte(uuid>>8) == 0x01
			b = brand.FromID(int16(byte(uuid)))
			brandFromUUID = true
		case uuid == serviceDataUUID16 && len(data) == 27:
			senderID = toHex2From16(binary.BigEndian.Uint16(data[8:10]))
		}
	}

	if !brandFromUUID {
		for key := range mfg {
			b = brand.FromID(int16(key))
			break
		}
	}
	return
}

func resolveName(adv AdvData) string {
	if adv.LocalName == "" || suspiciousName.MatchString(adv.LocalName) {
		return scanManufacturerDataForName(adv.ManufacturerData)
	}
	return adv.LocalName
}

// scanManufacturerDataForName extracts printable-ASCII runs of length
// >= 4 from every manufacturer-data value, scores each run by
// length + (100 if it contains a brand keyword), and returns the
// best-scoring run.
func scanManufacturerDataForName(mfg map[uint16][]byte) string {
	best := ""
	bestScore := -1
	keywords := knownBrandKeywords()
	for _, data := range mfg {
		for _, run := range asciiRuns(data, 4) {
			score := len(run)
			lower := strings.ToLower(run)
			for kw := range keywords {
				if strings.Contains(lower, kw) {
					score += 100
					break
				}
			}
			if score > bestScore {
				best, bestScore = run, score
			}
		}
	}
	return best
}

// asciiRuns returns every maximal run of printable ASCII bytes
// (0x20-0x7E) in b that is at least minLen long.
func asciiRuns(b []byte, minLen int) []string {
	var runs []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minLen {
			runs = append(runs, string(b[start:end]))
		}
		start = -1
	}
	for i, c := range b {
		if c >= 0x20 && c <= 0x7E {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(b))
	return runs
}

var knownBrands = []brand.Brand{
	brand.Xiaomi, brand.Oppo, brand.Vivo, brand.OnePlus, brand.Realme,
	brand.Samsung, brand.Honor, brand.Hisense, brand.Asus, brand.Rog,
	brand.BlackShark, brand.Meizu, brand.Nubia, brand.Zte, brand.Smartisan,
	brand.Lenovo, brand.Motorola, brand.Nio,
}

func knownBrandKeywords() map[string]struct{} {
	set := make(map[string]struct{}, len(knownBrands))
	for _, b := range knownBrands {
		set[b.Keyword()] = struct{}{}
	}
	return set
}

func toHex2(a, b byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 4)
	out[0] = digits[a>>4]
	out[1] = digits[a&0xF]
	out[2] = digits[b>>4]
	out[3] = digits[b&0xF]
	return string(out)
}

func toHex2From16(v uint16) string {
	return toHex2(byte(v>>8), byte(v))
}
