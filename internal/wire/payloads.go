package wire

// DeviceInfo is the receiver's identity, published on the BLE status
// characteristic and serialized as compact camelCase JSON. Field names,
// types, and capitalization must match the peer byte-for-byte: this is
// not a Go-idiomatic reshaping target.
type DeviceInfo struct {
	State    int     `json:"state"`
	Key      *string `json:"key,omitempty"`
	MAC      string  `json:"mac"`
	CatShare *int    `json:"catShare,omitempty"`
}

// CatShareVersion is the fixed protocol version this implementation
// advertises in DeviceInfo.catShare and P2pInfo.catShare.
const CatShareVersion = 1

// NewDeviceInfo builds a DeviceInfo with state fixed at 0 and catShare
// fixed at CatShareVersion, per spec: this implementation never
// advertises any other state.
func NewDeviceInfo(mac string, publicKeyB64 *string) DeviceInfo {
	v := CatShareVersion
	return DeviceInfo{
		State:    0,
		Key:      publicKeyB64,
		MAC:      mac,
		CatShare: &v,
	}
}

// P2pInfo is the sender's Wi-Fi credentials and port, written to the
// BLE P2P characteristic. When Key is present, SSID/PSK/MAC each hold a
// Base64 AES-256-CTR ciphertext rather than plaintext.
type P2pInfo struct {
	ID       *string `json:"id,omitempty"`
	SSID     string  `json:"ssid"`
	PSK      string  `json:"psk"`
	MAC      string  `json:"mac"`
	Port     int     `json:"port"`
	Key      *string `json:"key,omitempty"`
	CatShare *int    `json:"catShare,omitempty"`
}

// IsEncrypted reports whether SSID/PSK/MAC are ciphertexts rather than
// plaintext, per the Key-presence invariant.
func (p P2pInfo) IsEncrypted() bool { return p.Key != nil }

// SendRequest is the sendRequest action payload. TaskID and ID are
// aliases for the same field in different protocol versions; use
// EffectiveTaskID to resolve them.
type SendRequest struct {
	TaskID       *string `json:"taskId,omitempty"`
	ID           *string `json:"id,omitempty"`
	SenderID     *string `json:"senderId,omitempty"`
	SenderName   string  `json:"senderName"`
	FileName     string  `json:"fileName"`
	MimeType     string  `json:"mimeType"`
	FileCount    uint32  `json:"fileCount"`
	TotalSize    uint64  `json:"totalSize"`
	CatShareText *string `json:"catShareText,omitempty"`
	Thumbnail    *string `json:"thumbnail,omitempty"`
}

// EffectiveTaskID returns TaskID if set, else ID, else "unknown".
func (r SendRequest) EffectiveTaskID() string {
	if r.TaskID != nil && *r.TaskID != "" {
		return *r.TaskID
	}
	if r.ID != nil && *r.ID != "" {
		return *r.ID
	}
	return "unknown"
}

// EffectiveSenderID returns SenderID if set, else "unknown".
func (r SendRequest) EffectiveSenderID() string {
	if r.SenderID != nil && *r.SenderID != "" {
		return *r.SenderID
	}
	return "unknown"
}
