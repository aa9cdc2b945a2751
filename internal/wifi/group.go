package wifi

import (
	"crypto/rand"
	"fmt"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomSuffix returns an n-character lowercase alphanumeric string
// drawn from crypto/rand, matching the reference peer's "DIRECT-xxxxxxxx"
// SSID convention and its random PSK.
func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("wifi: read random bytes: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(out), nil
}

// NewGroupCredentials generates a fresh "DIRECT-xxxxxxxx" SSID and an
// 8-character PSK for a sender-role hotspot.
func NewGroupCredentials() (ssid, psk string, err error) {
	suffix, err := randomSuffix(8)
	if err != nil {
		return "", "", err
	}
	psk, err = randomSuffix(8)
	if err != nil {
		return "", "", err
	}
	return "DIRECT-" + suffix, psk, nil
}
