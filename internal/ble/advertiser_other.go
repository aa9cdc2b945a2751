//go:build !linux

package ble

import "errors"

// The raw management-socket backend is Linux-specific (BlueZ mgmt
// protocol over an HCI control socket). Every other platform always
// falls back to the high-level advertisement API.
var errRawAdvertisingUnsupported = errors.New("ble: raw advertising backend only implemented on linux")

func startRawAdvertising(adv, scanResp []byte) error {
	return errRawAdvertisingUnsupported
}

func stopRawAdvertising() error {
	return nil
}
