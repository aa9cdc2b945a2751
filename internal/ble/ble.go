// Package ble implements the BLE discovery, GATT rendezvous, and
// advertising transport: scanning for peers, serving the status/P2P
// characteristics, connecting out to a peer's GATT server, and
// advertising this device's own presence.
//
// The GATT shape is fixed by the reference peer: one primary service
// exposing a readable status characteristic and a write-only P2P
// characteristic. tinygo.org/x/bluetooth provides both the central
// (scan/connect) and peripheral (advertise/serve) roles this package
// needs from a single adapter.
package ble

import (
	"time"

	"tinygo.org/x/bluetooth"
)

// ServiceUUID is the primary GATT service both roles publish and
// scan for. It also doubles as the advertised 16-bit service UUID
// (0x3331) per the advertisement codec.
var ServiceUUID = bluetooth.New16BitUUID(0x3331)

// StatusCharUUID is the read-only characteristic serving the local
// DeviceInfo JSON blob.
var StatusCharUUID = bluetooth.New16BitUUID(0x3332)

// P2PCharUUID is the write/write-without-response characteristic that
// accepts a peer's P2pInfo JSON blob.
var P2PCharUUID = bluetooth.New16BitUUID(0x3333)

// defaultScanTimeout is a 10-second scan duration. Scan does not read
// it: each Scan call runs for the timeout its caller passes.
const defaultScanTimeout = 10 * time.Second
