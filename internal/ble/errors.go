package ble

import "errors"

// Failure categories the GATT client's steps can produce, per the
// component contract: any step may fail with NotFound, Io, or
// Protocol, and recovery is the orchestrator's decision, not this
// layer's.
var (
	errNotFound = errors.New("ble: not found")
	errIo       = errors.New("ble: io error")
	errProtocol = errors.New("ble: protocol error")
)

// firstErr returns the first non-nil error, falling back to fallback
// when err is nil (used to attach a category to an otherwise unadorned
// "no services" condition).
func firstErr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
