package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/Tinnci/cattysend/internal/advert"
)

// candidateListUUIDs are checked against each scan result's Complete
// List of 16-bit Service UUIDs via HasServiceUUID, since the
// platform-neutral tinygo.org/x/bluetooth API exposes UUID membership
// tests rather than a full UUID list for that GAP field. This is only
// the fixed discovery-signal range spec.md names for that field;
// service-data entries are enumerated directly below instead, since
// the identity-carrying UUID spans the whole brand/5GHz range.
var candidateListUUIDs = []uint16{0x3331, 0x3332, 0x3333, 0x3334}

// ScanCallback is invoked once per newly discovered address, in
// discovery order.
type ScanCallback func(advert.DiscoveredDevice)

// Scan runs a single discovery pass for timeout, deduplicating by
// address and invoking callback (if non-nil) the first time each
// address is seen. It returns the set of devices whose advertisements
// arrived during the scan; devices the host adapter cached before the
// scan began and that do not advertise again are not included.
// Cancelling ctx stops scanning early and clears the adapter's scan
// filter.
func Scan(ctx context.Context, adapter *bluetooth.Adapter, timeout time.Duration, callback ScanCallback) (map[string]advert.DiscoveredDevice, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var mu sync.Mutex
	found := make(map[string]advert.DiscoveredDevice)

	scanErrCh := make(chan error, 1)
	go func() {
		scanErrCh <- adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			dev, ok := decodeScanResult(result)
			if !ok {
				return
			}
			addr := result.Address.String()

			mu.Lock()
			_, seen := found[addr]
			if !seen {
				found[addr] = dev
			}
			mu.Unlock()

			if !seen && callback != nil {
				callback(dev)
			}
		})
	}()

	select {
	case <-scanCtx.Done():
	case err := <-scanErrCh:
		if err != nil {
			return nil, fmt.Errorf("ble: scan: %w", err)
		}
	}

	if err := adapter.StopScan(); err != nil {
		return nil, fmt.Errorf("ble: stop scan: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	result := make(map[string]advert.DiscoveredDevice, len(found))
	for k, v := range found {
		result[k] = v
	}
	return result, nil
}

func decodeScanResult(result bluetooth.ScanResult) (advert.DiscoveredDevice, bool) {
	payload := result.AdvertisementPayload

	data := advert.AdvData{
		LocalName:        payload.LocalName(),
		Address:          result.Address.String(),
		ServiceData:      map[uint16][]byte{},
		ManufacturerData: map[uint16][]byte{},
	}
	rssi := result.RSSI
	data.RSSI = &rssi

	for _, short := range candidateListUUIDs {
		if payload.HasServiceUUID(bluetooth.New16BitUUID(short)) {
			data.UUID16s = append(data.UUID16s, short)
		}
	}
	// Every service-data entry is copied through by its actual 16-bit
	// value — the identity-carrying UUID a real peer advertises spans
	// the whole brand/5GHz range, not a handful of fixed candidates.
	for _, sd := range payload.ServiceData() {
		if sd.UUID.Is16Bit() {
			data.ServiceData[sd.UUID.Get16Bit()] = sd.Data
		}
	}
	for _, md := range payload.ManufacturerData() {
		data.ManufacturerData[md.CompanyID] = md.Data
	}

	return advert.Decode(data)
}
