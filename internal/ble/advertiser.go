package ble

import (
	"fmt"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"
)

// Advertiser starts the legacy primary+scan-response advertisement
// described by advert.Build. It tries a privileged raw backend first
// and falls back to the portable high-level API, logging (never
// failing) when the privileged backend is unavailable.
type Advertiser struct {
	adapter *bluetooth.Adapter
	log     zerolog.Logger

	highLevel *bluetooth.Advertisement
	rawActive bool
}

// NewAdvertiser builds an Advertiser bound to adapter.
func NewAdvertiser(adapter *bluetooth.Adapter, log zerolog.Logger) *Advertiser {
	return &Advertiser{adapter: adapter, log: log}
}

// Start advertises this device. It first attempts the raw
// management-socket backend (Linux only), which sends adv/scanResp
// byte for byte; if that is unavailable it falls back to
// tinygo.org/x/bluetooth's per-session advertisement API, which
// advertises only localName and ServiceUUID (adv/scanResp are not
// used on that path). The raw backend's bit-for-bit flag contract matters: only
// "connectable", "discoverable", and "add flags field" may be set,
// since any secondary-channel (LE Coded/LE 2M) flag silently promotes
// the request to Extended Advertising, which the reference peer's
// legacy GAP scanner cannot decode.
func (a *Advertiser) Start(localName string, adv, scanResp []byte) error {
	if err := startRawAdvertising(adv, scanResp); err != nil {
		a.log.Warn().Err(err).Msg("raw management-socket advertising unavailable, falling back to high-level API")
	} else {
		a.rawActive = true
		return nil
	}

	advertisement := a.adapter.DefaultAdvertisement()
	if err := advertisement.Configure(bluetooth.AdvertisementOptions{
		LocalName:    localName,
		ServiceUUIDs: []bluetooth.UUID{ServiceUUID},
	}); err != nil {
		return fmt.Errorf("ble: configure advertisement: %w", err)
	}
	if err := advertisement.Start(); err != nil {
		return fmt.Errorf("ble: start advertisement: %w", err)
	}
	a.highLevel = advertisement
	return nil
}

// Stop halts whichever backend Start activated.
func (a *Advertiser) Stop() error {
	if a.rawActive {
		a.rawActive = false
		return stopRawAdvertising()
	}
	if a.highLevel != nil {
		defer func() { a.highLevel = nil }()
		return a.highLevel.Stop()
	}
	return nil
}
