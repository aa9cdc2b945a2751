// Package config loads and atomically persists settings.toml, and
// derives the GATT capability UUID this implementation advertises.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/Tinnci/cattysend/internal/brand"
)

// Settings is the on-disk configuration, persisted as TOML under
// $XDG_CONFIG_HOME/cattysend/settings.toml (or its platform
// equivalent).
type Settings struct {
	DeviceName    string `toml:"device_name"`
	BrandID       int16  `toml:"brand_id"`
	Supports5GHz  bool   `toml:"supports_5ghz"`
	WifiInterface string `toml:"wifi_interface"`
	DownloadDir   string `toml:"download_dir"`
	AutoAccept    bool   `toml:"auto_accept"`
	Verbose       bool   `toml:"verbose"`
}

// Default returns the fallback settings used when no config file
// exists yet or an existing one fails to parse. Brand defaults to
// Xiaomi (30) to maximize compatibility with the reference peer's
// scanner, which privileges that id in its own heuristics.
func Default() Settings {
	return Settings{
		DeviceName:    defaultDeviceName(),
		BrandID:       brand.Xiaomi.ID(),
		Supports5GHz:  true,
		WifiInterface: "wlan0",
		DownloadDir:   defaultDownloadDir(),
		AutoAccept:    false,
		Verbose:       false,
	}
}

func defaultDeviceName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "Cattysend"
	}
	return name
}

func defaultDownloadDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}

// Path returns the settings.toml path under the user's config
// directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "cattysend", "settings.toml"), nil
}

// Load reads settings.toml, falling back to Default() when the file is
// absent or fails to parse. A parse failure is reported through err
// alongside the still-usable default settings, matching the reference
// implementation's "warn and fall back" behavior — callers that only
// care about a working Settings value can ignore a non-nil err here.
func Load() (Settings, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("config: read %s: %w", path, err)
	}

	// Start from Default() so fields absent from the file keep their
	// per-field defaults.
	s := Default()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

// Save atomically persists s to settings.toml: it writes to a sibling
// temp file and renames it into place so a crash mid-write never leaves
// a truncated config behind.
func Save(s Settings) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}

// CapabilityUUID derives the GATT service/characteristic UUID this
// implementation advertises: 0000XXYY-0000-1000-8000-00805f9b34fb
// where XX is the 5GHz flag and YY is the brand id low byte.
func (s Settings) CapabilityUUID() uuid.UUID {
	var flag5ghz byte
	if s.Supports5GHz {
		flag5ghz = 0x01
	}

	var u uuid.UUID
	// u[0:2] stay zero ("0000").
	u[2] = flag5ghz
	u[3] = byte(s.BrandID)
	// u[4:6] stay zero ("0000"); the rest is the Bluetooth SIG base
	// UUID suffix "1000-8000-00805f9b34fb".
	copy(u[6:], []byte{0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb})
	return u
}
