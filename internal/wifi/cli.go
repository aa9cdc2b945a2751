package wifi

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// addHotspotViaCLI invokes nmcli to bring up a hotspot on iface.
// Bearer.CreateGroup does not call it: its backends are NM D-Bus and
// then wpa_supplicant (addGroupViaSupplicant).
func addHotspotViaCLI(ctx context.Context, iface, ssid, psk, band string) error {
	cmd := exec.CommandContext(ctx, "nmcli", "device", "wifi", "hotspot",
		"ifname", iface, "ssid", ssid, "password", psk, "band", band)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("wifi: nmcli hotspot: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// joinViaCLI invokes nmcli as the last-resort receiver-role backend
// and polls `nmcli -g IP4.ADDRESS` for the resulting address.
func joinViaCLI(ctx context.Context, iface, ssid, psk string, timeout time.Duration) (string, error) {
	connectCmd := exec.CommandContext(ctx, "nmcli", "device", "wifi", "connect", ssid,
		"password", psk, "ifname", iface)
	if out, err := connectCmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("wifi: nmcli connect: %w: %s", err, strings.TrimSpace(string(out)))
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		addr, err := readIP4AddressViaCLI(ctx, iface)
		if err == nil && addr != "" {
			return addr, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return "", fmt.Errorf("wifi: nmcli: no IPv4 address within %s", timeout)
}

func readIP4AddressViaCLI(ctx context.Context, iface string) (string, error) {
	cmd := exec.CommandContext(ctx, "nmcli", "-g", "IP4.ADDRESS", "device", "show", iface)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	if scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.IndexByte(line, '/'); idx >= 0 {
			line = line[:idx]
		}
		return line, nil
	}
	return "", fmt.Errorf("wifi: no IP4.ADDRESS reported for %s", iface)
}

// addGroupViaSupplicant drives wpa_cli's P2P group API, used as the
// sender role's second backend when NetworkManager's D-Bus API is
// unavailable but wpa_supplicant is running directly.
func addGroupViaSupplicant(ctx context.Context, ssid, psk string) error {
	cmd := exec.CommandContext(ctx, "wpa_cli", "p2p_group_add",
		"persistent", fmt.Sprintf("ssid=%s", ssid), fmt.Sprintf("passphrase=%s", psk))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("wifi: wpa_cli p2p_group_add: %w: %s", err, strings.TrimSpace(string(out)))
	}
	time.Sleep(2 * time.Second)
	return nil
}
