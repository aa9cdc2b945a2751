package wifi

import (
	"fmt"
	"os"
	"strings"
)

// LocalMAC reads the configured interface's hardware address from
// sysfs, uppercased and colon-separated. It falls back to a
// locally-administered placeholder when the interface is absent
// (containers, CI, non-Linux hosts) rather than failing outright,
// since DeviceInfo.mac is advertised cosmetically and has no
// correctness requirement beyond "looks like a MAC".
func LocalMAC(iface string) string {
	path := fmt.Sprintf("/sys/class/net/%s/address", iface)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "02:00:00:00:00:00"
	}
	return strings.ToUpper(strings.TrimSpace(string(raw)))
}

// GatewayIP guesses the bearer's gateway address from a local IPv4
// address by assuming the conventional "x.x.x.1" layout NetworkManager
// and wpa_supplicant both use for their AP/P2P subnets. It falls back
// to the common wpa_supplicant P2P default when localIP is not a
// dotted-quad.
func GatewayIP(localIP string) string {
	parts := strings.Split(localIP, ".")
	if len(parts) == 4 {
		return fmt.Sprintf("%s.%s.%s.1", parts[0], parts[1], parts[2])
	}
	return "192.168.49.1"
}
