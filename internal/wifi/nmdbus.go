// Package wifi implements the Wi-Fi Direct/hotspot bearer: creating a
// local access point (sender role) or joining one (receiver role) via
// NetworkManager's D-Bus API, with a wpa_supplicant control-socket and
// nmcli command-line fallback for hosts where the D-Bus service is
// unavailable or lacks the needed device.
package wifi

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	nmService           = "org.freedesktop.NetworkManager"
	nmPath               = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmSettingsPath       = dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings")
	nmIface              = "org.freedesktop.NetworkManager"
	nmSettingsIface      = "org.freedesktop.NetworkManager.Settings"
	nmConnectionIface    = "org.freedesktop.NetworkManager.Settings.Connection"
	nmDeviceIface        = "org.freedesktop.NetworkManager.Device"
	nmActiveConnIface    = "org.freedesktop.NetworkManager.Connection.Active"
	nmIP4ConfigIface     = "org.freedesktop.NetworkManager.IP4Config"
	nmPropsIface         = "org.freedesktop.DBus.Properties"
)

// Device type codes exposed by NetworkManager.Device.DeviceType.
const (
	deviceTypeWifi   = 2
	deviceTypeWifiP2P = 30
)

// Active connection states exposed by Connection.Active.State.
const (
	activeStateActivating = 1
	activeStateActivated  = 2
	activeStateDeactivating = 3
	activeStateDeactivated  = 4
)

// NmClient wraps a system-bus connection to NetworkManager.
type NmClient struct {
	conn *dbus.Conn
}

// NewNmClient dials the system bus. Callers must Close it when done.
func NewNmClient() (*NmClient, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("wifi: connect to system bus: %w", err)
	}
	return &NmClient{conn: conn}, nil
}

// Close releases the underlying bus connection.
func (c *NmClient) Close() error { return c.conn.Close() }

func (c *NmClient) nm() dbus.BusObject {
	return c.conn.Object(nmService, nmPath)
}

func (c *NmClient) settings() dbus.BusObject {
	return c.conn.Object(nmService, nmSettingsPath)
}

// GetDevices returns every network device NetworkManager knows about.
func (c *NmClient) GetDevices() ([]dbus.ObjectPath, error) {
	var devices []dbus.ObjectPath
	if err := c.nm().Call(nmIface+".GetDevices", 0).Store(&devices); err != nil {
		return nil, fmt.Errorf("wifi: GetDevices: %w", err)
	}
	return devices, nil
}

// FindDeviceByType returns the first device whose DeviceType property
// matches wantType (deviceTypeWifi or deviceTypeWifiP2P).
func (c *NmClient) FindDeviceByType(wantType uint32) (dbus.ObjectPath, bool, error) {
	devices, err := c.GetDevices()
	if err != nil {
		return "", false, err
	}
	for _, dev := range devices {
		devType, err := c.deviceProperty(dev, "DeviceType")
		if err != nil {
			continue
		}
		if v, ok := devType.Value().(uint32); ok && v == wantType {
			return dev, true, nil
		}
	}
	return "", false, nil
}

// FindDeviceByInterface returns the device object whose Interface
// property equals name.
func (c *NmClient) FindDeviceByInterface(name string) (dbus.ObjectPath, bool, error) {
	devices, err := c.GetDevices()
	if err != nil {
		return "", false, err
	}
	for _, dev := range devices {
		ifaceName, err := c.deviceProperty(dev, "Interface")
		if err != nil {
			continue
		}
		if v, ok := ifaceName.Value().(string); ok && v == name {
			return dev, true, nil
		}
	}
	return "", false, nil
}

func (c *NmClient) deviceProperty(dev dbus.ObjectPath, name string) (dbus.Variant, error) {
	obj := c.conn.Object(nmService, dev)
	var v dbus.Variant
	err := obj.Call(nmPropsIface+".Get", 0, nmDeviceIface, name).Store(&v)
	return v, err
}

// HwAddress reads the device's hardware (MAC) address.
func (c *NmClient) HwAddress(dev dbus.ObjectPath) (string, error) {
	v, err := c.deviceProperty(dev, "HwAddress")
	if err != nil {
		return "", fmt.Errorf("wifi: HwAddress: %w", err)
	}
	mac, _ := v.Value().(string)
	return mac, nil
}

// connectionSettings is the nested map[setting][key]value shape both
// AddConnection and AddAndActivateConnection expect.
type connectionSettings map[string]map[string]dbus.Variant

// hotspotSettings builds the connection template spec.md describes for
// the sender role: 802-11-wireless AP mode with WPA-PSK security and
// shared (NAT+DHCP) IPv4.
func hotspotSettings(iface, ssid, psk, band string) connectionSettings {
	return connectionSettings{
		"connection": {
			"type":           dbus.MakeVariant("802-11-wireless"),
			"autoconnect":    dbus.MakeVariant(false),
			"interface-name": dbus.MakeVariant(iface),
			"id":             dbus.MakeVariant(ssid),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(ssid)),
			"mode": dbus.MakeVariant("ap"),
			"band": dbus.MakeVariant(band),
		},
		"802-11-wireless-security": {
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(psk),
		},
		"ipv4": {
			"method": dbus.MakeVariant("shared"),
		},
		"ipv6": {
			"method": dbus.MakeVariant("ignore"),
		},
	}
}

// infrastructureSettings builds the client-mode connection template the
// receiver role uses to join a peer's hotspot.
func infrastructureSettings(iface, ssid, psk string) connectionSettings {
	return connectionSettings{
		"connection": {
			"type":           dbus.MakeVariant("802-11-wireless"),
			"autoconnect":    dbus.MakeVariant(false),
			"interface-name": dbus.MakeVariant(iface),
			"id":             dbus.MakeVariant(ssid),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(ssid)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
		"802-11-wireless-security": {
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(psk),
		},
		"ipv4": {
			"method": dbus.MakeVariant("auto"),
		},
		"ipv6": {
			"method": dbus.MakeVariant("ignore"),
		},
	}
}

// AddAndActivateConnection adds settings and activates it against dev
// in one D-Bus call, returning the new connection's and the active
// connection's object paths.
func (c *NmClient) AddAndActivateConnection(settings connectionSettings, dev dbus.ObjectPath) (conn, active dbus.ObjectPath, err error) {
	call := c.nm().Call(nmIface+".AddAndActivateConnection", 0, settings, dev, dbus.ObjectPath("/"))
	if call.Err != nil {
		return "", "", fmt.Errorf("wifi: AddAndActivateConnection: %w", call.Err)
	}
	if err := call.Store(&conn, &active); err != nil {
		return "", "", fmt.Errorf("wifi: decode AddAndActivateConnection reply: %w", err)
	}
	return conn, active, nil
}

// DeleteConnection removes a previously added connection by its
// Settings.Connection object path. Best-effort: callers log failures
// rather than propagating them, per the bearer's cleanup contract.
func (c *NmClient) DeleteConnection(conn dbus.ObjectPath) error {
	obj := c.conn.Object(nmService, conn)
	return obj.Call(nmConnectionIface+".Delete", 0).Err
}

// WaitForActivation polls the active connection's State property until
// it reaches ACTIVATED, returns an error on DEACTIVATED/failure, or
// ctx/timeout expires.
func (c *NmClient) WaitForActivation(ctx context.Context, active dbus.ObjectPath, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wifi: activation timed out after %s", timeout)
		case <-ticker.C:
			state, err := c.activeConnectionState(active)
			if err != nil {
				continue
			}
			switch state {
			case activeStateActivated:
				return nil
			case activeStateDeactivated:
				return fmt.Errorf("wifi: connection deactivated before reaching ACTIVATED")
			}
		}
	}
}

func (c *NmClient) activeConnectionState(active dbus.ObjectPath) (uint32, error) {
	obj := c.conn.Object(nmService, active)
	var v dbus.Variant
	if err := obj.Call(nmPropsIface+".Get", 0, nmActiveConnIface, "State").Store(&v); err != nil {
		return 0, err
	}
	state, _ := v.Value().(uint32)
	return state, nil
}

// IPv4Address polls IP4Config.AddressData until an address appears or
// ctx/timeout expires.
func (c *NmClient) IPv4Address(ctx context.Context, active dbus.ObjectPath, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("wifi: no IPv4 address within %s", timeout)
		case <-ticker.C:
			addr, ok, err := c.tryReadIPv4Address(active)
			if err != nil {
				continue
			}
			if ok {
				return addr, nil
			}
		}
	}
}

func (c *NmClient) tryReadIPv4Address(active dbus.ObjectPath) (string, bool, error) {
	obj := c.conn.Object(nmService, active)
	var ip4ConfigPath dbus.Variant
	if err := obj.Call(nmPropsIface+".Get", 0, nmActiveConnIface, "Ip4Config").Store(&ip4ConfigPath); err != nil {
		return "", false, err
	}
	path, ok := ip4ConfigPath.Value().(dbus.ObjectPath)
	if !ok || path == "" || path == "/" {
		return "", false, nil
	}

	ip4Obj := c.conn.Object(nmService, path)
	var addrData dbus.Variant
	if err := ip4Obj.Call(nmPropsIface+".Get", 0, nmIP4ConfigIface, "AddressData").Store(&addrData); err != nil {
		return "", false, err
	}
	entries, ok := addrData.Value().([]map[string]dbus.Variant)
	if !ok || len(entries) == 0 {
		return "", false, nil
	}
	addr, ok := entries[0]["address"].Value().(string)
	return addr, ok, nil
}
