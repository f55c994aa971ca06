package device

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Room is a named grouping for devices.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the room for errors.
func (r *Room) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRoom)
	}
	return nil
}

// Device represents a physical microcontroller on the network.
//
// Devices are identified internally by ID and on the wire by MAC address:
// controllers report state keyed by MAC, while per-device configuration is
// published to device/<mac>.
type Device struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	MACAddress string  `json:"mac_address"`
	RoomID     *string `json:"room_id,omitempty"`

	// IsOnline reflects the last state reported over MQTT. All devices are
	// presumed offline whenever the hub (re)connects to the broker, until
	// they report otherwise.
	IsOnline bool `json:"is_online"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the device for errors.
func (d *Device) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDevice)
	}
	if err := ValidateMAC(d.MACAddress); err != nil {
		return err
	}
	return nil
}

// ValidateMAC checks that a MAC address is well formed.
// Controllers report colon-separated uppercase hex (AA:BB:CC:DD:EE:FF).
func ValidateMAC(mac string) error {
	if mac == "" {
		return fmt.Errorf("%w: mac address is required", ErrInvalidMAC)
	}
	if _, err := net.ParseMAC(mac); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	return nil
}

// NormalizeMAC canonicalises a MAC address to uppercase colon-separated
// form so lookups match regardless of how the firmware formats it.
func NormalizeMAC(mac string) string {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return strings.ToUpper(mac)
	}
	return strings.ToUpper(hw.String())
}
