package hub

// Inbound message shapes. Required fields are pointers so a missing key is
// distinguishable from a zero value; validation rejects nil before use.

// deviceStateMessage arrives on global/deviceState.
type deviceStateMessage struct {
	MACAddress *string `json:"macAddress"`
	IsOnline   *bool   `json:"isOnline"`
}

// temperatureMessage arrives on global/temperature.
type temperatureMessage struct {
	AttachmentID *string  `json:"attachmentId"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
}

// doorMessage arrives on global/door.
type doorMessage struct {
	AttachmentID *string `json:"attachmentId"`
	IsOpen       *bool   `json:"isOpen"`
}

// discoveryResponse arrives on global/discoveryResponse in answer to a
// discovery request.
type discoveryResponse struct {
	MACAddress *string `json:"macAddress"`
}

// configMessage is published to device/<mac>, one per sampling-capable
// characteristic per attachment. Field names match what the firmware
// expects.
type configMessage struct {
	DeviceID       string `json:"deviceId"`
	AttachmentID   string `json:"attachmentId"`
	AttachmentType string `json:"attachmentType"`
	Pin            string `json:"pin"`
	SampleInterval int    `json:"sampleInterval"`
	Invert         bool   `json:"invert"`
}

// commandPayload values published to <type>s/<deviceID>/<pin> for actuators.
const (
	CommandOn  = "on"
	CommandOff = "off"
)

// DiscoveredDevice describes an unprovisioned controller that answered a
// discovery request.
type DiscoveredDevice struct {
	MACAddress string `json:"mac_address"`
}
