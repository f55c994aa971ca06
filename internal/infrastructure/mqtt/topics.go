package mqtt

import "fmt"

// Topic prefixes for the HomeHub MQTT contract with device firmware.
//
// Control and telemetry traffic from controllers arrives on the shared
// global/ hierarchy; per-device configuration goes out on device/<mac>.
const (
	// TopicPrefixGlobal is the base for all inbound control/telemetry topics.
	TopicPrefixGlobal = "global"

	// TopicPrefixDevice is the base for outbound per-device topics.
	TopicPrefixDevice = "device"
)

// Topics provides builders for HomeHub MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase:
//
//	topics := mqtt.Topics{}
//	configTopic := topics.DeviceConfig("AA:BB:CC:DD:EE:FF")
//	// Returns: "device/AA:BB:CC:DD:EE:FF"
type Topics struct{}

// DeviceState is the inbound topic for controller online/offline reports.
//
// Payload: {"macAddress": "...", "isOnline": true}
func (Topics) DeviceState() string {
	return TopicPrefixGlobal + "/deviceState"
}

// Temperature is the inbound topic for temperature/humidity samples.
//
// Payload: {"attachmentId": "...", "temperature": 21.5, "humidity": 40}
func (Topics) Temperature() string {
	return TopicPrefixGlobal + "/temperature"
}

// Door is the inbound topic for door sensor samples.
//
// Payload: {"attachmentId": "...", "isOpen": true}
func (Topics) Door() string {
	return TopicPrefixGlobal + "/door"
}

// Discovery is the outbound topic requesting unprovisioned controllers to
// report themselves.
func (Topics) Discovery() string {
	return TopicPrefixGlobal + "/discovery"
}

// DiscoveryResponse is the inbound topic carrying controller descriptors in
// answer to a discovery request.
func (Topics) DiscoveryResponse() string {
	return TopicPrefixGlobal + "/discoveryResponse"
}

// ReportOnlineState is the outbound announce topic. The hub publishes a
// zero-payload message here on every (re)connect, prompting controllers to
// re-report their state.
func (Topics) ReportOnlineState() string {
	return TopicPrefixGlobal + "/reportOnlineState"
}

// DeviceConfig is the outbound per-device configuration topic.
//
// Example: device/AA:BB:CC:DD:EE:FF
func (Topics) DeviceConfig(macAddress string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixDevice, macAddress)
}

// AttachmentCommand is the outbound topic for actuator commands.
//
// Example: lights/dev-01/D1 with payload "on"
func (Topics) AttachmentCommand(attachmentType, deviceID, pin string) string {
	return fmt.Sprintf("%ss/%s/%s", attachmentType, deviceID, pin)
}

// AllGlobal returns the wildcard pattern covering all inbound traffic.
//
// Pattern: global/#
func (Topics) AllGlobal() string {
	return TopicPrefixGlobal + "/#"
}
