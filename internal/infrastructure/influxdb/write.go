package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTemperatureSample mirrors a temperature/humidity sensor reading.
//
// The write is non-blocking; the point is batched and sent asynchronously.
// Humidity may be nil for sensors that only report temperature.
//
// Example:
//
//	client.WriteTemperatureSample("att-01", "dev-01", 21.5, &humidity)
func (c *Client) WriteTemperatureSample(attachmentID, deviceID string, temperature float64, humidity *float64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"temperature": temperature,
	}
	if humidity != nil {
		fields["humidity"] = *humidity
	}

	point := write.NewPoint(
		"climate",
		map[string]string{
			"attachment_id": attachmentID,
			"device_id":     deviceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDoorSample mirrors a door sensor open/closed transition.
func (c *Client) WriteDoorSample(attachmentID, deviceID string, isOpen bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"door",
		map[string]string{
			"attachment_id": attachmentID,
			"device_id":     deviceID,
		},
		map[string]interface{}{
			"is_open": isOpen,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceOnline mirrors a controller online/offline transition, giving
// dashboards a fleet availability timeline.
func (c *Client) WriteDeviceOnline(deviceID, macAddress string, isOnline bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id": deviceID,
			"mac":       macAddress,
		},
		map[string]interface{}{
			"is_online": isOnline,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
// Use for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
