package device

import (
	"fmt"
	"time"
)

// AttachmentType identifies the kind of peripheral wired to a controller pin.
type AttachmentType string

// Attachment type constants.
const (
	TypeLight             AttachmentType = "light"
	TypeSocket            AttachmentType = "socket"
	TypeTemperatureSensor AttachmentType = "temperature-sensor"
	TypeDoorSensor        AttachmentType = "door-sensor"
)

// AllAttachmentTypes returns all valid attachment type values.
func AllAttachmentTypes() []AttachmentType {
	return []AttachmentType{TypeLight, TypeSocket, TypeTemperatureSensor, TypeDoorSensor}
}

// IsActuator reports whether the type accepts on/off commands.
// Sensors only ever report; commanding them is rejected.
func (t AttachmentType) IsActuator() bool {
	return t == TypeLight || t == TypeSocket
}

// Pin identifies the controller GPIO pin an attachment is wired to.
type Pin string

// Pin constants for the supported controller pins.
const (
	PinD1 Pin = "D1"
	PinD2 Pin = "D2"
	PinD3 Pin = "D3"
	PinD4 Pin = "D4"
)

// AllPins returns all valid pin values.
func AllPins() []Pin {
	return []Pin{PinD1, PinD2, PinD3, PinD4}
}

// ValueType describes the shape of a characteristic's current value.
type ValueType string

// Value type constants.
const (
	ValueTypeBool   ValueType = "bool"
	ValueTypeNumber ValueType = "number"
)

// defaultSampleInterval is applied to every new characteristic. Controllers
// that push on change (door sensors) still carry it; the value only matters
// to polling firmware.
const defaultSampleInterval = 1000 * time.Millisecond

// Characteristic is one observable or controllable property of an attachment.
type Characteristic struct {
	ValueType ValueType `json:"value_type"`
	Units     string    `json:"units,omitempty"`

	// CurrentValue is the last value seen over MQTT. Type follows ValueType:
	// bool for bool, float64 for number. Nil until the first report.
	CurrentValue any `json:"current_value,omitempty"`

	// SampleIntervalMs is how often firmware should sample this
	// characteristic. Zero disables sampling and excludes it from
	// configuration fan-out.
	SampleIntervalMs int `json:"sample_interval_ms"`

	// Invert flips the wire-level reading, for normally-closed contacts
	// and active-low relays.
	Invert bool `json:"invert"`
}

// Characteristics holds an attachment's properties keyed by well-known name.
// Which fields are set depends on the attachment type; Validate enforces the
// pairing.
type Characteristics struct {
	IsOn        *Characteristic `json:"is_on,omitempty"`
	IsOpen      *Characteristic `json:"is_open,omitempty"`
	Temperature *Characteristic `json:"temperature,omitempty"`
	Humidity    *Characteristic `json:"humidity,omitempty"`
}

// Characteristic names used in configuration fan-out and API payloads.
const (
	CharacteristicIsOn        = "isOn"
	CharacteristicIsOpen      = "isOpen"
	CharacteristicTemperature = "temperature"
	CharacteristicHumidity    = "humidity"
)

// NamedCharacteristic pairs a characteristic with its wire name.
type NamedCharacteristic struct {
	Name string
	C    *Characteristic
}

// Named returns the set characteristics with their wire names, in a fixed
// order so fan-out and tests are deterministic.
func (c Characteristics) Named() []NamedCharacteristic {
	var out []NamedCharacteristic
	if c.IsOn != nil {
		out = append(out, NamedCharacteristic{CharacteristicIsOn, c.IsOn})
	}
	if c.IsOpen != nil {
		out = append(out, NamedCharacteristic{CharacteristicIsOpen, c.IsOpen})
	}
	if c.Temperature != nil {
		out = append(out, NamedCharacteristic{CharacteristicTemperature, c.Temperature})
	}
	if c.Humidity != nil {
		out = append(out, NamedCharacteristic{CharacteristicHumidity, c.Humidity})
	}
	return out
}

// Sampled returns the characteristics that participate in configuration
// fan-out: those with a positive sample interval.
func (c Characteristics) Sampled() []NamedCharacteristic {
	var out []NamedCharacteristic
	for _, nc := range c.Named() {
		if nc.C.SampleIntervalMs > 0 {
			out = append(out, nc)
		}
	}
	return out
}

// DefaultCharacteristics returns the characteristic set for a new attachment
// of the given type, with sampling defaults applied.
func DefaultCharacteristics(t AttachmentType) (Characteristics, error) {
	interval := int(defaultSampleInterval / time.Millisecond)

	switch t {
	case TypeLight, TypeSocket:
		return Characteristics{
			IsOn: &Characteristic{
				ValueType:        ValueTypeBool,
				CurrentValue:     false,
				SampleIntervalMs: interval,
			},
		}, nil
	case TypeDoorSensor:
		return Characteristics{
			IsOpen: &Characteristic{
				ValueType:        ValueTypeBool,
				SampleIntervalMs: interval,
			},
		}, nil
	case TypeTemperatureSensor:
		return Characteristics{
			Temperature: &Characteristic{
				ValueType:        ValueTypeNumber,
				Units:            "celsius",
				SampleIntervalMs: interval,
			},
			Humidity: &Characteristic{
				ValueType:        ValueTypeNumber,
				Units:            "percent",
				SampleIntervalMs: interval,
			},
		}, nil
	default:
		return Characteristics{}, fmt.Errorf("%w: %q", ErrInvalidAttachmentType, t)
	}
}

// Validate checks that the characteristic set matches the attachment type.
func (c Characteristics) Validate(t AttachmentType) error {
	switch t {
	case TypeLight, TypeSocket:
		if c.IsOn == nil {
			return fmt.Errorf("%w: %s requires isOn", ErrInvalidCharacteristics, t)
		}
		if c.IsOpen != nil || c.Temperature != nil || c.Humidity != nil {
			return fmt.Errorf("%w: %s only supports isOn", ErrInvalidCharacteristics, t)
		}
	case TypeDoorSensor:
		if c.IsOpen == nil {
			return fmt.Errorf("%w: %s requires isOpen", ErrInvalidCharacteristics, t)
		}
		if c.IsOn != nil || c.Temperature != nil || c.Humidity != nil {
			return fmt.Errorf("%w: %s only supports isOpen", ErrInvalidCharacteristics, t)
		}
	case TypeTemperatureSensor:
		if c.Temperature == nil {
			return fmt.Errorf("%w: %s requires temperature", ErrInvalidCharacteristics, t)
		}
		if c.IsOn != nil || c.IsOpen != nil {
			return fmt.Errorf("%w: %s only supports temperature and humidity", ErrInvalidCharacteristics, t)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAttachmentType, t)
	}

	for _, nc := range c.Named() {
		if nc.C.SampleIntervalMs < 0 {
			return fmt.Errorf("%w: %s sample interval must not be negative", ErrInvalidCharacteristics, nc.Name)
		}
		switch nc.C.ValueType {
		case ValueTypeBool, ValueTypeNumber:
		default:
			return fmt.Errorf("%w: %s has unknown value type %q", ErrInvalidCharacteristics, nc.Name, nc.C.ValueType)
		}
	}

	return nil
}

// Attachment is a peripheral wired to one pin of a controller.
type Attachment struct {
	ID       string         `json:"id"`
	DeviceID string         `json:"device_id"`
	Name     string         `json:"name"`
	Type     AttachmentType `json:"type"`
	Pin      Pin            `json:"pin"`

	Characteristics Characteristics `json:"characteristics"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the attachment for errors.
func (a *Attachment) Validate() error {
	if a.DeviceID == "" {
		return fmt.Errorf("%w: device_id is required", ErrInvalidAttachment)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAttachment)
	}

	validType := false
	for _, t := range AllAttachmentTypes() {
		if a.Type == t {
			validType = true
			break
		}
	}
	if !validType {
		return fmt.Errorf("%w: %q", ErrInvalidAttachmentType, a.Type)
	}

	validPin := false
	for _, p := range AllPins() {
		if a.Pin == p {
			validPin = true
			break
		}
	}
	if !validPin {
		return fmt.Errorf("%w: %q", ErrInvalidPin, a.Pin)
	}

	return a.Characteristics.Validate(a.Type)
}
