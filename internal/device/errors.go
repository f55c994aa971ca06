package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID or MAC does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device whose ID or MAC
	// address already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidMAC is returned when a MAC address is malformed.
	ErrInvalidMAC = errors.New("device: invalid mac address")

	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = errors.New("device: room not found")

	// ErrRoomExists is returned when creating a room with an ID that already exists.
	ErrRoomExists = errors.New("device: room already exists")

	// ErrInvalidRoom is returned when room validation fails.
	ErrInvalidRoom = errors.New("device: invalid room")

	// ErrAttachmentNotFound is returned when an attachment ID does not exist.
	ErrAttachmentNotFound = errors.New("device: attachment not found")

	// ErrAttachmentExists is returned when creating an attachment whose ID,
	// or (device, pin) pair, already exists.
	ErrAttachmentExists = errors.New("device: attachment already exists")

	// ErrInvalidAttachment is returned when attachment validation fails.
	ErrInvalidAttachment = errors.New("device: invalid attachment")

	// ErrInvalidAttachmentType is returned when an attachment type is not recognised.
	ErrInvalidAttachmentType = errors.New("device: invalid attachment type")

	// ErrInvalidPin is returned when a pin value is not recognised.
	ErrInvalidPin = errors.New("device: invalid pin")

	// ErrInvalidCharacteristics is returned when a characteristic set does
	// not match its attachment type.
	ErrInvalidCharacteristics = errors.New("device: invalid characteristics")

	// ErrNotActuator is returned when commanding a sensor attachment.
	ErrNotActuator = errors.New("device: attachment is not an actuator")
)
