// Package device holds the HomeHub device model and its persistence.
//
// The model has three levels:
//
//	Room → Device → Attachment
//
// A Device is a physical microcontroller, identified on the wire by its MAC
// address. An Attachment is a peripheral (light, socket, temperature sensor,
// door sensor) wired to one of the controller's pins. Each attachment
// carries a Characteristics set describing what it reports or accepts,
// including the sampling interval pushed to firmware during configuration
// fan-out.
//
// Persistence is SQLite behind the Repository, RoomRepository, and
// AttachmentRepository interfaces. Characteristics are stored as a JSON
// column; everything else is flat.
package device
