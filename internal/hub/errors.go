package hub

import "errors"

// Errors returned by hub construction and boundary operations.
var (
	// ErrNoMQTTClient is returned by New when no MQTT client is provided.
	ErrNoMQTTClient = errors.New("hub: mqtt client is required")

	// ErrNoRepository is returned by New when a repository is missing.
	ErrNoRepository = errors.New("hub: device, attachment and event repositories are required")

	// ErrSubscriptionStopped is returned when collecting on a stopped subscription.
	ErrSubscriptionStopped = errors.New("hub: subscription stopped")
)
