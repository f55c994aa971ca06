// Package api provides the HTTP REST surface for HomeHub Core.
//
// It exposes room, device, and attachment management plus sensor history
// readout to local clients. Handlers are deliberately thin: they decode
// JSON, call a repository or a hub boundary function, and encode the
// result. Anything that touches the controller fleet goes through the hub.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
