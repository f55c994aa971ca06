package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/homehub/hub-core/internal/device"
)

// listenerEntry is one ephemeral listener for an exact topic.
type listenerEntry struct {
	id uint64
	fn func(payload []byte)
}

// On registers an ephemeral listener for an exact topic and returns its
// removal func. The caller owns the listener's lifetime; nothing expires
// it automatically.
//
// Listeners run on the dispatch goroutine, before built-in handlers, in
// registration order. They see every JSON-valid payload for the topic.
func (h *Hub) On(topic string, fn func(payload []byte)) (remove func()) {
	h.listenerMu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[topic] = append(h.listeners[topic], listenerEntry{id: id, fn: fn})
	h.listenerMu.Unlock()

	return func() {
		h.listenerMu.Lock()
		defer h.listenerMu.Unlock()

		entries := h.listeners[topic]
		for i, e := range entries {
			if e.id == id {
				h.listeners[topic] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
		if len(h.listeners[topic]) == 0 {
			delete(h.listeners, topic)
		}
	}
}

// notifyListeners invokes ephemeral listeners for an exact topic.
func (h *Hub) notifyListeners(topic string, payload []byte) {
	h.listenerMu.Lock()
	entries := make([]listenerEntry, len(h.listeners[topic]))
	copy(entries, h.listeners[topic])
	h.listenerMu.Unlock()

	for _, e := range entries {
		e.fn(payload)
	}
}

// subscriptionBuffer bounds how many payloads a Subscription can hold
// between delivery and collection. Overflow drops the newest payload.
const subscriptionBuffer = 64

// Subscription is a bounded stream of payloads for one topic, the
// building block for fixed-window request/response over MQTT.
//
//	sub := h.Listen(topic)
//	defer sub.Stop()
//	h.Send(requestTopic, payload)
//	responses, _ := sub.Collect(ctx, window)
type Subscription struct {
	topic  string
	ch     chan []byte
	remove func()
	done   chan struct{}
}

// Listen starts collecting payloads published to an exact topic.
// Callers must Stop the subscription when done.
func (h *Hub) Listen(topic string) *Subscription {
	s := &Subscription{
		topic: topic,
		ch:    make(chan []byte, subscriptionBuffer),
		done:  make(chan struct{}),
	}

	s.remove = h.On(topic, func(payload []byte) {
		select {
		case s.ch <- payload:
		default:
			// Collector is behind; drop rather than stall dispatch.
		}
	})

	return s
}

// Collect gathers payloads until the window elapses or ctx is cancelled.
// Payloads arriving after the window are missed; that is the contract.
func (s *Subscription) Collect(ctx context.Context, window time.Duration) ([][]byte, error) {
	timer := time.NewTimer(window)
	defer timer.Stop()

	var collected [][]byte
	for {
		select {
		case payload := <-s.ch:
			collected = append(collected, payload)
		case <-timer.C:
			return collected, nil
		case <-ctx.Done():
			return collected, ctx.Err()
		case <-s.done:
			return collected, ErrSubscriptionStopped
		}
	}
}

// Stop detaches the subscription from the hub. Safe to call twice.
func (s *Subscription) Stop() {
	select {
	case <-s.done:
		return
	default:
	}
	s.remove()
	close(s.done)
}

// Discover asks unprovisioned controllers to identify themselves.
//
// It publishes a discovery request, collects responses for the window,
// and returns the MACs that are not already registered, deduplicated.
// Controllers answering after the window are silently missed.
func (h *Hub) Discover(ctx context.Context, window time.Duration) ([]DiscoveredDevice, error) {
	sub := h.Listen(h.topics.DiscoveryResponse())
	defer sub.Stop()

	h.Send(h.topics.Discovery(), []byte(`"report"`))

	payloads, err := sub.Collect(ctx, window)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	seen := make(map[string]bool)
	var discovered []DiscoveredDevice
	for _, payload := range payloads {
		var resp discoveryResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			h.logger.Warn("malformed discovery response", "error", err)
			continue
		}
		if resp.MACAddress == nil || *resp.MACAddress == "" {
			h.logger.Warn("discovery response missing mac", "payload", string(payload))
			continue
		}

		mac := device.NormalizeMAC(*resp.MACAddress)
		if seen[mac] {
			continue
		}
		seen[mac] = true

		// Already provisioned controllers are not discovery candidates.
		if _, err := h.devices.GetByMAC(ctx, mac); err == nil {
			continue
		} else if !errors.Is(err, device.ErrDeviceNotFound) {
			h.logger.Error("checking discovered mac", "mac", mac, "error", err)
			continue
		}

		discovered = append(discovered, DiscoveredDevice{MACAddress: mac})
	}

	return discovered, nil
}
