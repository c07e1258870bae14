package mqtt

import (
	"fmt"
)

// maxPayloadSize caps publishes at 1MB. Status payloads are a few
// hundred bytes; anything near this limit is a bug upstream.
const maxPayloadSize = 1 << 20

// Publish sends a message to the given topic.
//
// Validation (empty topic, QoS above 2, oversized payload) happens
// before the connection check, so these errors are reportable even on
// a disconnected client. Retained messages are used for state topics
// (system status, activity state) so late subscribers see the current
// value; heartbeats and commands are not retained.
//
// Example:
//
//	topic := mqtt.Topics{}.ActivityState()
//	err := client.Publish(topic, []byte(`{"state":"active"}`), 1, true)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload. Equivalent to Publish
// with []byte(payload).
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured
// default QoS. Used for state updates.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
