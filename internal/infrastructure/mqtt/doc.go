// Package mqtt provides MQTT client connectivity for melodeck.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// melodeck uses MQTT for observability, not for MIDI: the controller
// publishes its online status, performer activity transitions, and a
// periodic heartbeat so the rest of the installation can monitor it.
// The single command topic accepts a remote panic (all notes off)
// request.
//
//	melodeck ↔ MQTT Broker ↔ installation monitoring
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//   - Publishing happens off the scan loop; a slow broker never
//     delays MIDI output
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// React to remote panic requests
//	err = client.Subscribe(mqtt.Topics{}.SystemPanic(), 1,
//	    func(topic string, payload []byte) error {
//	        engine.Panic()
//	        return nil
//	    })
//
//	// Publish activity state
//	topic := mqtt.Topics{}.ActivityState()
//	client.Publish(topic, []byte(`{"state":"active"}`), 1, true)
package mqtt
