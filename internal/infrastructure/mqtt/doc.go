// Package mqtt provides MQTT client connectivity for knxnetip.
//
// This package manages:
//   - Connection to a broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The routing and tunnel clients decode telegrams off the KNX bus; this
// package lets a host application mirror those telegrams onto an MQTT bus
// for downstream consumers, and accept write/read commands back.
//
//	KNX bus ↔ routing/tunnel client ↔ MQTT broker ↔ other services
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all published group states
//	err = client.Subscribe(mqtt.Topics{}.AllGroupStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a decoded group state
//	topic := mqtt.Topics{}.GroupState("routing-01", "1/2/3")
//	client.Publish(topic, []byte(`{"value":true}`), 1, false)
package mqtt
