// Package monitor provides a read-only HTTP API for observing a running
// knxnetipd bus client: the current address-value cache and a live
// WebSocket stream of decoded telegrams.
//
// It deliberately exposes no write endpoints — group writes belong to the
// mqtt command topic, not this API. Every route except /healthz requires a
// bearer JWT signed with the configured secret.
//
// # Usage
//
//	server, err := monitor.New(deps)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package monitor
