// Command knxnetipd runs the KNXnet/IP bus daemon: it connects to a routing
// or tunnelling gateway, keeps an address-value cache up to date, and
// optionally bridges to MQTT, writes to InfluxDB, and serves a read-only
// monitor API.
package main

import "github.com/hausnet/knxnetip/cmd/knxnetipd/cmd"

func main() {
	cmd.Execute()
}
