package mqtt

import "fmt"

// Topic scheme for KNXnet/IP telegram events published over MQTT.
//
// All topics use the flat scheme: knxnetip/{category}/{client_id}/{address}
const (
	// TopicPrefix is the base for all telegram event topics.
	TopicPrefix = "knxnetip"

	// TopicPrefixSystem is the base for client lifecycle topics.
	TopicPrefixSystem = "knxnetip/system"
)

// Topics provides builders for knxnetip MQTT topics.
// Using these helpers ensures consistent topic naming across publishers
// and subscribers.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.GroupState("routing-01", "1/2/3")
//	// Returns: "knxnetip/state/routing-01/1/2/3"
type Topics struct{}

// GroupState returns the topic a client publishes decoded group values to.
//
// Example: knxnetip/state/routing-01/1/2/3
func (Topics) GroupState(clientID, ga string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, clientID, ga)
}

// GroupCommand returns the topic external services use to request a write.
//
// Example: knxnetip/command/routing-01/1/2/3
func (Topics) GroupCommand(clientID, ga string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, clientID, ga)
}

// GroupRead returns the topic external services use to request a bus read.
//
// Example: knxnetip/read/routing-01/1/2/3
func (Topics) GroupRead(clientID, ga string) string {
	return fmt.Sprintf("%s/read/%s/%s", TopicPrefix, clientID, ga)
}

// Health returns the topic for client health/status reports.
//
// Example: knxnetip/health/routing-01
func (Topics) Health(clientID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, clientID)
}

// SystemStatus returns the client's online/offline status topic, used as
// the Last Will and Testament topic.
//
// Example: knxnetip/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllGroupStates returns a pattern matching every published group state.
//
// Pattern: knxnetip/state/+/#
func (Topics) AllGroupStates() string {
	return fmt.Sprintf("%s/state/+/#", TopicPrefix)
}

// AllGroupCommands returns a pattern matching every incoming command.
//
// Pattern: knxnetip/command/+/#
func (Topics) AllGroupCommands() string {
	return fmt.Sprintf("%s/command/+/#", TopicPrefix)
}
