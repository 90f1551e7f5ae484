package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/telegram"
)

// BusClient is the subset of a routing or tunnel client's API the bridge
// needs: enough to mirror telegrams onto the broker and to turn broker
// commands back into bus traffic.
type BusClient interface {
	Subscribe(id any) <-chan telegram.Telegram
	Unsubscribe(id any)
	WriteGroupAddress(ga address.GroupAddress, value any) error
	ReadGroupAddress(ctx context.Context, ga address.GroupAddress) (any, error)
}

// commandTimeout bounds the read_group_address call a command-topic message
// triggers; the broker does not wait for it, so this only prevents a slow
// bus from leaking a goroutine.
const commandTimeout = 5 * time.Second

// stateMessage is the JSON payload published to a group's state topic.
type stateMessage struct {
	Source string `json:"source"`
	Value  any    `json:"value"`
	At     int64  `json:"at"`
}

// Bridge mirrors a bus client's telegrams onto knxnetip/state/... topics and
// turns knxnetip/command/... and knxnetip/read/... messages back into bus
// writes and reads.
type Bridge struct {
	client   *Client
	bus      BusClient
	clientID string
	logger   *slog.Logger

	subID any
	done  chan struct{}
}

// NewBridge builds a Bridge. clientID identifies this bus client in topic
// paths (e.g. "routing-01").
func NewBridge(client *Client, bus BusClient, clientID string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{client: client, bus: bus, clientID: clientID, logger: logger, done: make(chan struct{})}
}

// Start subscribes to bus telegrams for republishing and to the broker's
// command/read topics, then returns. It runs until ctx is cancelled or
// Close is called.
func (b *Bridge) Start(ctx context.Context) error {
	topics := Topics{}

	if err := b.client.Subscribe(topics.AllGroupCommands(), 1, b.handleCommand); err != nil {
		return fmt.Errorf("mqtt bridge: subscribe commands: %w", err)
	}

	readPattern := fmt.Sprintf("%s/read/+/#", TopicPrefix)
	if err := b.client.Subscribe(readPattern, 1, b.handleRead); err != nil {
		return fmt.Errorf("mqtt bridge: subscribe reads: %w", err)
	}

	b.subID = new(int)
	telegrams := b.bus.Subscribe(b.subID)
	go b.republish(ctx, telegrams)

	return nil
}

// Close stops republishing bus telegrams. Broker subscriptions are left to
// the underlying Client's own lifecycle.
func (b *Bridge) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
		if b.subID != nil {
			b.bus.Unsubscribe(b.subID)
		}
	}
}

func (b *Bridge) republish(ctx context.Context, telegrams <-chan telegram.Telegram) {
	for {
		select {
		case t, ok := <-telegrams:
			if !ok {
				return
			}
			if t.Kind == telegram.GroupRead {
				continue // no value to publish
			}
			b.publishState(t)
		case <-ctx.Done():
			return
		case <-b.done:
			return
		}
	}
}

func (b *Bridge) publishState(t telegram.Telegram) {
	payload, err := json.Marshal(stateMessage{Source: t.Source.String(), Value: t.Value, At: time.Now().Unix()})
	if err != nil {
		b.logger.Warn("mqtt bridge: marshal state message failed", slog.Any("error", err))
		return
	}
	topic := Topics{}.GroupState(b.clientID, t.Destination.String())
	if err := b.client.PublishRetained(topic, payload); err != nil {
		b.logger.Warn("mqtt bridge: publish state failed", slog.String("topic", topic), slog.Any("error", err))
	}
}

// handleCommand turns a knxnetip/command/{client_id}/{ga} message into a
// write_group_address call. The payload is the raw JSON value to write.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	ga, ok := groupAddressFromTopic(topic, "command")
	if !ok {
		return fmt.Errorf("mqtt bridge: malformed command topic %q", topic)
	}
	addr, err := address.ParseGroupAddress(ga)
	if err != nil {
		return fmt.Errorf("mqtt bridge: %w", err)
	}
	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return fmt.Errorf("mqtt bridge: decode command payload: %w", err)
	}
	return b.bus.WriteGroupAddress(addr, value)
}

// handleRead turns a knxnetip/read/{client_id}/{ga} message into a
// read_group_address call. The result, if any, surfaces via the normal
// state-topic republish path once the bus delivers the group_response.
func (b *Bridge) handleRead(topic string, _ []byte) error {
	ga, ok := groupAddressFromTopic(topic, "read")
	if !ok {
		return fmt.Errorf("mqtt bridge: malformed read topic %q", topic)
	}
	addr, err := address.ParseGroupAddress(ga)
	if err != nil {
		return fmt.Errorf("mqtt bridge: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_, err = b.bus.ReadGroupAddress(ctx, addr)
	return err
}

// groupAddressFromTopic extracts the "M/I/S" group address from a
// knxnetip/{category}/{client_id}/{ga...} topic. The group address itself
// contains slashes, so only the category and client_id segments are
// stripped from the front.
func groupAddressFromTopic(topic, category string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", TopicPrefix, category)
	rest, ok := strings.CutPrefix(topic, prefix)
	if !ok {
		return "", false
	}
	_, ga, ok := strings.Cut(rest, "/")
	return ga, ok
}
