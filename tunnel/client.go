// Package tunnel implements the unicast KNXnet/IP tunnelling client
// described in §4.7: the same read/write/subscribe contract as the routing
// client, layered over a connect/heartbeat/disconnect handshake with a
// gateway and a single-frame-in-flight send queue.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/cemi"
	"github.com/hausnet/knxnetip/frame"
	"github.com/hausnet/knxnetip/knxnet"
	"github.com/hausnet/knxnetip/telegram"
)

// DefaultPort is the KNXnet/IP tunnelling server's well-known port.
const DefaultPort = 3671

const (
	heartbeatInterval      = 60 * time.Second
	heartbeatAckTimeout    = 10 * time.Second
	connectResponseTimeout = 10 * time.Second
	connectResponseBackoff = 10 * time.Second
)

// ErrUnknownGroupAddress is returned by read/write operations on a group
// address that is neither configured nor allowed as unknown.
var ErrUnknownGroupAddress = errors.New("unknown_group_address")

// ErrTimeout is returned by ReadGroupAddress when no matching group_response
// arrives within the configured timeout.
var ErrTimeout = errors.New("timeout")

// State is the tunnel client's connection state machine position.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// FrameCallback is invoked after the receive path has attempted to handle
// an inbound datagram. Panics are recovered, logged, and swallowed.
type FrameCallback func(f *frame.Frame, handled bool)

// Config configures a Client at construction.
type Config struct {
	// GatewayAddr is the tunnelling server to connect to.
	GatewayAddr *net.UDPAddr
	// LocalAddr optionally pins the local socket; nil lets the OS choose.
	LocalAddr *net.UDPAddr
	// AllowUnknownGPA, if true, permits reads and sends on group addresses
	// not in GroupAddresses.
	AllowUnknownGPA bool
	// GroupAddresses maps "M/I/S" strings to "main.sub" DPT strings.
	GroupAddresses map[string]string
	// SourceAddress is stamped on outgoing frames; if zero, the address the
	// gateway assigns in its connect_response is used instead.
	SourceAddress address.IndividualAddress
	FrameCallback FrameCallback
	// ReadTimeout bounds ReadGroupAddress; defaults to 3s.
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

func (cfg *Config) setDefaults() {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

type subscriber struct {
	id any
	ch chan telegram.Telegram
}

type queuedSend struct {
	record cemi.DataRecord
	dest   uint16
}

// Client is a running tunnelling client. Construct with Dial.
type Client struct {
	cfg    Config
	conn   *net.UDPConn
	logger *slog.Logger

	cmd    chan func()
	closed chan struct{}

	groupAddresses map[address.GroupAddress]string
	subscribers    []subscriber

	state           State
	channelID       uint8
	sourceAddress   address.IndividualAddress
	seqOut          uint8
	lastSeqIn       int // -1 until the first inbound frame is processed
	inFlight        bool
	queue           []queuedSend
	heartbeatTimer  *time.Timer
	connectTimer    *time.Timer
	reconnectTimer  *time.Timer
}

// Dial opens the local socket and starts the client's connect/event loop.
// The initial connect attempt runs asynchronously; poll State to observe
// when the handshake completes.
func Dial(cfg Config) (*Client, error) {
	cfg.setDefaults()
	if cfg.GatewayAddr == nil {
		return nil, fmt.Errorf("tunnel: GatewayAddr is required")
	}

	gas := make(map[address.GroupAddress]string, len(cfg.GroupAddresses))
	for gaStr, dptName := range cfg.GroupAddresses {
		ga, err := address.ParseGroupAddress(gaStr)
		if err != nil {
			return nil, fmt.Errorf("tunnel: %w", err)
		}
		gas[ga] = dptName
	}

	conn, err := net.ListenUDP("udp4", cfg.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("tunnel: listen: %w", err)
	}

	c := &Client{
		cfg:            cfg,
		conn:           conn,
		logger:         cfg.Logger,
		cmd:            make(chan func()),
		closed:         make(chan struct{}),
		groupAddresses: gas,
		sourceAddress:  cfg.SourceAddress,
		lastSeqIn:      -1,
	}
	go c.readLoop()
	go c.run()
	c.exec(func() { c.beginConnect() })
	return c, nil
}

// Close disconnects (if connected) and releases the socket.
func (c *Client) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
	}
	c.exec(func() {
		if c.state == Connected {
			c.sendBody(frame.DisconnectRequest{ChannelID: c.channelID, ControlEndpoint: c.localHPAI()})
		}
		c.stopTimers()
	})
	close(c.closed)
	return c.conn.Close()
}

func (c *Client) exec(fn func()) bool {
	select {
	case c.cmd <- fn:
		return true
	case <-c.closed:
		return false
	}
}

func (c *Client) readLoop() {
	buf := make([]byte, 2048)
	for {
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		datagram := append([]byte(nil), buf[:n]...)
		if !c.exec(func() { c.handleDatagram(datagram) }) {
			return
		}
	}
}

func (c *Client) run() {
	for {
		select {
		case fn := <-c.cmd:
			fn()
		case <-c.closed:
			return
		}
	}
}

func (c *Client) localHPAI() frame.HPAI {
	local := c.conn.LocalAddr().(*net.UDPAddr)
	var h frame.HPAI
	h.Protocol = frame.UDP
	if ip4 := local.IP.To4(); ip4 != nil {
		copy(h.IP[:], ip4)
	}
	h.Port = uint16(local.Port)
	return h
}

func (c *Client) sendBody(body frame.Body) {
	if _, err := c.conn.WriteToUDP(frame.Encode(body), c.cfg.GatewayAddr); err != nil {
		c.logger.Debug("tunnel: write failed", slog.Any("error", err))
	}
}

// --- connection lifecycle ---

func (c *Client) beginConnect() {
	c.state = Connecting
	c.sendBody(frame.ConnectRequest{ControlEndpoint: c.localHPAI(), DataEndpoint: c.localHPAI()})
	c.connectTimer = time.AfterFunc(connectResponseTimeout, func() {
		c.exec(func() {
			if c.state == Connecting {
				c.logger.Info("tunnel: connect_response timed out")
				c.scheduleReconnect(connectResponseBackoff)
			}
		})
	})
}

func (c *Client) scheduleReconnect(backoff time.Duration) {
	c.stopTimers()
	c.state = Disconnected
	c.inFlight = false
	c.queue = nil
	if backoff <= 0 {
		c.exec(func() { c.beginConnect() })
		return
	}
	c.reconnectTimer = time.AfterFunc(backoff, func() {
		c.exec(func() { c.beginConnect() })
	})
}

func (c *Client) stopTimers() {
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
	}
	if c.connectTimer != nil {
		c.connectTimer.Stop()
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
}

func (c *Client) scheduleHeartbeat() {
	c.heartbeatTimer = time.AfterFunc(heartbeatInterval, func() {
		c.exec(func() { c.sendHeartbeat() })
	})
}

func (c *Client) sendHeartbeat() {
	if c.state != Connected {
		return
	}
	c.sendBody(frame.ConnectionStateRequest{ChannelID: c.channelID, ControlEndpoint: c.localHPAI()})
	c.heartbeatTimer = time.AfterFunc(heartbeatAckTimeout, func() {
		c.exec(func() {
			if c.state == Connected {
				c.logger.Info("tunnel: connectionstate heartbeat timed out")
				c.scheduleReconnect(0)
			}
		})
	})
}

// --- receive path ---

func (c *Client) handleDatagram(raw []byte) {
	f, err := frame.Parse(raw)
	if err != nil {
		c.logger.Debug("tunnel: dropping unparseable datagram", slog.Any("error", err))
		return
	}
	handled := c.dispatch(f)
	c.invokeFrameCallback(f, handled)
}

func (c *Client) dispatch(f *frame.Frame) bool {
	switch body := f.Body.(type) {
	case frame.ConnectResponse:
		return c.onConnectResponse(body)
	case frame.ConnectionStateResponse:
		return c.onConnectionStateResponse(body)
	case frame.TunnellingRequest:
		return c.onTunnellingRequest(body)
	case frame.TunnellingAck:
		return c.onTunnellingAck(body)
	case frame.DisconnectRequest:
		return c.onDisconnectRequest(body)
	case frame.DisconnectResponse:
		return true
	default:
		return false
	}
}

func (c *Client) onConnectResponse(body frame.ConnectResponse) bool {
	if c.state != Connecting {
		return false
	}
	if c.connectTimer != nil {
		c.connectTimer.Stop()
	}
	if body.Status != 0 {
		c.logger.Info("tunnel: connect_response error", slog.Int("status", int(body.Status)))
		c.scheduleReconnect(connectResponseBackoff)
		return true
	}
	c.channelID = body.ChannelID
	if c.sourceAddress == (address.IndividualAddress{}) {
		c.sourceAddress = address.IndividualAddressFromUint16(body.AssignedAddress)
	}
	c.state = Connected
	c.seqOut = 0
	c.lastSeqIn = -1
	c.scheduleHeartbeat()
	c.logger.Info("tunnel: connected", slog.Int("channel_id", int(c.channelID)))
	c.drainQueue()
	return true
}

func (c *Client) onConnectionStateResponse(body frame.ConnectionStateResponse) bool {
	if c.state != Connected || body.ChannelID != c.channelID {
		return false
	}
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
	}
	if body.Status != 0 {
		c.logger.Info("tunnel: connectionstate error", slog.Int("status", int(body.Status)))
		c.scheduleReconnect(0)
		return true
	}
	c.scheduleHeartbeat()
	return true
}

func (c *Client) onDisconnectRequest(body frame.DisconnectRequest) bool {
	c.sendBody(frame.DisconnectResponse{ChannelID: body.ChannelID, Status: 0})
	if c.state != Disconnected {
		c.logger.Info("tunnel: gateway requested disconnect")
		c.scheduleReconnect(0)
	}
	return true
}

func (c *Client) onTunnellingRequest(body frame.TunnellingRequest) bool {
	if c.state != Connected || body.ChannelID != c.channelID {
		return false
	}
	c.sendBody(frame.TunnellingAck{ChannelID: c.channelID, SequenceCounter: body.SequenceCounter, Status: 0})

	seq := int(body.SequenceCounter)
	if seq == c.lastSeqIn {
		return true // duplicate retransmission, already processed
	}
	c.lastSeqIn = seq

	if body.CEMI.MessageCode != knxnet.DataRequest && body.CEMI.MessageCode != knxnet.DataIndicator {
		return false
	}
	rec := body.CEMI.Record
	if rec == nil || rec.IsControl() {
		return false
	}
	kind, ok := telegram.KindFromAPCI(rec.APCI)
	if !ok {
		return false
	}
	ga := address.GroupAddressFromUint16(body.CEMI.Dest)
	dptName, known := c.groupAddresses[ga]
	if !known && !c.cfg.AllowUnknownGPA {
		c.logger.Debug("tunnel: dropping frame for unknown group address", slog.String("ga", ga.String()))
		return false
	}
	t, err := telegram.Decode(kind, body.CEMI.Source, body.CEMI.Dest, rec.Value, dptName)
	if err != nil {
		c.logger.Debug("tunnel: decode failed", slog.String("ga", ga.String()), slog.Any("error", err))
		return false
	}
	subs := append([]subscriber(nil), c.subscribers...)
	go func() {
		for _, s := range subs {
			select {
			case s.ch <- t:
			default:
			}
		}
	}()
	return true
}

func (c *Client) onTunnellingAck(body frame.TunnellingAck) bool {
	if c.state != Connected || body.ChannelID != c.channelID || !c.inFlight {
		return false
	}
	c.inFlight = false
	if body.Status != 0 {
		c.logger.Info("tunnel: tunnelling_ack error", slog.Int("status", int(body.Status)))
		c.scheduleReconnect(0)
		return true
	}
	c.drainQueue()
	return true
}

func (c *Client) invokeFrameCallback(f *frame.Frame, handled bool) {
	cb := c.cfg.FrameCallback
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("tunnel: frame_callback panicked", slog.Any("recover", r))
		}
	}()
	cb(f, handled)
}

// --- send queue ---

func (c *Client) enqueue(record cemi.DataRecord, dest uint16) {
	c.queue = append(c.queue, queuedSend{record: record, dest: dest})
	if c.state == Connected && !c.inFlight {
		c.drainQueue()
	}
}

func (c *Client) drainQueue() {
	if c.inFlight || len(c.queue) == 0 || c.state != Connected {
		return
	}
	head := c.queue[0]
	c.queue = c.queue[1:]
	c.inFlight = true
	req := frame.TunnellingRequest{
		ChannelID:       c.channelID,
		SequenceCounter: c.seqOut,
		CEMI: frame.RoutingIndication{
			MessageCode: knxnet.DataRequest,
			Control:     knxnet.DefaultControlField.WithDestinationGroup(true),
			Source:      c.sourceAddress.ToUint16(),
			Dest:        head.dest,
			Record:      &head.record,
		},
	}
	c.seqOut++
	c.sendBody(req)
}

// --- public API ---

// Subscribe registers id to receive every decoded Telegram. The returned
// channel is closed by Unsubscribe; closing the client does not close it.
func (c *Client) Subscribe(id any) <-chan telegram.Telegram {
	ch := make(chan telegram.Telegram, 16)
	c.exec(func() {
		c.subscribers = append(c.subscribers, subscriber{id: id, ch: ch})
	})
	return ch
}

// Unsubscribe removes the first subscriber entry matching id, if any.
func (c *Client) Unsubscribe(id any) {
	c.exec(func() {
		for i, s := range c.subscribers {
			if s.id == id {
				close(s.ch)
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				return
			}
		}
	})
}

// State returns the client's current connection state.
func (c *Client) State() State {
	reply := make(chan State, 1)
	c.exec(func() { reply <- c.state })
	return <-reply
}

// GetGroupAddresses returns the current "M/I/S" -> "main.sub" table.
func (c *Client) GetGroupAddresses() map[string]string {
	reply := make(chan map[string]string, 1)
	c.exec(func() {
		out := make(map[string]string, len(c.groupAddresses))
		for ga, dptName := range c.groupAddresses {
			out[ga.String()] = dptName
		}
		reply <- out
	})
	return <-reply
}

// AddGroupAddress configures ga with dptName at runtime.
func (c *Client) AddGroupAddress(ga address.GroupAddress, dptName string) {
	c.exec(func() { c.groupAddresses[ga] = dptName })
}

// RemoveGroupAddress deconfigures ga.
func (c *Client) RemoveGroupAddress(ga address.GroupAddress) {
	c.exec(func() { delete(c.groupAddresses, ga) })
}

// ReadGroupAddress sends a group_read to ga and waits for the first
// matching group_response, up to the client's configured read timeout.
func (c *Client) ReadGroupAddress(ctx context.Context, ga address.GroupAddress) (any, error) {
	allowed := make(chan bool, 1)
	c.exec(func() {
		_, known := c.groupAddresses[ga]
		allowed <- known || c.cfg.AllowUnknownGPA
	})
	if !<-allowed {
		return nil, fmt.Errorf("tunnel: read %s: %w", ga, ErrUnknownGroupAddress)
	}

	readTelegram := telegram.Telegram{Kind: telegram.GroupRead, Destination: ga}
	if err := c.sendTelegram(readTelegram); err != nil {
		return nil, fmt.Errorf("tunnel: read %s: %w", ga, err)
	}

	id := new(int)
	ch := c.Subscribe(id)
	defer c.Unsubscribe(id)

	timer := time.NewTimer(c.cfg.ReadTimeout)
	defer timer.Stop()
	for {
		select {
		case t, ok := <-ch:
			if !ok {
				return nil, fmt.Errorf("tunnel: read %s: client closed", ga)
			}
			if t.Kind == telegram.GroupResponse && t.Destination == ga {
				return t.Value, nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("tunnel: read %s: %w", ga, ErrTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// WriteGroupAddress DPT-encodes value (or takes it as raw bits if ga is
// unknown and AllowUnknownGPA is set) and queues a group_write to ga.
func (c *Client) WriteGroupAddress(ga address.GroupAddress, value any) error {
	t := telegram.Telegram{Kind: telegram.GroupWrite, Destination: ga, Value: value}
	if err := c.sendTelegram(t); err != nil {
		return fmt.Errorf("tunnel: write %s: %w", ga, err)
	}
	return nil
}

func (c *Client) sendTelegram(t telegram.Telegram) error {
	reply := make(chan struct {
		dptName string
		known   bool
	}, 1)
	c.exec(func() {
		dptName, known := c.groupAddresses[t.Destination]
		reply <- struct {
			dptName string
			known   bool
		}{dptName, known}
	})
	info := <-reply
	if !info.known && !c.cfg.AllowUnknownGPA {
		return ErrUnknownGroupAddress
	}
	valueBytes, err := telegram.Encode(t, info.dptName)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	record := cemi.DataRecord{TPCI: knxnet.UnnumberedData, APCI: t.Kind.APCI(), Value: valueBytes}
	dest := t.Destination.ToUint16()
	c.exec(func() { c.enqueue(record, dest) })
	return nil
}

// SendFrame encodes body and emits it directly to the gateway, bypassing
// the telegram send queue; no DPT encoding is applied.
func (c *Client) SendFrame(body frame.Body) error {
	c.exec(func() { c.sendBody(body) })
	return nil
}
