// Package routing implements the multicast KNXnet/IP routing client
// described in §4.6: a long-lived UDP socket joined to the routing
// multicast group, owned by a single goroutine that serialises every
// public operation through a command channel and fans received telegrams
// out to subscribers.
package routing

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

// DefaultMulticastIP and DefaultPort are the routing multicast group and
// port fixed by the KNXnet/IP specification.
const (
	DefaultMulticastIP = "224.0.23.12"
	DefaultPort        = 3671
)

// ErrUnknownGroupAddress is returned by read/write operations on a group
// address that is neither configured nor allowed as unknown.
var ErrUnknownGroupAddress = errors.New("unknown_group_address")

// ErrTimeout is returned by ReadGroupAddress when no matching group_response
// arrives within the configured timeout.
var ErrTimeout = errors.New("timeout")

// FrameCallback is invoked once per inbound datagram, after the receive
// path has attempted to handle it. Panics and nothing else: a callback
// that misbehaves is logged and ignored, never allowed to take down the
// socket loop.
type FrameCallback func(f *frame.Frame, handled bool)

// Config configures a Client at construction.
type Config struct {
	// AllowUnknownGPA, if true, permits reads and sends on group addresses
	// not in GroupAddresses: received values surface as raw bytes and sent
	// values must already be encoded.
	AllowUnknownGPA bool
	// GroupAddresses maps "M/I/S" strings to "main.sub" DPT strings.
	GroupAddresses map[string]string
	// LocalIP is recorded in the client's log output; the multicast socket
	// is not bound to it and the OS chooses the interface.
	LocalIP net.IP
	// MulticastIP defaults to DefaultMulticastIP.
	MulticastIP net.IP
	// Port defaults to DefaultPort.
	Port int
	// SourceAddress is stamped on every outgoing cEMI data frame.
	SourceAddress address.IndividualAddress
	// FrameCallback is optional.
	FrameCallback FrameCallback
	// ReadTimeout bounds ReadGroupAddress; defaults to 3s.
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

func (cfg *Config) setDefaults() {
	if cfg.MulticastIP == nil {
		cfg.MulticastIP = net.ParseIP(DefaultMulticastIP)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
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

// Client is a running routing client. Construct with Dial.
type Client struct {
	cfg    Config
	conn   *net.UDPConn
	logger *slog.Logger

	cmd    chan func()
	closed chan struct{}

	groupAddresses map[address.GroupAddress]string
	subscribers    []subscriber
}

// Dial opens the multicast socket and starts the client's event loop.
func Dial(cfg Config) (*Client, error) {
	cfg.setDefaults()

	gas := make(map[address.GroupAddress]string, len(cfg.GroupAddresses))
	for gaStr, dptName := range cfg.GroupAddresses {
		ga, err := address.ParseGroupAddress(gaStr)
		if err != nil {
			return nil, fmt.Errorf("routing: %w", err)
		}
		gas[ga] = dptName
	}

	udpAddr := &net.UDPAddr{IP: cfg.MulticastIP, Port: cfg.Port}
	conn, err := net.ListenMulticastUDP("udp4", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("routing: listen multicast: %w", err)
	}
	if cfg.LocalIP != nil {
		// ListenMulticastUDP does not take a unicast source; outbound
		// writes still go via the OS's route to MulticastIP regardless of
		// which local interface joined the group, so LocalIP is recorded
		// for callers that need it but otherwise only informs logging.
		cfg.Logger = cfg.Logger.With(slog.String("local_ip", cfg.LocalIP.String()))
	}

	c := &Client{
		cfg:            cfg,
		conn:           conn,
		logger:         cfg.Logger,
		cmd:            make(chan func()),
		closed:         make(chan struct{}),
		groupAddresses: gas,
	}
	go c.readLoop()
	go c.run()
	return c, nil
}

// Close stops the event loop and releases the socket.
func (c *Client) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
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

// readLoop owns the blocking socket reads and feeds the event loop.
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

// run is the single goroutine owning subscribers and the group-address
// table; every public method reaches it through c.cmd.
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

func (c *Client) handleDatagram(raw []byte) {
	f, err := frame.Parse(raw)
	if err != nil {
		if errors.Is(err, frame.ErrIgnore) || errors.Is(err, frame.ErrInvalid) {
			c.logger.Debug("routing: dropping unparseable datagram", slog.Any("error", err))
			return
		}
		c.logger.Debug("routing: dropping datagram", slog.Any("error", err))
		return
	}
	handled := c.deliverIfGroupService(f)
	c.invokeFrameCallback(f, handled)
}

func (c *Client) deliverIfGroupService(f *frame.Frame) bool {
	ind, ok := f.Body.(frame.RoutingIndication)
	if !ok {
		return false
	}
	if ind.MessageCode != knxnet.DataRequest && ind.MessageCode != knxnet.DataIndicator {
		return false
	}
	if ind.Record == nil || ind.Record.IsControl() {
		return false
	}
	kind, ok := telegram.KindFromAPCI(ind.Record.APCI)
	if !ok {
		return false
	}

	ga := address.GroupAddressFromUint16(ind.Dest)
	dptName, known := c.groupAddresses[ga]
	if !known && !c.cfg.AllowUnknownGPA {
		c.logger.Debug("routing: dropping frame for unknown group address", slog.String("ga", ga.String()))
		return false
	}

	t, err := telegram.Decode(kind, ind.Source, ind.Dest, ind.Record.Value, dptName)
	if err != nil {
		c.logger.Debug("routing: decode failed", slog.String("ga", ga.String()), slog.Any("error", err))
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

func (c *Client) invokeFrameCallback(f *frame.Frame, handled bool) {
	cb := c.cfg.FrameCallback
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("routing: frame_callback panicked", slog.Any("recover", r))
		}
	}()
	cb(f, handled)
}

// Subscribe registers id to receive every decoded Telegram. id is supplied
// by the caller and need not be unique; it is only used by Unsubscribe to
// find the matching entry. The returned channel is closed by
// Unsubscribe; closing the client does not close it.
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
	c.exec(func() {
		c.groupAddresses[ga] = dptName
	})
}

// RemoveGroupAddress deconfigures ga.
func (c *Client) RemoveGroupAddress(ga address.GroupAddress) {
	c.exec(func() {
		delete(c.groupAddresses, ga)
	})
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
		return nil, fmt.Errorf("routing: read %s: %w", ga, ErrUnknownGroupAddress)
	}

	readTelegram := telegram.Telegram{Kind: telegram.GroupRead, Source: c.cfg.SourceAddress, Destination: ga}
	if err := c.sendTelegram(readTelegram); err != nil {
		return nil, fmt.Errorf("routing: read %s: %w", ga, err)
	}

	id := new(int) // unique identity for this call's temporary subscription
	ch := c.Subscribe(id)
	defer c.Unsubscribe(id)

	timeout := c.cfg.ReadTimeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case t, ok := <-ch:
			if !ok {
				return nil, fmt.Errorf("routing: read %s: client closed", ga)
			}
			if t.Kind == telegram.GroupResponse && t.Destination == ga {
				return t.Value, nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("routing: read %s: %w", ga, ErrTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// WriteGroupAddress DPT-encodes value (or takes it as raw bits if ga is
// unknown and AllowUnknownGPA is set) and sends a group_write to ga.
func (c *Client) WriteGroupAddress(ga address.GroupAddress, value any) error {
	reply := make(chan struct {
		dptName string
		known   bool
	}, 1)
	c.exec(func() {
		dptName, known := c.groupAddresses[ga]
		reply <- struct {
			dptName string
			known   bool
		}{dptName, known}
	})
	info := <-reply
	if !info.known && !c.cfg.AllowUnknownGPA {
		return fmt.Errorf("routing: write %s: %w", ga, ErrUnknownGroupAddress)
	}

	t := telegram.Telegram{Kind: telegram.GroupWrite, Source: c.cfg.SourceAddress, Destination: ga, Value: value}
	if err := c.sendTelegram(t); err != nil {
		return fmt.Errorf("routing: write %s: %w", ga, err)
	}
	return nil
}

func (c *Client) sendTelegram(t telegram.Telegram) error {
	dptName, _ := c.lookupDPT(t.Destination)
	valueBytes, err := telegram.Encode(t, dptName)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	record := cemi.DataRecord{TPCI: knxnet.UnnumberedData, APCI: t.Kind.APCI(), Value: valueBytes}
	ind := frame.RoutingIndication{
		MessageCode: knxnet.DataRequest,
		Control:     knxnet.DefaultControlField.WithDestinationGroup(true),
		Source:      t.Source.ToUint16(),
		Dest:        t.Destination.ToUint16(),
		Record:      &record,
	}
	return c.sendFrameBytes(frame.Encode(ind))
}

func (c *Client) lookupDPT(ga address.GroupAddress) (string, bool) {
	reply := make(chan string, 1)
	c.exec(func() {
		reply <- c.groupAddresses[ga]
	})
	name := <-reply
	return name, name != ""
}

// SendFrame encodes body and emits it on the multicast socket verbatim;
// no DPT encoding is applied.
func (c *Client) SendFrame(body frame.Body) error {
	return c.sendFrameBytes(frame.Encode(body))
}

// SendRaw emits a pre-encoded datagram verbatim.
func (c *Client) SendRaw(raw []byte) error {
	return c.sendFrameBytes(raw)
}

func (c *Client) sendFrameBytes(raw []byte) error {
	dst := &net.UDPAddr{IP: c.cfg.MulticastIP, Port: c.cfg.Port}
	_, err := c.conn.WriteToUDP(raw, dst)
	return err
}
