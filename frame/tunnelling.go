package frame

import (
	"fmt"

	"github.com/hausnet/knxnetip/knxnet"
)

// UDP is the HPAI protocol byte for a UDP host protocol address.
const UDP uint8 = 0x01

const (
	connectionTypeTunnel uint8 = 0x04
	tunnelLinkLayer      uint8 = 0x02
)

// ConnectRequest opens a tunnelling session: the client's control and data
// endpoints, plus a connection request info naming tunnelling/link-layer.
type ConnectRequest struct {
	ControlEndpoint HPAI
	DataEndpoint    HPAI
}

func (ConnectRequest) RequestType() knxnet.RequestType { return knxnet.ConnectRequest }

func (b ConnectRequest) encode() []byte {
	buf := append(b.ControlEndpoint.encode(), b.DataEndpoint.encode()...)
	return append(buf, 0x04, connectionTypeTunnel, tunnelLinkLayer, 0x00)
}

func parseConnectRequest(payload []byte) (Body, error) {
	control, n, err := decodeHPAI(payload)
	if err != nil {
		return nil, err
	}
	data, n2, err := decodeHPAI(payload[n:])
	if err != nil {
		return nil, err
	}
	if len(payload) < int(n+n2)+4 {
		return nil, fmt.Errorf("%w: connect_request missing CRI", ErrInvalid)
	}
	return ConnectRequest{ControlEndpoint: control, DataEndpoint: data}, nil
}

// ConnectResponse answers a ConnectRequest. Status 0 means success; on
// success DataEndpoint and AssignedAddress are populated.
type ConnectResponse struct {
	ChannelID       uint8
	Status          uint8
	DataEndpoint    HPAI
	AssignedAddress uint16
}

func (ConnectResponse) RequestType() knxnet.RequestType { return knxnet.ConnectResponse }

func (b ConnectResponse) encode() []byte {
	buf := []byte{b.ChannelID, b.Status}
	if b.Status != 0 {
		return buf
	}
	buf = append(buf, b.DataEndpoint.encode()...)
	buf = append(buf, 0x04, connectionTypeTunnel, byte(b.AssignedAddress>>8), byte(b.AssignedAddress))
	return buf
}

func parseConnectResponse(payload []byte) (Body, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: connect_response shorter than channel_id+status", ErrInvalid)
	}
	resp := ConnectResponse{ChannelID: payload[0], Status: payload[1]}
	if resp.Status != 0 {
		return resp, nil
	}
	endpoint, n, err := decodeHPAI(payload[2:])
	if err != nil {
		return nil, err
	}
	crd := payload[2+n:]
	if len(crd) < 4 {
		return nil, fmt.Errorf("%w: connect_response missing CRD", ErrInvalid)
	}
	resp.DataEndpoint = endpoint
	resp.AssignedAddress = uint16(crd[2])<<8 | uint16(crd[3])
	return resp, nil
}

// ConnectionStateRequest is the periodic tunnelling heartbeat.
type ConnectionStateRequest struct {
	ChannelID       uint8
	ControlEndpoint HPAI
}

func (ConnectionStateRequest) RequestType() knxnet.RequestType { return knxnet.ConnectionStateRequest }

func (b ConnectionStateRequest) encode() []byte {
	return append([]byte{b.ChannelID, 0x00}, b.ControlEndpoint.encode()...)
}

func parseConnectionStateRequest(payload []byte) (Body, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: connectionstate_request shorter than channel_id+reserved", ErrInvalid)
	}
	endpoint, _, err := decodeHPAI(payload[2:])
	if err != nil {
		return nil, err
	}
	return ConnectionStateRequest{ChannelID: payload[0], ControlEndpoint: endpoint}, nil
}

// ConnectionStateResponse answers the heartbeat: status 0 is healthy,
// 0x21 is connection-state-error per the KNXnet/IP status enumeration.
type ConnectionStateResponse struct {
	ChannelID uint8
	Status    uint8
}

func (ConnectionStateResponse) RequestType() knxnet.RequestType {
	return knxnet.ConnectionStateResponse
}

func (b ConnectionStateResponse) encode() []byte {
	return []byte{b.ChannelID, b.Status}
}

func parseConnectionStateResponse(payload []byte) (Body, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: connectionstate_response shorter than channel_id+status", ErrInvalid)
	}
	return ConnectionStateResponse{ChannelID: payload[0], Status: payload[1]}, nil
}

// DisconnectRequest closes a tunnelling session, from either side.
type DisconnectRequest struct {
	ChannelID       uint8
	ControlEndpoint HPAI
}

func (DisconnectRequest) RequestType() knxnet.RequestType { return knxnet.DisconnectRequest }

func (b DisconnectRequest) encode() []byte {
	return append([]byte{b.ChannelID, 0x00}, b.ControlEndpoint.encode()...)
}

func parseDisconnectRequest(payload []byte) (Body, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: disconnect_request shorter than channel_id+reserved", ErrInvalid)
	}
	endpoint, _, err := decodeHPAI(payload[2:])
	if err != nil {
		return nil, err
	}
	return DisconnectRequest{ChannelID: payload[0], ControlEndpoint: endpoint}, nil
}

// DisconnectResponse acknowledges a DisconnectRequest.
type DisconnectResponse struct {
	ChannelID uint8
	Status    uint8
}

func (DisconnectResponse) RequestType() knxnet.RequestType { return knxnet.DisconnectResponse }

func (b DisconnectResponse) encode() []byte {
	return []byte{b.ChannelID, b.Status}
}

func parseDisconnectResponse(payload []byte) (Body, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: disconnect_response shorter than channel_id+status", ErrInvalid)
	}
	return DisconnectResponse{ChannelID: payload[0], Status: payload[1]}, nil
}

// TunnellingRequest carries one cEMI data frame over the unicast tunnel,
// sequence-numbered for the ack handshake. CEMI reuses
// RoutingIndication's cEMI framing, which the wire format shares verbatim
// between routing and tunnelling.
type TunnellingRequest struct {
	ChannelID       uint8
	SequenceCounter uint8
	CEMI            RoutingIndication
}

func (TunnellingRequest) RequestType() knxnet.RequestType { return knxnet.TunnellingRequest }

func (b TunnellingRequest) encode() []byte {
	header := []byte{0x04, b.ChannelID, b.SequenceCounter, 0x00}
	return append(header, b.CEMI.encode()...)
}

func parseTunnellingRequest(payload []byte) (Body, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: tunnelling_request shorter than connection header", ErrInvalid)
	}
	if payload[0] != 4 {
		return nil, fmt.Errorf("%w: tunnelling_request connection header length %d, want 4", ErrInvalid, payload[0])
	}
	cemiBody, err := parseRoutingIndication(payload[4:])
	if err != nil {
		return nil, err
	}
	return TunnellingRequest{ChannelID: payload[1], SequenceCounter: payload[2], CEMI: cemiBody.(RoutingIndication)}, nil
}

// TunnellingAck acknowledges one TunnellingRequest by sequence counter.
// Status 0 means accepted; non-zero is a tunnelling-ack error.
type TunnellingAck struct {
	ChannelID       uint8
	SequenceCounter uint8
	Status          uint8
}

func (TunnellingAck) RequestType() knxnet.RequestType { return knxnet.TunnellingAck }

func (b TunnellingAck) encode() []byte {
	return []byte{0x04, b.ChannelID, b.SequenceCounter, b.Status}
}

func parseTunnellingAck(payload []byte) (Body, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: tunnelling_ack shorter than connection header", ErrInvalid)
	}
	if payload[0] != 4 {
		return nil, fmt.Errorf("%w: tunnelling_ack connection header length %d, want 4", ErrInvalid, payload[0])
	}
	return TunnellingAck{ChannelID: payload[1], SequenceCounter: payload[2], Status: payload[3]}, nil
}
