package frame

import (
	"fmt"

	"github.com/hausnet/knxnetip/knxnet"
)

// Body is the capability every frame body exposes: its own request type,
// and how to pack itself into wire bytes. Parse dispatches on the header's
// request_type to produce the concrete Body implementation; Encode wraps
// whatever Body is handed to it with the outer header.
type Body interface {
	RequestType() knxnet.RequestType
	encode() []byte
}

// Frame is a fully decoded KNXnet/IP datagram: header plus typed body.
type Frame struct {
	Header Header
	Body   Body
}

// Parse decodes a complete KNXnet/IP datagram. Frames with a header_size or
// protocol_version this codec does not understand are reported via
// ErrIgnore; frames whose total_length does not match len(buf), or whose
// body fails to parse, are reported via ErrInvalid or the inner error.
func Parse(buf []byte) (*Frame, error) {
	header, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	body, err := parseBody(header.RequestType, buf[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("request_type=%s: %w", header.RequestType, err)
	}
	return &Frame{Header: header, Body: body}, nil
}

func parseBody(requestType knxnet.RequestType, payload []byte) (Body, error) {
	switch requestType {
	case knxnet.SearchRequest:
		return parseHPAIOnly(payload, knxnet.SearchRequest)
	case knxnet.DescriptionRequest:
		return parseHPAIOnly(payload, knxnet.DescriptionRequest)
	case knxnet.SearchResponse:
		return parseHPAIWithDIBs(payload, knxnet.SearchResponse)
	case knxnet.DescriptionResponse:
		return parseHPAIWithDIBs(payload, knxnet.DescriptionResponse)
	case knxnet.RoutingIndication:
		return parseRoutingIndication(payload)
	case knxnet.RoutingBusy:
		return parseRoutingBusy(payload)
	case knxnet.RoutingLostMessage:
		return parseRoutingLostMessage(payload)
	case knxnet.ConnectRequest:
		return parseConnectRequest(payload)
	case knxnet.ConnectResponse:
		return parseConnectResponse(payload)
	case knxnet.ConnectionStateRequest:
		return parseConnectionStateRequest(payload)
	case knxnet.ConnectionStateResponse:
		return parseConnectionStateResponse(payload)
	case knxnet.DisconnectRequest:
		return parseDisconnectRequest(payload)
	case knxnet.DisconnectResponse:
		return parseDisconnectResponse(payload)
	case knxnet.TunnellingRequest:
		return parseTunnellingRequest(payload)
	case knxnet.TunnellingAck:
		return parseTunnellingAck(payload)
	default:
		return Opaque{Type: requestType, Payload: append([]byte(nil), payload...)}, nil
	}
}

// Encode wraps body's own bytes with the outer header, computing
// total_length from the body's packed size.
func Encode(body Body) []byte {
	payload := body.encode()
	return append(packHeader(body.RequestType(), len(payload)), payload...)
}
