// Package frame implements the outer KNXnet/IP datagram codec: the 6-byte
// header shared by every request type, and per-request-type body parsing as
// described in §4.5.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hausnet/knxnetip/knxnet"
)

const (
	headerSize      = 6
	protocolVersion = 0x10
)

// ErrInvalid is returned when a frame's declared total_length does not
// match the bytes actually received.
var ErrInvalid = errors.New("frame_invalid")

// ErrIgnore is returned when a frame's header_size or protocol_version is
// not one this codec understands; callers should silently drop such
// datagrams rather than treat them as errors.
var ErrIgnore = errors.New("frame_ignore")

// Header is the fixed 6-byte prefix of every KNXnet/IP datagram.
type Header struct {
	RequestType knxnet.RequestType
	TotalLength uint16
}

func parseHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("%w: buffer shorter than header (%d bytes)", ErrInvalid, len(buf))
	}
	if buf[0] != headerSize {
		return Header{}, fmt.Errorf("%w: unsupported header_size %d", ErrIgnore, buf[0])
	}
	if buf[1] != protocolVersion {
		return Header{}, fmt.Errorf("%w: unsupported protocol_version %#02x", ErrIgnore, buf[1])
	}
	h := Header{
		RequestType: knxnet.RequestType(binary.BigEndian.Uint16(buf[2:4])),
		TotalLength: binary.BigEndian.Uint16(buf[4:6]),
	}
	if int(h.TotalLength) != len(buf) {
		return Header{}, fmt.Errorf("%w: total_length %d does not match buffer length %d", ErrInvalid, h.TotalLength, len(buf))
	}
	return h, nil
}

func packHeader(requestType knxnet.RequestType, bodyLen int) []byte {
	buf := make([]byte, headerSize)
	buf[0] = headerSize
	buf[1] = protocolVersion
	binary.BigEndian.PutUint16(buf[2:4], uint16(requestType))
	binary.BigEndian.PutUint16(buf[4:6], uint16(headerSize+bodyLen))
	return buf
}
