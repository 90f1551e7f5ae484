package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/hausnet/knxnetip/cemi"
	"github.com/hausnet/knxnetip/knxnet"
)

// RoutingIndication carries a cEMI frame over multicast. When MessageCode is
// data_request or data_indicator, Record holds the parsed TPCI/APCI/value;
// for every other message code the frame is kept as opaque Raw bytes
// starting from the message_code byte, since this codec does not interpret
// busmonitor or other non-data cEMI services.
type RoutingIndication struct {
	MessageCode knxnet.MessageCode
	AddInfo     []byte
	Control     knxnet.ControlField
	Source      uint16
	Dest        uint16
	Record      *cemi.DataRecord
	Raw         []byte
}

// RequestType implements Body.
func (RoutingIndication) RequestType() knxnet.RequestType { return knxnet.RoutingIndication }

func parseRoutingIndication(payload []byte) (Body, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: routing_indication shorter than message_code+add_info_len", ErrInvalid)
	}
	messageCode := knxnet.MessageCode(payload[0])
	if messageCode != knxnet.DataRequest && messageCode != knxnet.DataIndicator {
		return RoutingIndication{
			MessageCode: messageCode,
			Raw:         append([]byte(nil), payload...),
		}, nil
	}

	addInfoLen := int(payload[1])
	n := 2
	if len(payload) < n+addInfoLen {
		return nil, fmt.Errorf("%w: add_info_len %d exceeds remaining payload", ErrInvalid, addInfoLen)
	}
	addInfo := append([]byte(nil), payload[n:n+addInfoLen]...)
	n += addInfoLen

	if len(payload) < n+7 {
		return nil, fmt.Errorf("%w: routing_indication truncated before control/source/dest/data_length", ErrInvalid)
	}
	control := knxnet.ControlField(binary.BigEndian.Uint16(payload[n : n+2]))
	source := binary.BigEndian.Uint16(payload[n+2 : n+4])
	dest := binary.BigEndian.Uint16(payload[n+4 : n+6])
	dataLength := payload[n+6]
	n += 7

	record, err := cemi.Decode(dataLength, payload[n:])
	if err != nil {
		return nil, err
	}

	return RoutingIndication{
		MessageCode: messageCode,
		AddInfo:     addInfo,
		Control:     control,
		Source:      source,
		Dest:        dest,
		Record:      &record,
	}, nil
}

func (b RoutingIndication) encode() []byte {
	if b.Record == nil {
		return b.Raw
	}
	dataLength, recordBytes := cemi.Encode(*b.Record)
	buf := make([]byte, 0, 2+len(b.AddInfo)+7+len(recordBytes))
	buf = append(buf, byte(b.MessageCode), byte(len(b.AddInfo)))
	buf = append(buf, b.AddInfo...)
	controlBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(controlBytes, uint16(b.Control))
	buf = append(buf, controlBytes...)
	sourceDest := make([]byte, 4)
	binary.BigEndian.PutUint16(sourceDest[0:2], b.Source)
	binary.BigEndian.PutUint16(sourceDest[2:4], b.Dest)
	buf = append(buf, sourceDest...)
	buf = append(buf, dataLength)
	buf = append(buf, recordBytes...)
	return buf
}

// RoutingBusy is a flow-control announcement from a KNXnet/IP router.
type RoutingBusy struct {
	DeviceState uint8
	BusyWaitMs  uint16
	Control     uint16
}

// RequestType implements Body.
func (RoutingBusy) RequestType() knxnet.RequestType { return knxnet.RoutingBusy }

func parseRoutingBusy(payload []byte) (Body, error) {
	if len(payload) < 6 {
		return nil, fmt.Errorf("%w: routing_busy needs 6 bytes, got %d", ErrInvalid, len(payload))
	}
	if payload[0] != 6 {
		return nil, fmt.Errorf("%w: routing_busy length field %d, want 6", ErrInvalid, payload[0])
	}
	return RoutingBusy{
		DeviceState: payload[1],
		BusyWaitMs:  binary.BigEndian.Uint16(payload[2:4]),
		Control:     binary.BigEndian.Uint16(payload[4:6]),
	}, nil
}

func (b RoutingBusy) encode() []byte {
	buf := make([]byte, 6)
	buf[0] = 6
	buf[1] = b.DeviceState
	binary.BigEndian.PutUint16(buf[2:4], b.BusyWaitMs)
	binary.BigEndian.PutUint16(buf[4:6], b.Control)
	return buf
}

// RoutingLostMessage reports that a router dropped datagrams due to
// congestion.
type RoutingLostMessage struct {
	DeviceState uint8
	NumLost     uint16
}

// RequestType implements Body.
func (RoutingLostMessage) RequestType() knxnet.RequestType { return knxnet.RoutingLostMessage }

func parseRoutingLostMessage(payload []byte) (Body, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: routing_lost_message needs 4 bytes, got %d", ErrInvalid, len(payload))
	}
	if payload[0] != 4 {
		return nil, fmt.Errorf("%w: routing_lost_message length field %d, want 4", ErrInvalid, payload[0])
	}
	return RoutingLostMessage{
		DeviceState: payload[1],
		NumLost:     binary.BigEndian.Uint16(payload[2:4]),
	}, nil
}

func (b RoutingLostMessage) encode() []byte {
	buf := make([]byte, 4)
	buf[0] = 4
	buf[1] = b.DeviceState
	binary.BigEndian.PutUint16(buf[2:4], b.NumLost)
	return buf
}
