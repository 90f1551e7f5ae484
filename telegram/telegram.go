// Package telegram holds the decoded group-service message that routing and
// tunnel clients deliver to subscribers: a group_read, group_response, or
// group_write addressed to a group address, with its value already run
// through the datapoint codec.
package telegram

import (
	"fmt"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/dpt"
	"github.com/hausnet/knxnetip/knxnet"
)

// Kind is the group service a Telegram carries.
type Kind uint8

const (
	GroupRead Kind = iota
	GroupResponse
	GroupWrite
)

func (k Kind) String() string {
	switch k {
	case GroupRead:
		return "group_read"
	case GroupResponse:
		return "group_response"
	case GroupWrite:
		return "group_write"
	default:
		return "unknown"
	}
}

// Telegram is a decoded group-service message. A group_read telegram has no
// value payload: Value is nil and must not be inspected.
type Telegram struct {
	Kind        Kind
	Source      address.IndividualAddress
	Destination address.GroupAddress
	Value       any
}

// KindFromAPCI maps an APCI to its Kind, reporting false for any APCI that
// is not one of the three group services.
func KindFromAPCI(apci knxnet.APCI) (Kind, bool) {
	switch apci {
	case knxnet.GroupRead:
		return GroupRead, true
	case knxnet.GroupResponse:
		return GroupResponse, true
	case knxnet.GroupWrite:
		return GroupWrite, true
	default:
		return 0, false
	}
}

// APCI maps k back to its wire APCI.
func (k Kind) APCI() knxnet.APCI {
	switch k {
	case GroupResponse:
		return knxnet.GroupResponse
	case GroupWrite:
		return knxnet.GroupWrite
	default:
		return knxnet.GroupRead
	}
}

// Decode builds a Telegram from a parsed cEMI data record. dptName selects
// the codec used to decode value; it is ignored for GroupRead, which never
// carries a value. An empty dptName for a non-read kind decodes value as
// the raw wire bytes instead of a DPT-typed value.
func Decode(kind Kind, source uint16, dest uint16, value []byte, dptName string) (Telegram, error) {
	t := Telegram{
		Kind:        kind,
		Source:      address.IndividualAddressFromUint16(source),
		Destination: address.GroupAddressFromUint16(dest),
	}
	if kind == GroupRead {
		return t, nil
	}
	if dptName == "" {
		t.Value = append([]byte(nil), value...)
		return t, nil
	}
	decoded, err := dpt.Decode(dptName, value)
	if err != nil {
		return Telegram{}, fmt.Errorf("decode telegram value: %w", err)
	}
	t.Value = decoded
	return t, nil
}

// Encode produces the wire value bytes for t. A group_read telegram always
// encodes to an empty (zero) value, per the group_read wire invariant.
func Encode(t Telegram, dptName string) ([]byte, error) {
	if t.Kind == GroupRead {
		return []byte{0}, nil
	}
	if dptName == "" {
		raw, ok := t.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("encode telegram value: no dpt given and value is not raw bytes (%T)", t.Value)
		}
		return raw, nil
	}
	encoded, err := dpt.Encode(dptName, t.Value)
	if err != nil {
		return nil, fmt.Errorf("encode telegram value: %w", err)
	}
	return encoded, nil
}
