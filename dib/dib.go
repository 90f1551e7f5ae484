// Package dib implements the Description Information Block codec: the
// length-prefixed records carried in description and search responses that
// advertise a KNXnet/IP server's identity and capabilities.
package dib

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hausnet/knxnetip/knxnet"
)

// ErrTruncated is returned when a DIB's declared length runs past the end
// of the buffer it was read from.
var ErrTruncated = errors.New("truncated_dib")

// ErrUnknownAssignmentMethod is returned when an ip_config/ip_cur_config
// assignment method byte is outside the recognised set.
var ErrUnknownAssignmentMethod = errors.New("unknown_assignment_method")

// AssignmentMethod is the IP address assignment method advertised by an
// ip_config or ip_cur_config DIB.
type AssignmentMethod uint8

const (
	AssignManual AssignmentMethod = 1
	AssignDHCP   AssignmentMethod = 2
	AssignBootP  AssignmentMethod = 4
	AssignAutoIP AssignmentMethod = 8
)

func validAssignmentMethod(b uint8) error {
	switch AssignmentMethod(b) {
	case AssignManual, AssignDHCP, AssignBootP, AssignAutoIP:
		return nil
	default:
		return fmt.Errorf("%w: %#02x", ErrUnknownAssignmentMethod, b)
	}
}

// DIB is implemented by every concrete Description Information Block
// variant. Type returns the DIB type byte the variant encodes as.
type DIB interface {
	Type() knxnet.DIBType
	encodePayload() []byte
}

// DeviceInfo is the device_info DIB (type 0x01): medium, status, address,
// identifiers, and a 30-byte friendly name.
type DeviceInfo struct {
	Medium          knxnet.MediumType
	Status          uint8
	IndividualAddr  uint16
	ProjectID       uint16
	Serial          [6]byte
	MulticastIP     uint32
	MAC             [6]byte
	Name            string
}

func (DeviceInfo) Type() knxnet.DIBType { return knxnet.DIBDeviceInfo }

func (d DeviceInfo) encodePayload() []byte {
	buf := make([]byte, 52)
	buf[0] = byte(d.Medium)
	buf[1] = d.Status
	buf[2] = byte(d.IndividualAddr >> 8)
	buf[3] = byte(d.IndividualAddr)
	buf[4] = byte(d.ProjectID >> 8)
	buf[5] = byte(d.ProjectID)
	copy(buf[6:12], d.Serial[:])
	buf[12] = byte(d.MulticastIP >> 24)
	buf[13] = byte(d.MulticastIP >> 16)
	buf[14] = byte(d.MulticastIP >> 8)
	buf[15] = byte(d.MulticastIP)
	copy(buf[16:22], d.MAC[:])
	name := []byte(d.Name)
	if len(name) > 30 {
		name = name[:30]
	}
	copy(buf[22:52], name)
	return buf
}

func decodeDeviceInfo(payload []byte) (DeviceInfo, error) {
	if len(payload) < 52 {
		return DeviceInfo{}, fmt.Errorf("%w: device_info needs 52 bytes, got %d", ErrTruncated, len(payload))
	}
	d := DeviceInfo{
		Medium:         knxnet.MediumType(payload[0]),
		Status:         payload[1],
		IndividualAddr: uint16(payload[2])<<8 | uint16(payload[3]),
		ProjectID:      uint16(payload[4])<<8 | uint16(payload[5]),
		MulticastIP:    uint32(payload[12])<<24 | uint32(payload[13])<<16 | uint32(payload[14])<<8 | uint32(payload[15]),
	}
	copy(d.Serial[:], payload[6:12])
	copy(d.MAC[:], payload[16:22])
	d.Name = strings.TrimRight(string(payload[22:52]), "\x00")
	return d, nil
}

// SupportedServiceFamily is one {family, version} pair within a
// supported_svc_families DIB.
type SupportedServiceFamily struct {
	Family  knxnet.ServiceFamily
	Version uint8
}

// SupportedSvcFamilies is the supported_svc_families DIB (type 0x02).
type SupportedSvcFamilies struct {
	Families []SupportedServiceFamily
}

func (SupportedSvcFamilies) Type() knxnet.DIBType { return knxnet.DIBSupportedSvcFamilies }

func (s SupportedSvcFamilies) encodePayload() []byte {
	buf := make([]byte, 0, len(s.Families)*2)
	for _, f := range s.Families {
		buf = append(buf, byte(f.Family), f.Version)
	}
	return buf
}

func decodeSupportedSvcFamilies(payload []byte) (SupportedSvcFamilies, error) {
	if len(payload)%2 != 0 {
		return SupportedSvcFamilies{}, fmt.Errorf("%w: supported_svc_families payload not a whole number of pairs", ErrTruncated)
	}
	families := make([]SupportedServiceFamily, 0, len(payload)/2)
	for i := 0; i < len(payload); i += 2 {
		families = append(families, SupportedServiceFamily{
			Family:  knxnet.ServiceFamily(payload[i]),
			Version: payload[i+1],
		})
	}
	return SupportedSvcFamilies{Families: families}, nil
}

// IPConfig is the ip_config DIB (type 0x03): the device's configured
// (not necessarily active) IP parameters.
type IPConfig struct {
	IP               uint32
	Netmask          uint32
	Gateway          uint32
	Capabilities     uint8
	AssignmentMethod AssignmentMethod
}

func (IPConfig) Type() knxnet.DIBType { return knxnet.DIBIPConfig }

func (c IPConfig) encodePayload() []byte {
	buf := make([]byte, 14)
	putUint32(buf[0:4], c.IP)
	putUint32(buf[4:8], c.Netmask)
	putUint32(buf[8:12], c.Gateway)
	buf[12] = c.Capabilities
	buf[13] = byte(c.AssignmentMethod)
	return buf
}

func decodeIPConfig(payload []byte) (IPConfig, error) {
	if len(payload) < 14 {
		return IPConfig{}, fmt.Errorf("%w: ip_config needs 14 bytes, got %d", ErrTruncated, len(payload))
	}
	if err := validAssignmentMethod(payload[13]); err != nil {
		return IPConfig{}, err
	}
	return IPConfig{
		IP:               getUint32(payload[0:4]),
		Netmask:          getUint32(payload[4:8]),
		Gateway:          getUint32(payload[8:12]),
		Capabilities:     payload[12],
		AssignmentMethod: AssignmentMethod(payload[13]),
	}, nil
}

// IPCurConfig is the ip_cur_config DIB (type 0x04): the device's currently
// active IP parameters. Its wire layout structurally matches ip_config
// except the last two bytes are assignment_method then a reserved byte
// (capabilities is not present and is forced to 0 on decode).
type IPCurConfig struct {
	IP               uint32
	Netmask          uint32
	Gateway          uint32
	AssignmentMethod AssignmentMethod
}

func (IPCurConfig) Type() knxnet.DIBType { return knxnet.DIBIPCurConfig }

func (c IPCurConfig) encodePayload() []byte {
	buf := make([]byte, 14)
	putUint32(buf[0:4], c.IP)
	putUint32(buf[4:8], c.Netmask)
	putUint32(buf[8:12], c.Gateway)
	buf[12] = byte(c.AssignmentMethod)
	buf[13] = 0
	return buf
}

func decodeIPCurConfig(payload []byte) (IPCurConfig, error) {
	if len(payload) < 14 {
		return IPCurConfig{}, fmt.Errorf("%w: ip_cur_config needs 14 bytes, got %d", ErrTruncated, len(payload))
	}
	if err := validAssignmentMethod(payload[12]); err != nil {
		return IPCurConfig{}, err
	}
	return IPCurConfig{
		IP:               getUint32(payload[0:4]),
		Netmask:          getUint32(payload[4:8]),
		Gateway:          getUint32(payload[8:12]),
		AssignmentMethod: AssignmentMethod(payload[12]),
	}, nil
}

// KNXAddresses is the knx_addresses DIB (type 0x05): the device's primary
// individual address plus any additional addresses it answers to.
type KNXAddresses struct {
	Primary    uint16
	Additional []uint16
}

func (KNXAddresses) Type() knxnet.DIBType { return knxnet.DIBKNXAddresses }

func (k KNXAddresses) encodePayload() []byte {
	buf := make([]byte, 2+2*len(k.Additional))
	buf[0], buf[1] = byte(k.Primary>>8), byte(k.Primary)
	for i, a := range k.Additional {
		buf[2+2*i] = byte(a >> 8)
		buf[3+2*i] = byte(a)
	}
	return buf
}

func decodeKNXAddresses(payload []byte) (KNXAddresses, error) {
	if len(payload) < 2 || len(payload)%2 != 0 {
		return KNXAddresses{}, fmt.Errorf("%w: knx_addresses payload malformed", ErrTruncated)
	}
	k := KNXAddresses{Primary: uint16(payload[0])<<8 | uint16(payload[1])}
	for i := 2; i < len(payload); i += 2 {
		k.Additional = append(k.Additional, uint16(payload[i])<<8|uint16(payload[i+1]))
	}
	return k, nil
}

// ManufacturerData is the manufacturer_data DIB (type 0xFE): opaque,
// vendor-defined bytes.
type ManufacturerData struct {
	Data []byte
}

func (ManufacturerData) Type() knxnet.DIBType { return knxnet.DIBManufacturerData }

func (m ManufacturerData) encodePayload() []byte { return m.Data }

// Parse scans a buffer of back-to-back DIBs, each prefixed by
// length:u8, type:u8, payload[length-2]. Unknown type bytes are skipped
// silently, per §4.3.
func Parse(buf []byte) ([]DIB, error) {
	var dibs []DIB
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, fmt.Errorf("%w: dangling byte at end of buffer", ErrTruncated)
		}
		length := int(buf[0])
		if length < 2 || length > len(buf) {
			return nil, fmt.Errorf("%w: declared length %d exceeds remaining %d bytes", ErrTruncated, length, len(buf))
		}
		typeByte := knxnet.DIBType(buf[1])
		payload := buf[2:length]

		var (
			d   DIB
			err error
		)
		switch typeByte {
		case knxnet.DIBDeviceInfo:
			d, err = decodeDeviceInfo(payload)
		case knxnet.DIBSupportedSvcFamilies:
			d, err = decodeSupportedSvcFamilies(payload)
		case knxnet.DIBIPConfig:
			d, err = decodeIPConfig(payload)
		case knxnet.DIBIPCurConfig:
			d, err = decodeIPCurConfig(payload)
		case knxnet.DIBKNXAddresses:
			d, err = decodeKNXAddresses(payload)
		case knxnet.DIBManufacturerData:
			d = ManufacturerData{Data: append([]byte(nil), payload...)}
		default:
			buf = buf[length:]
			continue
		}
		if err != nil {
			return nil, err
		}
		dibs = append(dibs, d)
		buf = buf[length:]
	}
	return dibs, nil
}

// Encode emits a single DIB with its length prefix.
func Encode(d DIB) []byte {
	payload := d.encodePayload()
	buf := make([]byte, 2+len(payload))
	buf[0] = byte(2 + len(payload))
	buf[1] = byte(d.Type())
	copy(buf[2:], payload)
	return buf
}

func putUint32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

func getUint32(buf []byte) uint32 {
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
}
