package frame

import (
	"encoding/binary"
	"fmt"
)

const hpaiSize = 8

// HPAI is a Host Protocol Address Info structure: the endpoint a
// KNXnet/IP peer should use for a given channel.
type HPAI struct {
	Protocol uint8
	IP       [4]byte
	Port     uint16
}

func decodeHPAI(data []byte) (HPAI, uint, error) {
	if len(data) < hpaiSize {
		return HPAI{}, 0, fmt.Errorf("%w: need %d bytes for HPAI, got %d", ErrInvalid, hpaiSize, len(data))
	}
	if data[0] != hpaiSize {
		return HPAI{}, 0, fmt.Errorf("%w: HPAI length field %d, want %d", ErrInvalid, data[0], hpaiSize)
	}
	var h HPAI
	h.Protocol = data[1]
	copy(h.IP[:], data[2:6])
	h.Port = binary.BigEndian.Uint16(data[6:8])
	return h, hpaiSize, nil
}

func (h HPAI) encode() []byte {
	buf := make([]byte, hpaiSize)
	buf[0] = hpaiSize
	buf[1] = h.Protocol
	copy(buf[2:6], h.IP[:])
	binary.BigEndian.PutUint16(buf[6:8], h.Port)
	return buf
}
