// Package cemi implements the Common External Message Interface data record:
// the TPCI/APCI/value bit-packing carried inside every cEMI data_request and
// data_indicator message, as described in §4.5.
package cemi

import (
	"errors"
	"fmt"

	"github.com/hausnet/knxnetip/knxnet"
)

// ErrTruncated is returned when raw does not hold enough bytes for the
// data_length it is paired with.
var ErrTruncated = errors.New("cemi_truncated")

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTruncated, fmt.Sprintf(format, args...))
}

// DataRecord is the decoded TPCI/APCI/value portion of a cEMI data frame.
// For control kinds (UnnumberedControl, NumberedControl) only TPCI and
// ControlCode are meaningful; for data kinds (UnnumberedData, NumberedData)
// only TPCI, APCI and Value are meaningful. SeqNumber is additionally
// meaningful for the numbered kinds of either group.
type DataRecord struct {
	TPCI        knxnet.TPCIKind
	SeqNumber   uint8 // valid for NumberedData / NumberedControl
	ControlCode knxnet.ControlCode
	APCI        knxnet.APCI
	Value       []byte
}

// IsControl reports whether r's TPCI kind carries a transport-layer control
// code rather than an application-layer APCI/value pair.
func (r DataRecord) IsControl() bool {
	return r.TPCI == knxnet.UnnumberedControl || r.TPCI == knxnet.NumberedControl
}

// IsNumbered reports whether r's TPCI kind carries a sequence number.
func (r DataRecord) IsNumbered() bool {
	return r.TPCI == knxnet.NumberedData || r.TPCI == knxnet.NumberedControl
}

// Decode parses the tpci_apci_value bytes of a cEMI data record, given the
// data_length byte that preceded them on the wire.
func Decode(dataLength uint8, raw []byte) (DataRecord, error) {
	if len(raw) == 0 {
		return DataRecord{}, decodeErr("empty data record")
	}
	tpciByte := raw[0]
	rec := DataRecord{
		TPCI:      knxnet.TPCIKind(tpciByte >> 6),
		SeqNumber: (tpciByte >> 2) & 0x0F,
	}
	if rec.IsControl() {
		rec.ControlCode = knxnet.ControlCode(tpciByte & 0x03)
		return rec, nil
	}
	if dataLength == 0 {
		return rec, nil
	}
	if len(raw) < 2 {
		return DataRecord{}, decodeErr("need at least 2 bytes for an APCI, got %d", len(raw))
	}
	apci10 := uint16(tpciByte&0x03)<<8 | uint16(raw[1])
	bitLength := int(dataLength)*8 - 2
	short := knxnet.APCI(apci10 >> 6)
	if bitLength == 6 {
		rec.APCI = short
		rec.Value = []byte{byte(apci10 & 0x3F)}
		return rec, nil
	}
	if short.IsShort() {
		rec.APCI = short
	} else {
		rec.APCI = knxnet.APCI(apci10)
	}
	valueLen := int(dataLength) - 1
	if len(raw) < 2+valueLen {
		return DataRecord{}, decodeErr("need %d value bytes, got %d", valueLen, len(raw)-2)
	}
	rec.Value = append([]byte(nil), raw[2:2+valueLen]...)
	return rec, nil
}

// Encode packs r back into its wire bytes, returning the data_length byte
// that must precede them.
func Encode(r DataRecord) (dataLength uint8, raw []byte) {
	tpciByte := byte(r.TPCI)<<6 | (r.SeqNumber&0x0F)<<2

	if r.IsControl() {
		tpciByte |= byte(r.ControlCode) & 0x03
		return 0, []byte{tpciByte}
	}

	if len(r.Value) == 1 && r.Value[0] <= 0x3F && r.APCI.IsShort() {
		apci10 := uint16(r.APCI) << 6
		apci10 |= uint16(r.Value[0])
		tpciByte |= byte(apci10>>8) & 0x03
		return 1, []byte{tpciByte, byte(apci10)}
	}

	apci10 := uint16(r.APCI)
	if r.APCI.IsShort() {
		apci10 = uint16(r.APCI) << 6
	}
	tpciByte |= byte(apci10>>8) & 0x03
	raw = make([]byte, 2+len(r.Value))
	raw[0] = tpciByte
	raw[1] = byte(apci10)
	copy(raw[2:], r.Value)
	return byte(len(r.Value) + 1), raw
}
