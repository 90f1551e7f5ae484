// Package knxnet holds the closed enumerations and bit-field constants
// shared by every KNXnet/IP codec in this module: request types, cEMI
// message codes, medium types, DIB identifiers, service families, TPCI
// kinds, APCI codes, and the cEMI control-field bit predicates.
//
// Every lookup here is total over its named values and partial over raw
// integers: an unrecognised integer maps to "unknown" rather than panicking,
// so a malformed or newer-than-this-library frame degrades gracefully
// instead of crashing the caller.
package knxnet

import "fmt"

// RequestType is the outer KNXnet/IP frame's service identifier.
type RequestType uint16

// Request types fixed by the KNXnet/IP specification.
const (
	SearchRequest               RequestType = 0x0201
	SearchResponse              RequestType = 0x0202
	DescriptionRequest          RequestType = 0x0203
	DescriptionResponse         RequestType = 0x0204
	ConnectRequest              RequestType = 0x0205
	ConnectResponse             RequestType = 0x0206
	ConnectionStateRequest      RequestType = 0x0207
	ConnectionStateResponse     RequestType = 0x0208
	DisconnectRequest           RequestType = 0x0209
	DisconnectResponse          RequestType = 0x020A
	DeviceConfigurationRequest  RequestType = 0x0310
	DeviceConfigurationAck      RequestType = 0x0311
	TunnellingRequest           RequestType = 0x0420
	TunnellingAck               RequestType = 0x0421
	RoutingIndication           RequestType = 0x0530
	RoutingLostMessage          RequestType = 0x0531
	RoutingBusy                 RequestType = 0x0532
	SecureWrapper               RequestType = 0x0950
	SecureSessionRequest        RequestType = 0x0951
	SecureSessionResponse       RequestType = 0x0952
	SecureSessionAuthenticate   RequestType = 0x0953
	SecureSessionStatus         RequestType = 0x0954
	SecureTimerNotify           RequestType = 0x0955
	ObjectServer                RequestType = 0xF080
)

var requestTypeNames = map[RequestType]string{
	SearchRequest:              "search_request",
	SearchResponse:             "search_response",
	DescriptionRequest:         "description_request",
	DescriptionResponse:        "description_response",
	ConnectRequest:             "connect_request",
	ConnectResponse:            "connect_response",
	ConnectionStateRequest:     "connectionstate_request",
	ConnectionStateResponse:    "connectionstate_response",
	DisconnectRequest:          "disconnect_request",
	DisconnectResponse:         "disconnect_response",
	DeviceConfigurationRequest: "device_configuration_request",
	DeviceConfigurationAck:     "device_configuration_ack",
	TunnellingRequest:          "tunnelling_request",
	TunnellingAck:              "tunnelling_ack",
	RoutingIndication:          "routing_indication",
	RoutingLostMessage:         "routing_lost_message",
	RoutingBusy:                "routing_busy",
	SecureWrapper:              "secure_wrapper",
	SecureSessionRequest:       "secure_session_request",
	SecureSessionResponse:      "secure_session_response",
	SecureSessionAuthenticate:  "secure_session_authenticate",
	SecureSessionStatus:        "secure_session_status",
	SecureTimerNotify:          "secure_timer_notify",
	ObjectServer:               "object_server",
}

// String renders the request type's conventional lowercase name, or
// "unknown" for a value not in the fixed enumeration.
func (r RequestType) String() string {
	if name, ok := requestTypeNames[r]; ok {
		return name
	}
	return "unknown"
}

// MessageCode identifies the cEMI service inside a routing indication.
type MessageCode uint8

// cEMI message codes relevant to group-service data frames.
const (
	DataRequest    MessageCode = 0x11
	DataIndicator  MessageCode = 0x29
	DataConnection MessageCode = 0x2E
)

var messageCodeNames = map[MessageCode]string{
	DataRequest:    "data_request",
	DataIndicator:  "data_indicator",
	DataConnection: "data_connection",
}

// String renders the message code's conventional name, or "unknown".
func (m MessageCode) String() string {
	if name, ok := messageCodeNames[m]; ok {
		return name
	}
	return "unknown"
}

// MediumType identifies the KNX transmission medium in DIB device-info
// records.
type MediumType uint8

// Medium type bytes fixed by the KNXnet/IP specification.
const (
	MediumReserved MediumType = 0x01
	MediumTP       MediumType = 0x02
	MediumPL       MediumType = 0x04
	MediumRF       MediumType = 0x10
	MediumIP       MediumType = 0x20
)

var mediumTypeNames = map[MediumType]string{
	MediumReserved: "reserved",
	MediumTP:       "tp",
	MediumPL:       "pl",
	MediumRF:       "rf",
	MediumIP:       "ip",
}

// String renders the medium type's conventional name, or "unknown".
func (m MediumType) String() string {
	if name, ok := mediumTypeNames[m]; ok {
		return name
	}
	return "unknown"
}

// DIBType identifies a Description Information Block variant.
type DIBType uint8

// DIB type bytes fixed by the KNXnet/IP specification.
const (
	DIBDeviceInfo           DIBType = 0x01
	DIBSupportedSvcFamilies DIBType = 0x02
	DIBIPConfig             DIBType = 0x03
	DIBIPCurConfig          DIBType = 0x04
	DIBKNXAddresses         DIBType = 0x05
	DIBManufacturerData     DIBType = 0xFE
)

var dibTypeNames = map[DIBType]string{
	DIBDeviceInfo:           "device_info",
	DIBSupportedSvcFamilies: "supported_svc_families",
	DIBIPConfig:             "ip_config",
	DIBIPCurConfig:          "ip_cur_config",
	DIBKNXAddresses:         "knx_addresses",
	DIBManufacturerData:     "manufacturer_data",
}

// String renders the DIB type's conventional name, or "unknown".
func (d DIBType) String() string {
	if name, ok := dibTypeNames[d]; ok {
		return name
	}
	return "unknown"
}

// ServiceFamily identifies a KNXnet/IP service family byte, as advertised
// in a supported_svc_families DIB.
type ServiceFamily uint8

// Service family bytes fixed by the KNXnet/IP specification.
const (
	ServiceFamilyCore       ServiceFamily = 0x02
	ServiceFamilyDeviceMgmt ServiceFamily = 0x03
	ServiceFamilyTunnelling ServiceFamily = 0x04
	ServiceFamilyRouting    ServiceFamily = 0x05
)

var serviceFamilyNames = map[ServiceFamily]string{
	ServiceFamilyCore:       "core",
	ServiceFamilyDeviceMgmt: "device_management",
	ServiceFamilyTunnelling: "tunnelling",
	ServiceFamilyRouting:    "routing",
}

// String renders the service family's conventional name, or "unknown".
func (s ServiceFamily) String() string {
	if name, ok := serviceFamilyNames[s]; ok {
		return name
	}
	return "unknown"
}

// TPCIKind is the transport-layer frame kind occupying the top two bits of
// the TPCI byte.
type TPCIKind uint8

const (
	UnnumberedData    TPCIKind = 0
	NumberedData      TPCIKind = 1
	UnnumberedControl TPCIKind = 2
	NumberedControl   TPCIKind = 3
)

var tpciKindNames = map[TPCIKind]string{
	UnnumberedData:    "unnumbered_data",
	NumberedData:      "numbered_data",
	UnnumberedControl: "unnumbered_control",
	NumberedControl:   "numbered_control",
}

// String renders the TPCI kind's conventional name, or "unknown".
func (k TPCIKind) String() string {
	if name, ok := tpciKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ControlCode is the transport-layer control code carried by control
// frames (kind ∈ {unnumbered_control, numbered_control}).
type ControlCode uint8

const (
	TLConnect    ControlCode = 0
	TLDisconnect ControlCode = 1
	TLAck        ControlCode = 2
	TLNak        ControlCode = 3
)

var controlCodeNames = map[ControlCode]string{
	TLConnect:    "tl_connect",
	TLDisconnect: "tl_disconnect",
	TLAck:        "tl_ack",
	TLNak:        "tl_nak",
}

// String renders the control code's conventional name, or "unknown".
func (c ControlCode) String() string {
	if name, ok := controlCodeNames[c]; ok {
		return name
	}
	return "unknown"
}

// APCI is the application-layer service code, 4 bits for the "short" set
// and 10 bits otherwise.
type APCI uint16

// Well-known APCI codes used by the group-service data path.
const (
	GroupRead       APCI = 0x000
	GroupResponse   APCI = 0x001
	GroupWrite      APCI = 0x002
	IndividualWrite APCI = 0x0C0
	MemoryRead      APCI = 0x020
	MemoryResponse  APCI = 0x024
	MemoryWrite     APCI = 0x028
)

var apciNames = map[APCI]string{
	GroupRead:       "group_read",
	GroupResponse:   "group_response",
	GroupWrite:      "group_write",
	IndividualWrite: "individual_write",
	MemoryRead:      "memory_read",
	MemoryResponse:  "memory_response",
	MemoryWrite:     "memory_write",
}

// String renders the APCI's conventional name, or its numeric fallback
// "apci(0x2ab)" when unrecognised.
func (a APCI) String() string {
	if name, ok := apciNames[a]; ok {
		return name
	}
	return fmt.Sprintf("apci(%#03x)", uint16(a))
}

// IsShort reports whether code is one of the 4-bit "short" APCI codes:
// 0-10 except 7 (ADC read, which is long-form only).
func (a APCI) IsShort() bool {
	return a <= 10 && a != 7
}
