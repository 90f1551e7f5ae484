package frame

import "github.com/hausnet/knxnetip/knxnet"

// Opaque is the body for every recognised request_type this codec does not
// interpret (device_configuration*, secure_*, object_server, ...). The raw
// body bytes are retained verbatim so a caller can still forward or log the
// frame.
type Opaque struct {
	Type    knxnet.RequestType
	Payload []byte
}

// RequestType implements Body.
func (o Opaque) RequestType() knxnet.RequestType { return o.Type }

func (o Opaque) encode() []byte {
	return o.Payload
}
