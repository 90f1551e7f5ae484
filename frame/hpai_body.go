package frame

import (
	"fmt"

	"github.com/hausnet/knxnetip/dib"
	"github.com/hausnet/knxnetip/knxnet"
)

// HPAIOnly is the body shape shared by search_request and
// description_request: a single HPAI naming where the server should send
// its response.
type HPAIOnly struct {
	Type     knxnet.RequestType
	Endpoint HPAI
}

// RequestType implements Body.
func (b HPAIOnly) RequestType() knxnet.RequestType { return b.Type }

func (b HPAIOnly) encode() []byte {
	return b.Endpoint.encode()
}

func parseHPAIOnly(payload []byte, requestType knxnet.RequestType) (Body, error) {
	endpoint, _, err := decodeHPAI(payload)
	if err != nil {
		return nil, err
	}
	return HPAIOnly{Type: requestType, Endpoint: endpoint}, nil
}

// HPAIWithDIBs is the body shape shared by search_response and
// description_response: the responding server's HPAI followed by a
// sequence of Description Information Blocks.
type HPAIWithDIBs struct {
	Type     knxnet.RequestType
	Endpoint HPAI
	DIBs     []dib.DIB
}

// RequestType implements Body.
func (b HPAIWithDIBs) RequestType() knxnet.RequestType { return b.Type }

func (b HPAIWithDIBs) encode() []byte {
	buf := append([]byte(nil), b.Endpoint.encode()...)
	for _, d := range b.DIBs {
		buf = append(buf, dib.Encode(d)...)
	}
	return buf
}

func parseHPAIWithDIBs(payload []byte, requestType knxnet.RequestType) (Body, error) {
	endpoint, n, err := decodeHPAI(payload)
	if err != nil {
		return nil, err
	}
	dibs, err := dib.Parse(payload[n:])
	if err != nil {
		return nil, err
	}
	if requestType == knxnet.DescriptionResponse {
		deviceInfoCount := 0
		for _, d := range dibs {
			if d.Type() == knxnet.DIBDeviceInfo {
				deviceInfoCount++
			}
		}
		if deviceInfoCount != 1 {
			return nil, fmt.Errorf("%w: description_response needs exactly one device_info DIB, got %d", ErrInvalid, deviceInfoCount)
		}
	}
	return HPAIWithDIBs{Type: requestType, Endpoint: endpoint, DIBs: dibs}, nil
}
