package frame

import (
	"testing"

	"github.com/hausnet/knxnetip/cemi"
	"github.com/hausnet/knxnetip/knxnet"
)

func testHPAIPort(port uint16) HPAI {
	return HPAI{Protocol: UDP, IP: [4]byte{192, 168, 1, 10}, Port: port}
}

func TestConnectRequestResponse_RoundTrip(t *testing.T) {
	req := ConnectRequest{ControlEndpoint: testHPAIPort(3671), DataEndpoint: testHPAIPort(3671)}
	f, err := Parse(Encode(req))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decoded := f.Body.(ConnectRequest)
	if decoded != req {
		t.Errorf("got %+v, want %+v", decoded, req)
	}

	resp := ConnectResponse{ChannelID: 7, Status: 0, DataEndpoint: testHPAIPort(3671), AssignedAddress: 0x1101}
	f, err = Parse(Encode(resp))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decodedResp := f.Body.(ConnectResponse)
	if decodedResp != resp {
		t.Errorf("got %+v, want %+v", decodedResp, resp)
	}
}

func TestConnectResponse_ErrorStatusHasNoBody(t *testing.T) {
	resp := ConnectResponse{ChannelID: 0, Status: 0x24}
	f, err := Parse(Encode(resp))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decoded := f.Body.(ConnectResponse)
	if decoded.Status != 0x24 {
		t.Errorf("status = %#02x, want 0x24", decoded.Status)
	}
}

func TestConnectionState_RoundTrip(t *testing.T) {
	req := ConnectionStateRequest{ChannelID: 3, ControlEndpoint: testHPAIPort(3671)}
	f, err := Parse(Encode(req))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Body.(ConnectionStateRequest) != req {
		t.Errorf("got %+v, want %+v", f.Body, req)
	}

	resp := ConnectionStateResponse{ChannelID: 3, Status: 0}
	f, err = Parse(Encode(resp))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Body.(ConnectionStateResponse) != resp {
		t.Errorf("got %+v, want %+v", f.Body, resp)
	}
}

func TestDisconnect_RoundTrip(t *testing.T) {
	req := DisconnectRequest{ChannelID: 3, ControlEndpoint: testHPAIPort(3671)}
	f, err := Parse(Encode(req))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Body.(DisconnectRequest) != req {
		t.Errorf("got %+v, want %+v", f.Body, req)
	}

	resp := DisconnectResponse{ChannelID: 3, Status: 0}
	f, err = Parse(Encode(resp))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Body.(DisconnectResponse) != resp {
		t.Errorf("got %+v, want %+v", f.Body, resp)
	}
}

func TestTunnellingRequestAck_RoundTrip(t *testing.T) {
	record := cemi.DataRecord{TPCI: knxnet.UnnumberedData, APCI: knxnet.GroupWrite, Value: []byte{1}}
	req := TunnellingRequest{
		ChannelID:       5,
		SequenceCounter: 9,
		CEMI: RoutingIndication{
			MessageCode: knxnet.DataRequest,
			Control:     knxnet.DefaultControlField.WithDestinationGroup(true),
			Source:      0x1101,
			Dest:        0x0A03,
			Record:      &record,
		},
	}
	f, err := Parse(Encode(req))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decoded := f.Body.(TunnellingRequest)
	if decoded.ChannelID != req.ChannelID || decoded.SequenceCounter != req.SequenceCounter {
		t.Errorf("header mismatch: %+v", decoded)
	}
	if decoded.CEMI.Dest != req.CEMI.Dest || decoded.CEMI.Record.APCI != knxnet.GroupWrite {
		t.Errorf("cemi mismatch: %+v", decoded.CEMI)
	}

	ack := TunnellingAck{ChannelID: 5, SequenceCounter: 9, Status: 0}
	f, err = Parse(Encode(ack))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Body.(TunnellingAck) != ack {
		t.Errorf("got %+v, want %+v", f.Body, ack)
	}
}
