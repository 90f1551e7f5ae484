package dpt

import "testing"

func TestNumeric_RoundTrip(t *testing.T) {
	cases := []struct {
		dpt   string
		value any
	}{
		{"5.001", uint8(200)},
		{"6.001", int8(-42)},
		{"7.001", uint16(50000)},
		{"8.001", int16(-12345)},
		{"12.001", uint32(4000000000)},
		{"13.001", int32(-2000000000)},
		{"14.001", float32(3.5)},
		{"29.001", int64(-9000000000000)},
		{"20.102", uint8(7)},
		{"25.001", uint8(3)},
	}
	for _, tc := range cases {
		encoded, err := Encode(tc.dpt, tc.value)
		if err != nil {
			t.Fatalf("Encode(%s, %v): %v", tc.dpt, tc.value, err)
		}
		decoded, err := Decode(tc.dpt, encoded)
		if err != nil {
			t.Fatalf("Decode(%s, %x): %v", tc.dpt, encoded, err)
		}
		if decoded != tc.value {
			t.Errorf("%s: round-trip mismatch: got %v, want %v", tc.dpt, decoded, tc.value)
		}
	}
}

func TestNumeric_OutOfRange(t *testing.T) {
	if _, err := Encode("5.001", 300); err == nil {
		t.Error("expected error encoding 300 as 5.001")
	}
	if _, err := Encode("6.001", 200); err == nil {
		t.Error("expected error encoding 200 as 6.001")
	}
}

func TestNumeric_EmptyPayloadDecodesZero(t *testing.T) {
	decoded, err := Decode("7.001", nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != uint16(0) {
		t.Errorf("got %v, want 0", decoded)
	}
}

func TestDpt6020_RoundTrip(t *testing.T) {
	v := Dpt6020Value{A: true, C: true, E: true, Mode: 2}
	encoded, err := Encode("6.020", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("6.020", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt6020_InvalidMode(t *testing.T) {
	if _, err := Encode("6.020", Dpt6020Value{Mode: 3}); err == nil {
		t.Error("expected error for mode=3")
	}
}
