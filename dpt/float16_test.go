package dpt

import "testing"

func TestDpt9_RoundTrip(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0}, {1, 1}, {-1, -1}, {0.01, 0.01}, {19.5, 19.5}, {-19.5, -19.5},
		// Not exactly representable: 100.25 needs exponent 3 (step 0.08) and
		// -273.15 needs exponent 4 (step 0.16), so each decodes to the
		// nearest representable value.
		{100.25, 100.24}, {-273.15, -273.12},
		{670760.96, 670760.96}, {-670760.96, -670760.96},
	}
	for _, tc := range cases {
		encoded, err := Encode("9.001", tc.in)
		if err != nil {
			t.Fatalf("Encode(%v): %v", tc.in, err)
		}
		decoded, err := Decode("9.001", encoded)
		if err != nil {
			t.Fatalf("Decode(%x): %v", encoded, err)
		}
		got := decoded.(float64)
		diff := got - tc.want
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.01 {
			t.Errorf("round trip %v -> %x -> %v, want %v, diff %v exceeds 0.01", tc.in, encoded, got, tc.want, diff)
		}
	}
}

func TestDpt9_MaxRepresentable(t *testing.T) {
	encoded, err := Encode("9.001", 670760.96)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded[0] == dpt9Invalid[0] && encoded[1] == dpt9Invalid[1] {
		t.Error("670760.96 should be representable, not sentinel")
	}
}

func TestDpt9_OutOfRangeEncodesSentinel(t *testing.T) {
	encoded, err := Encode("9.001", 10000000.0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded[0] != dpt9Invalid[0] || encoded[1] != dpt9Invalid[1] {
		t.Errorf("expected sentinel 0x7FFF, got %x", encoded)
	}
}

func TestDpt9_SentinelDecodesZero(t *testing.T) {
	decoded, err := Decode("9.001", []byte{0x7F, 0xFF})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != float64(0) {
		t.Errorf("got %v, want 0", decoded)
	}
}
