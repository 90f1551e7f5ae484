package address

import "testing"

func TestIndividualAddress_RoundTripRaw(t *testing.T) {
	tests := []IndividualAddress{
		{Area: 0, Line: 0, Device: 0},
		{Area: 15, Line: 15, Device: 255},
		{Area: 1, Line: 1, Device: 1},
	}
	for _, a := range tests {
		got := IndividualAddressFromUint16(a.ToUint16())
		if got != a {
			t.Errorf("round trip %v -> %#04x -> %v", a, a.ToUint16(), got)
		}
	}
}

func TestIndividualAddress_RoundTripString(t *testing.T) {
	a, err := ParseIndividualAddress("1.1.1")
	if err != nil {
		t.Fatalf("ParseIndividualAddress() error = %v", err)
	}
	if a.String() != "1.1.1" {
		t.Errorf("String() = %q, want %q", a.String(), "1.1.1")
	}

	back, err := ParseIndividualAddress(a.String())
	if err != nil || back != a {
		t.Errorf("round trip failed: %v, err=%v", back, err)
	}
}

func TestParseIndividualAddress_Invalid(t *testing.T) {
	cases := []string{"1.1", "1.1.1.1", "a.1.1", "16.0.0", "0.16.0"}
	for _, c := range cases {
		if _, err := ParseIndividualAddress(c); err == nil {
			t.Errorf("ParseIndividualAddress(%q) expected error", c)
		}
	}
}

func TestGroupAddress_RoundTripRaw(t *testing.T) {
	tests := []GroupAddress{
		{Main: 31, Middle: 7, Sub: 255},
		{Main: 0, Middle: 0, Sub: 1},
		{Main: 1, Middle: 2, Sub: 3},
	}
	for _, g := range tests {
		got := GroupAddressFromUint16(g.ToUint16())
		if got != g {
			t.Errorf("round trip %v -> %#04x -> %v", g, g.ToUint16(), got)
		}
	}
}

func TestGroupAddress_SpecBoundaries(t *testing.T) {
	g := GroupAddress{Main: 31, Middle: 7, Sub: 255}
	if g.ToUint16() != 0xFFFF {
		t.Errorf("GroupAddress(31,7,255).ToUint16() = %#04x, want 0xFFFF", g.ToUint16())
	}

	g2 := GroupAddress{Main: 0, Middle: 0, Sub: 1}
	if g2.ToUint16() != 0x0001 {
		t.Errorf("GroupAddress(0,0,1).ToUint16() = %#04x, want 0x0001", g2.ToUint16())
	}
}

func TestGroupAddress_RoundTripString(t *testing.T) {
	g, err := ParseGroupAddress("1/2/3")
	if err != nil {
		t.Fatalf("ParseGroupAddress() error = %v", err)
	}
	if g.String() != "1/2/3" {
		t.Errorf("String() = %q, want %q", g.String(), "1/2/3")
	}
}

func TestParseGroupAddress_Invalid(t *testing.T) {
	cases := []string{"1/2", "1/2/3/4", "32/0/0", "0/8/0", "x/1/1"}
	for _, c := range cases {
		if _, err := ParseGroupAddress(c); err == nil {
			t.Errorf("ParseGroupAddress(%q) expected error", c)
		}
	}
}

func TestNewGroupAddress_RangeChecked(t *testing.T) {
	if _, err := NewGroupAddress(32, 0, 0); err == nil {
		t.Error("NewGroupAddress(32,0,0) expected range error")
	}
	if _, err := NewGroupAddress(0, 8, 0); err == nil {
		t.Error("NewGroupAddress(0,8,0) expected range error")
	}
	if _, err := NewGroupAddress(31, 7, 255); err != nil {
		t.Errorf("NewGroupAddress(31,7,255) unexpected error: %v", err)
	}
}
