package dpt

import "testing"

func TestDpt15_RoundTrip(t *testing.T) {
	v := Dpt15Value{Digits: [6]uint8{1, 2, 3, 4, 5, 6}, Flags: 0x0A, Index: 0x03}
	encoded, err := Encode("15.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("15.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt15_InvalidDigit(t *testing.T) {
	v := Dpt15Value{Digits: [6]uint8{1, 2, 3, 4, 5, 10}}
	if _, err := Encode("15.001", v); err == nil {
		t.Error("expected error for non-decimal digit")
	}
}

func TestDpt27001_RoundTrip(t *testing.T) {
	var v Dpt27Value
	v.Valid[0] = true
	v.State[0] = true
	v.Valid[15] = true
	v.State[15] = false
	encoded, err := Encode("27.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("27.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt219001_RoundTrip(t *testing.T) {
	v := Dpt219Value{LogNumber: 1000, Priority: 2, AppArea: 3, ErrorClass: 4, Attributes: 9, Status: 5}
	encoded, err := Encode("219.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("219.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt219001_FieldRangeValidation(t *testing.T) {
	if _, err := Encode("219.001", Dpt219Value{Attributes: 16}); err == nil {
		t.Error("expected error for attributes=16")
	}
	if _, err := Encode("219.001", Dpt219Value{Status: 8}); err == nil {
		t.Error("expected error for status=8")
	}
}
