package dpt

import "testing"

func TestDpt17001_RoundTrip(t *testing.T) {
	encoded, err := Encode("17.001", 42)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("17.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != uint8(42) {
		t.Errorf("got %v, want 42", decoded)
	}
}

func TestDpt17001_OutOfRange(t *testing.T) {
	if _, err := Encode("17.001", 64); err == nil {
		t.Error("expected error for scene 64")
	}
}

func TestDpt18001_RoundTrip(t *testing.T) {
	v := Dpt18Value{Learn: true, Scene: 17}
	encoded, err := Encode("18.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("18.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt26001_RoundTrip(t *testing.T) {
	v := Dpt26Value{Active: true, Scene: 5}
	encoded, err := Encode("26.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("26.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}
