package dpt

import (
	"testing"
	"time"
)

func TestDpt10001_RoundTrip(t *testing.T) {
	v := Dpt10Value{Day: 3, Hour: 14, Minute: 30, Second: 45}
	encoded, err := Encode("10.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("10.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt11001_RoundTrip(t *testing.T) {
	v := Dpt11Value{Day: 31, Month: 12, Year: 2089}
	encoded, err := Encode("11.001", v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("11.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != v {
		t.Errorf("got %+v, want %+v", decoded, v)
	}
}

func TestDpt11001_YearWindowing(t *testing.T) {
	cases := []struct {
		yearByte byte
		want     int
	}{
		{89, 2089},
		{90, 1990},
		{0, 2000},
		{99, 1999},
	}
	for _, tc := range cases {
		decoded, err := Decode("11.001", []byte{1, 1, tc.yearByte})
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		v := decoded.(Dpt11Value)
		if v.Year != tc.want {
			t.Errorf("year byte %d: got %d, want %d", tc.yearByte, v.Year, tc.want)
		}
	}
}

func TestDpt19001_InvalidSentinelRoundTrip(t *testing.T) {
	encoded, err := Encode("19.001", InvalidDateTime)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode("19.001", encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := decoded.(Dpt19Value)
	if !v.IsInvalid() {
		t.Errorf("expected decoded sentinel to report IsInvalid, got %+v", v)
	}
}

func TestDpt19001_CalendarRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 13, 45, 59, 0, time.UTC),
		time.Date(2155, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, want := range cases {
		v := Dpt19Value{Time: want}
		encoded, err := Encode("19.001", v)
		if err != nil {
			t.Fatalf("Encode(%v): %v", want, err)
		}
		decoded, err := Decode("19.001", encoded)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got := decoded.(Dpt19Value)
		if !got.Time.Equal(want) {
			t.Errorf("got %v, want %v", got.Time, want)
		}
	}
}
