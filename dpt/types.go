package dpt

import "time"

// Dpt2Value is the decoded value of a 2.* (1-bit controlled) datapoint.
type Dpt2Value struct {
	Control bool
	Value   bool
}

// Dpt3Value is the decoded value of a 3.* (4-bit controlled step)
// datapoint: dimming or blind control.
type Dpt3Value struct {
	Control  bool
	StepCode uint8 // 0-7
}

// Dpt6020Value is the decoded value of DPT 6.020 "Status_Mode3": five
// status bits plus a 3-bit mode field holding one of {0,2,4}.
type Dpt6020Value struct {
	A, B, C, D, E bool
	Mode          uint8 // 0, 2, or 4
}

// Dpt10Value is the decoded value of DPT 10.001 "Time of Day".
type Dpt10Value struct {
	Day    uint8 // 0-7, 0 = no day
	Hour   uint8 // 0-23
	Minute uint8 // 0-59
	Second uint8 // 0-59
}

// Dpt11Value is the decoded value of DPT 11.001 "Date".
type Dpt11Value struct {
	Day   uint8 // 1-31
	Month uint8 // 1-12
	Year  int   // 4-digit
}

// Dpt15Value is the decoded value of DPT 15.* "Entrance Access": 6 BCD
// digits, 4 flag bits, and a 4-bit index field.
type Dpt15Value struct {
	Digits     [6]uint8 // each 0-9
	Flags      uint8    // 4 bits: detection error, permission, direction, encryption
	Index      uint8    // 4 bits
}

// Dpt18Value is the decoded value of DPT 18.001 "Scene Control".
type Dpt18Value struct {
	Learn bool // bit 7: true = learn/save, false = recall
	Scene uint8
}

// InvalidDateTime is the DPT 19.001 sentinel for "no valid date/time".
var InvalidDateTime = Dpt19Value{NoYear: true, NoDate: true, NoTime: true}

// Dpt19Value is the decoded value of DPT 19.001 "DateTime". A value with
// NoYear, NoDate, or NoTime set is the invalid-date-and-time sentinel; its
// Time field is meaningless and ignored on encode.
type Dpt19Value struct {
	Time        time.Time
	Fault       bool
	WorkingDay  bool
	NoWorkingDay bool
	NoYear      bool
	NoDate      bool
	NoDayOfWeek bool
	NoTime      bool
	SUTI        bool // standard utime info
	CLQ         bool // clock quality
}

// IsInvalid reports whether v is the invalid-date-and-time sentinel.
func (v Dpt19Value) IsInvalid() bool {
	return v.NoYear || v.NoDate || v.NoTime
}

// Dpt23Value is the decoded value of DPT 23.* (2-bit enums).
type Dpt23Value struct {
	A, B bool
}

// Dpt21Value is the decoded value of DPT 21.* (8-bit flag sets), indexed
// MSB-first: Bits[0] is bit 7 and Bits[7] is bit 0.
type Dpt21Value struct {
	Bits [8]bool
}

// Dpt22Value is the decoded value of DPT 22.* (16-bit flag sets), indexed
// bit 0 .. bit 15 low-to-high.
type Dpt22Value struct {
	Bits [16]bool
}

// Dpt26Value is the decoded value of DPT 26.001 "Scene Info".
type Dpt26Value struct {
	Active bool
	Scene  uint8 // 0-63
}

// Dpt27Value is the decoded value of DPT 27.001 "Combined Info On/Off": 16
// independently valid on/off channels.
type Dpt27Value struct {
	State [16]bool
	Valid [16]bool
}

// Dpt219Value is the decoded value of DPT 219.001 "Alarm Info".
type Dpt219Value struct {
	LogNumber  uint16
	Priority   uint8
	AppArea    uint8
	ErrorClass uint8
	Attributes uint8 // 0-15
	Status     uint8 // 0-7
}
