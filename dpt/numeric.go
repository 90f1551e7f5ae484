package dpt

import "math"

func init() {
	register("5.*", codec{encodeUint8, decodeUint8})
	register("6.020", codec{encodeDpt6020, decodeDpt6020})
	register("6.*", codec{encodeInt8, decodeInt8})
	register("7.*", codec{encodeUint16, decodeUint16})
	register("8.*", codec{encodeInt16, decodeInt16})
	register("12.*", codec{encodeUint32, decodeUint32})
	register("13.*", codec{encodeInt32, decodeInt32})
	register("14.*", codec{encodeFloat32, decodeFloat32})
	register("20.*", codec{encodeUint8, decodeUint8})
	register("25.001", codec{encodeUint8, decodeUint8})
	register("29.*", codec{encodeInt64, decodeInt64})
}

func encodeUint8(dpt string, value any) ([]byte, error) {
	v, ok := toUint64(value)
	if !ok || v > math.MaxUint8 {
		return nil, encodeErr(dpt, value, "expected value in [0,255]")
	}
	return []byte{byte(v)}, nil
}

func decodeUint8(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return uint8(0), nil
	}
	return data[0], nil
}

func encodeInt8(dpt string, value any) ([]byte, error) {
	v, ok := toInt64(value)
	if !ok || v < math.MinInt8 || v > math.MaxInt8 {
		return nil, encodeErr(dpt, value, "expected value in [-128,127]")
	}
	return []byte{byte(int8(v))}, nil
}

func decodeInt8(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return int8(0), nil
	}
	return int8(data[0]), nil
}

func encodeUint16(dpt string, value any) ([]byte, error) {
	v, ok := toUint64(value)
	if !ok || v > math.MaxUint16 {
		return nil, encodeErr(dpt, value, "expected value in [0,65535]")
	}
	return []byte{byte(v >> 8), byte(v)}, nil
}

func decodeUint16(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return uint16(0), nil
	}
	if len(data) < 2 {
		return nil, decodeErr(dpt, "need 2 bytes, got %d", len(data))
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}

func encodeInt16(dpt string, value any) ([]byte, error) {
	v, ok := toInt64(value)
	if !ok || v < math.MinInt16 || v > math.MaxInt16 {
		return nil, encodeErr(dpt, value, "expected value in [-32768,32767]")
	}
	u := uint16(int16(v))
	return []byte{byte(u >> 8), byte(u)}, nil
}

func decodeInt16(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return int16(0), nil
	}
	if len(data) < 2 {
		return nil, decodeErr(dpt, "need 2 bytes, got %d", len(data))
	}
	return int16(uint16(data[0])<<8 | uint16(data[1])), nil
}

func encodeUint32(dpt string, value any) ([]byte, error) {
	v, ok := toUint64(value)
	if !ok || v > math.MaxUint32 {
		return nil, encodeErr(dpt, value, "expected value in [0,4294967295]")
	}
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}, nil
}

func decodeUint32(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return uint32(0), nil
	}
	if len(data) < 4 {
		return nil, decodeErr(dpt, "need 4 bytes, got %d", len(data))
	}
	return uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), nil
}

func encodeInt32(dpt string, value any) ([]byte, error) {
	v, ok := toInt64(value)
	if !ok || v < math.MinInt32 || v > math.MaxInt32 {
		return nil, encodeErr(dpt, value, "expected value in int32 range")
	}
	u := uint32(int32(v))
	return []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}, nil
}

func decodeInt32(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return int32(0), nil
	}
	if len(data) < 4 {
		return nil, decodeErr(dpt, "need 4 bytes, got %d", len(data))
	}
	return int32(uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])), nil
}

func encodeFloat32(dpt string, value any) ([]byte, error) {
	f, ok := toFloat64(value)
	if !ok {
		return nil, encodeErr(dpt, value, "expected numeric value")
	}
	bits := math.Float32bits(float32(f))
	return []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}, nil
}

func decodeFloat32(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return float32(0), nil
	}
	if len(data) < 4 {
		return nil, decodeErr(dpt, "need 4 bytes, got %d", len(data))
	}
	bits := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	return math.Float32frombits(bits), nil
}

func encodeInt64(dpt string, value any) ([]byte, error) {
	v, ok := toInt64(value)
	if !ok {
		return nil, encodeErr(dpt, value, "expected integer value")
	}
	u := uint64(v)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (56 - 8*i))
	}
	return buf, nil
}

func decodeInt64(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return int64(0), nil
	}
	if len(data) < 8 {
		return nil, decodeErr(dpt, "need 8 bytes, got %d", len(data))
	}
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(data[i])
	}
	return int64(u), nil
}

func encodeDpt6020(dpt string, value any) ([]byte, error) {
	v, ok := value.(Dpt6020Value)
	if !ok {
		return nil, encodeErr(dpt, value, "expected Dpt6020Value, got %T", value)
	}
	if v.Mode != 0 && v.Mode != 2 && v.Mode != 4 {
		return nil, encodeErr(dpt, value, "mode must be 0, 2, or 4, got %d", v.Mode)
	}
	var b byte
	if v.A {
		b |= 0x01
	}
	if v.B {
		b |= 0x02
	}
	if v.C {
		b |= 0x04
	}
	if v.D {
		b |= 0x08
	}
	if v.E {
		b |= 0x10
	}
	b |= v.Mode << 5
	return []byte{b}, nil
}

func decodeDpt6020(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return Dpt6020Value{}, nil
	}
	b := data[0]
	return Dpt6020Value{
		A:    b&0x01 != 0,
		B:    b&0x02 != 0,
		C:    b&0x04 != 0,
		D:    b&0x08 != 0,
		E:    b&0x10 != 0,
		Mode: (b >> 5) & 0x07,
	}, nil
}

func toUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
