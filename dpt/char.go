package dpt

import "strings"

func init() {
	register("4.001", codec{encodeDpt4001, decodeDpt4001})
	register("4.002", codec{encodeDpt4002, decodeDpt4002})
	register("16.000", codec{encodeDpt16000, decodeDpt16000})
	register("16.001", codec{encodeDpt16001, decodeDpt16001})
	register("24.001", codec{encodeNulTerminatedString, decodeNulTerminatedString})
	register("28.001", codec{encodeUTF8String, decodeUTF8String})
}

func encodeDpt4001(dpt string, value any) ([]byte, error) {
	c, ok := value.(byte)
	if !ok {
		return nil, encodeErr(dpt, value, "expected byte (7-bit ASCII), got %T", value)
	}
	if c > 127 {
		return nil, encodeErr(dpt, value, "character %#02x exceeds 7-bit ASCII range", c)
	}
	return []byte{c}, nil
}

func decodeDpt4001(dpt string, data []byte) (any, error) {
	if len(data) < 1 {
		return nil, decodeErr(dpt, "need at least 1 byte, got %d", len(data))
	}
	return data[0], nil
}

func encodeDpt4002(dpt string, value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, encodeErr(dpt, value, "expected single-rune string, got %T", value)
	}
	runes := []rune(s)
	if len(runes) != 1 || runes[0] > 0xFF {
		return nil, encodeErr(dpt, value, "expected exactly one Latin-1 code point")
	}
	return []byte{byte(runes[0])}, nil
}

func decodeDpt4002(dpt string, data []byte) (any, error) {
	if len(data) < 1 {
		return nil, decodeErr(dpt, "need at least 1 byte, got %d", len(data))
	}
	return string(rune(data[0])), nil
}

const dpt16Width = 14

func encodeDpt16000(dpt string, value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, encodeErr(dpt, value, "expected string, got %T", value)
	}
	for _, r := range s {
		if r > 127 {
			return nil, encodeErr(dpt, value, "character %q is not 7-bit ASCII", r)
		}
	}
	return fixedWidthLatin1(s), nil
}

func decodeDpt16000(dpt string, data []byte) (any, error) {
	return decodeFixedWidthLatin1(dpt, data)
}

func encodeDpt16001(dpt string, value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, encodeErr(dpt, value, "expected string, got %T", value)
	}
	return fixedWidthLatin1(s), nil
}

func decodeDpt16001(dpt string, data []byte) (any, error) {
	return decodeFixedWidthLatin1(dpt, data)
}

func fixedWidthLatin1(s string) []byte {
	buf := make([]byte, dpt16Width)
	runes := []rune(s)
	for i := 0; i < len(runes) && i < dpt16Width; i++ {
		buf[i] = byte(runes[i])
	}
	return buf
}

func decodeFixedWidthLatin1(dpt string, data []byte) (any, error) {
	if len(data) < dpt16Width {
		return nil, decodeErr(dpt, "need %d bytes, got %d", dpt16Width, len(data))
	}
	trimmed := data[:dpt16Width]
	runes := make([]rune, 0, dpt16Width)
	for _, b := range trimmed {
		if b == 0 {
			break
		}
		runes = append(runes, rune(b))
	}
	return string(runes), nil
}

func encodeNulTerminatedString(dpt string, value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, encodeErr(dpt, value, "expected string, got %T", value)
	}
	return append([]byte(s), 0x00), nil
}

func decodeNulTerminatedString(dpt string, data []byte) (any, error) {
	if i := indexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

func encodeUTF8String(dpt string, value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, encodeErr(dpt, value, "expected string, got %T", value)
	}
	return append([]byte(s), 0x00), nil
}

func decodeUTF8String(dpt string, data []byte) (any, error) {
	if i := indexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

func indexByte(data []byte, b byte) int {
	for i, v := range data {
		if v == b {
			return i
		}
	}
	return -1
}
