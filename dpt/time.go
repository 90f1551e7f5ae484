package dpt

import "time"

func init() {
	register("10.001", codec{encodeDpt10001, decodeDpt10001})
	register("11.001", codec{encodeDpt11001, decodeDpt11001})
	register("19.001", codec{encodeDpt19001, decodeDpt19001})
}

func encodeDpt10001(dpt string, value any) ([]byte, error) {
	v, ok := value.(Dpt10Value)
	if !ok {
		return nil, encodeErr(dpt, value, "expected Dpt10Value, got %T", value)
	}
	if v.Day > 7 || v.Hour > 23 || v.Minute > 59 || v.Second > 59 {
		return nil, encodeErr(dpt, value, "field out of range: %+v", v)
	}
	return []byte{
		v.Day<<5 | v.Hour,
		v.Minute,
		v.Second,
	}, nil
}

func decodeDpt10001(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return Dpt10Value{}, nil
	}
	if len(data) < 3 {
		return nil, decodeErr(dpt, "need 3 bytes, got %d", len(data))
	}
	return Dpt10Value{
		Day:    data[0] >> 5 & 0x07,
		Hour:   data[0] & 0x1F,
		Minute: data[1] & 0x3F,
		Second: data[2] & 0x3F,
	}, nil
}

func encodeDpt11001(dpt string, value any) ([]byte, error) {
	v, ok := value.(Dpt11Value)
	if !ok {
		return nil, encodeErr(dpt, value, "expected Dpt11Value, got %T", value)
	}
	if v.Day < 1 || v.Day > 31 || v.Month < 1 || v.Month > 12 {
		return nil, encodeErr(dpt, value, "day/month out of range: %+v", v)
	}
	if v.Year < 1990 || v.Year > 2089 {
		return nil, encodeErr(dpt, value, "year %d outside representable window [1990,2089]", v.Year)
	}
	yearByte := v.Year % 100
	return []byte{v.Day, v.Month, byte(yearByte)}, nil
}

func decodeDpt11001(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return Dpt11Value{}, nil
	}
	if len(data) < 3 {
		return nil, decodeErr(dpt, "need 3 bytes, got %d", len(data))
	}
	yy := int(data[2] & 0x7F)
	year := 2000 + yy
	if yy >= 90 {
		year = 1900 + yy
	}
	return Dpt11Value{Day: data[0] & 0x1F, Month: data[1] & 0x0F, Year: year}, nil
}

func encodeDpt19001(dpt string, value any) ([]byte, error) {
	v, ok := value.(Dpt19Value)
	if !ok {
		return nil, encodeErr(dpt, value, "expected Dpt19Value, got %T", value)
	}
	buf := make([]byte, 8)
	if !v.IsInvalid() {
		t := v.Time
		if t.Year() < 1900 || t.Year() > 2155 {
			return nil, encodeErr(dpt, value, "year %d outside representable window [1900,2155]", t.Year())
		}
		buf[0] = byte(t.Year() - 1900)
		buf[1] = byte(t.Month())
		buf[2] = byte(t.Day())
		dow := int(t.Weekday())
		if dow == 0 {
			dow = 7 // KNX: Monday=1 .. Sunday=7
		}
		buf[3] = byte(dow)<<5 | byte(t.Hour())
		buf[4] = byte(t.Minute())
		buf[5] = byte(t.Second())
	}
	var flags byte
	if v.Fault {
		flags |= 0x80
	}
	if v.WorkingDay {
		flags |= 0x40
	}
	if v.NoWorkingDay {
		flags |= 0x20
	}
	if v.NoYear {
		flags |= 0x10
	}
	if v.NoDate {
		flags |= 0x08
	}
	if v.NoDayOfWeek {
		flags |= 0x04
	}
	if v.NoTime {
		flags |= 0x02
	}
	if v.SUTI {
		flags |= 0x01
	}
	buf[6] = flags
	if v.CLQ {
		buf[7] = 0x80
	}
	return buf, nil
}

func decodeDpt19001(dpt string, data []byte) (any, error) {
	if len(data) == 0 {
		return InvalidDateTime, nil
	}
	if len(data) < 8 {
		return nil, decodeErr(dpt, "need 8 bytes, got %d", len(data))
	}
	flags := data[6]
	v := Dpt19Value{
		Fault:        flags&0x80 != 0,
		WorkingDay:   flags&0x40 != 0,
		NoWorkingDay: flags&0x20 != 0,
		NoYear:       flags&0x10 != 0,
		NoDate:       flags&0x08 != 0,
		NoDayOfWeek:  flags&0x04 != 0,
		NoTime:       flags&0x02 != 0,
		SUTI:         flags&0x01 != 0,
		CLQ:          data[7]&0x80 != 0,
	}
	if !v.IsInvalid() {
		year := 1900 + int(data[0])
		month := time.Month(data[1] & 0x0F)
		day := int(data[2] & 0x1F)
		hour := int(data[3] & 0x1F)
		minute := int(data[4] & 0x3F)
		second := int(data[5] & 0x3F)
		v.Time = time.Date(year, month, day, hour, minute, second, 0, time.UTC)
	}
	return v, nil
}
