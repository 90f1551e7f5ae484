package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelegram records one decoded group-service telegram as a point.
//
// Only numeric and boolean values are recorded (measurement=knx_telegram,
// tags ga/dpt/source, field value); other DPT shapes (dates, strings,
// structs) are not currently mapped to a scalar field and are skipped.
// The write is non-blocking; failures surface only via the error callback
// set with SetOnError.
func (c *Client) WriteTelegram(ga string, dptName string, source string, value any) {
	if !c.IsConnected() {
		return
	}

	field, ok := scalarField(value)
	if !ok {
		return
	}

	point := write.NewPoint(
		"knx_telegram",
		map[string]string{
			"ga":     ga,
			"dpt":    dptName,
			"source": source,
		},
		map[string]interface{}{
			"value": field,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// scalarField reduces a DPT-decoded value to the numeric type InfluxDB line
// protocol accepts as a field, or reports false if it has no scalar form.
func scalarField(value any) (float64, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case uint:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteTelegram.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
