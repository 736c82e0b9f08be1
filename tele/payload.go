package tele

import (
	"fmt"
	"strconv"
)

// Sample is one telemetry reading. Constructed per publish, never
// persisted.
type Sample struct {
	DeviceID    string
	Temperature float64 // degrees Celsius
	Humidity    float64 // relative percent
	Status      string  // "ok", "warn", "err"
}

// Encode produces the wire payload: UTF-8 JSON with fixed key order and
// decimals carrying one or two fractional digits, e.g.
// {"deviceId":"uno-r4-living-room","temperature":22.45,"humidity":48.1,"status":"ok"}
func (s *Sample) Encode() []byte {
	b := make([]byte, 0, 96)
	b = append(b, `{"deviceId":`...)
	b = appendJSONString(b, s.DeviceID)
	b = append(b, `,"temperature":`...)
	b = appendDecimal(b, s.Temperature)
	b = append(b, `,"humidity":`...)
	b = appendDecimal(b, s.Humidity)
	b = append(b, `,"status":`...)
	b = appendJSONString(b, s.Status)
	b = append(b, '}')
	return b
}

func (s *Sample) String() string {
	return fmt.Sprintf("Sample(%s t=%.2f h=%.2f %s)", s.DeviceID, s.Temperature, s.Humidity, s.Status)
}

// Round to two fractional digits, then drop one trailing zero:
// 22.45 -> "22.45", 48.10 -> "48.1", 21.00 -> "21.0".
func appendDecimal(b []byte, v float64) []byte {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return append(b, s...)
}

const hexDigits = "0123456789abcdef"

func appendJSONString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			b = append(b, '\\', '"')
		case c == '\\':
			b = append(b, '\\', '\\')
		case c == '\n':
			b = append(b, '\\', 'n')
		case c == '\r':
			b = append(b, '\\', 'r')
		case c == '\t':
			b = append(b, '\\', 't')
		case c < 0x20:
			b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		default:
			b = append(b, c)
		}
	}
	return append(b, '"')
}
