package tele

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		sample Sample
		expect string
	}{
		{"reference",
			Sample{DeviceID: "uno-r4-living-room", Temperature: 22.45, Humidity: 48.10, Status: "ok"},
			`{"deviceId":"uno-r4-living-room","temperature":22.45,"humidity":48.1,"status":"ok"}`},
		{"one-digit",
			Sample{DeviceID: "d", Temperature: 22.4, Humidity: 48.1, Status: "ok"},
			`{"deviceId":"d","temperature":22.4,"humidity":48.1,"status":"ok"}`},
		{"whole-number",
			Sample{DeviceID: "d", Temperature: 21.0, Humidity: 50.0, Status: "err"},
			`{"deviceId":"d","temperature":21.0,"humidity":50.0,"status":"err"}`},
		{"negative-rounds",
			Sample{DeviceID: "d", Temperature: -3.456, Humidity: 0, Status: "warn"},
			`{"deviceId":"d","temperature":-3.46,"humidity":0.0,"status":"warn"}`},
		{"status-escaped",
			Sample{DeviceID: "d", Temperature: 1.0, Humidity: 2.0, Status: `say "hi"\` + "\n"},
			`{"deviceId":"d","temperature":1.0,"humidity":2.0,"status":"say \"hi\"\\\n"}`},
		{"control-byte",
			Sample{DeviceID: "d\x01", Temperature: 1.0, Humidity: 2.0, Status: "ok"},
			`{"deviceId":"d\u0001","temperature":1.0,"humidity":2.0,"status":"ok"}`},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expect, string(c.sample.Encode()))
		})
	}
}
