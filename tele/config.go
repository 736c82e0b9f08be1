package tele

import (
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"

	"github.com/juju/errors"
)

const (
	DefaultBrokerURL = "tcp://broker.hivemq.com:1883"
	DefaultTopic     = "hope/iot/circuit5/living-room/uno-r4/telemetry"
	DefaultClientID  = "uno-r4-living-room"
	DefaultDeviceID  = "uno-r4-living-room"
)

type Config struct { //nolint:maligned
	Enabled           bool   `hcl:"enable"`
	DeviceID          string `hcl:"device_id"`
	BrokerURL         string `hcl:"broker_url"` // tcp://host:1883 or tls://host:8883
	Topic             string `hcl:"topic"`
	ClientID          string `hcl:"client_id"`
	Username          string `hcl:"username"`
	Password          string `hcl:"password"` // secret
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	ConnectDelayMs    int    `hcl:"connect_delay_ms"`
	ConnectAttempts   int    `hcl:"connect_attempts"`
	TLSCaFile         string `hcl:"tls_ca_file"`
	LogDebug          bool   `hcl:"log_debug"`
}

func (c *Config) tlsConfig() (*tls.Config, error) {
	tlsconf := new(tls.Config)
	if c.TLSCaFile != "" {
		cabytes, err := ioutil.ReadFile(c.TLSCaFile)
		if err != nil {
			return nil, errors.Annotatef(err, "tele tls_ca_file=%s", c.TLSCaFile)
		}
		tlsconf.RootCAs = x509.NewCertPool()
		if !tlsconf.RootCAs.AppendCertsFromPEM(cabytes) {
			return nil, errors.NotValidf("tele tls_ca_file=%s no certificates", c.TLSCaFile)
		}
	}
	return tlsconf, nil
}
