// Package tele maintains the broker session and publishes telemetry.
//
// Contract:
//   - Start() attempts one bounded connect; broker being down is not fatal
//   - Tick() runs every superloop iteration: reconnect when needed, then
//     one keep-alive step; each pause inside is bounded so the loop keeps
//     servicing the radio
//   - Publish() is QoS 0 fire-and-forget in call order; with Wi-Fi or the
//     session down the sample is dropped with a log line, never queued
package tele

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/256dpi/gomqtt/packet"
	"github.com/256dpi/gomqtt/transport"
	"github.com/hope-iot/circuit5/helpers"
	"github.com/hope-iot/circuit5/log2"
	"github.com/juju/errors"
)

const (
	defaultKeepalive      = 60 * time.Second
	defaultNetworkTimeout = 10 * time.Second
	defaultConnectDelay   = 2 * time.Second
	defaultConnectTries   = 5
)

var ErrWifiDown = fmt.Errorf("wifi not connected")

// State of the broker session, driven by Tick/Publish.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateBackoff
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateBackoff:
		return "backoff"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// Uplink is what the publisher needs from the network link.
type Uplink interface {
	IsUp() bool
}

type Publisher struct { //nolint:maligned
	cfg    Config
	uplink Uplink
	log    *log2.Log

	dialer *transport.Dialer
	conpkt *packet.Connect

	keepalive      time.Duration
	networkTimeout time.Duration
	connectDelay   time.Duration
	connectTries   int

	state int32 // atomic State

	mu   sync.Mutex // guards sess against the reader goroutine's onDead
	sess *session
}

// NewPublisher returns only configuration errors; network IO starts
// with Start.
func NewPublisher(cfg Config, uplink Uplink, log *log2.Log) (*Publisher, error) {
	if cfg.BrokerURL == "" {
		cfg.BrokerURL = DefaultBrokerURL
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if _, err := url.ParseRequestURI(cfg.BrokerURL); err != nil {
		return nil, errors.Annotatef(err, "config error tele broker_url=%s", cfg.BrokerURL)
	}
	tlsconf, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	self := &Publisher{
		cfg:            cfg,
		uplink:         uplink,
		log:            log.Clone(log2.LInfo),
		keepalive:      helpers.IntSecondDefault(cfg.KeepaliveSec, defaultKeepalive),
		networkTimeout: helpers.IntSecondDefault(cfg.NetworkTimeoutSec, defaultNetworkTimeout),
		connectDelay:   defaultConnectDelay,
		connectTries:   defaultConnectTries,
	}
	if cfg.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if cfg.ConnectDelayMs > 0 {
		self.connectDelay = time.Duration(cfg.ConnectDelayMs) * time.Millisecond
	}
	if cfg.ConnectAttempts > 0 {
		self.connectTries = cfg.ConnectAttempts
	}

	self.conpkt = packet.NewConnect()
	self.conpkt.ClientID = cfg.ClientID
	self.conpkt.KeepAlive = uint16(self.keepalive / time.Second)
	self.conpkt.CleanSession = true
	self.conpkt.Username = cfg.Username
	self.conpkt.Password = cfg.Password
	self.dialer = transport.NewDialer(transport.DialConfig{
		TLSConfig: tlsconf,
		Timeout:   self.networkTimeout,
	})
	return self, nil
}

// Start attempts the initial connect. The error is informational: the
// superloop proceeds and Tick retries.
func (self *Publisher) Start() error {
	self.log.Infof("tele start broker=%s client_id=%s", self.cfg.BrokerURL, self.cfg.ClientID)
	return self.connect()
}

func (self *Publisher) State() State {
	return State(atomic.LoadInt32(&self.state))
}

func (self *Publisher) setState(s State) {
	atomic.StoreInt32(&self.state, int32(s))
}

func (self *Publisher) session() *session {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.sess
}

func (self *Publisher) Connected() bool {
	s := self.session()
	return s != nil && s.isAlive() && self.State() == StateConnected
}

// Tick keeps the session healthy: no-op while Wi-Fi is down, bounded
// reconnect while the session is down, one keep-alive step otherwise.
func (self *Publisher) Tick() {
	if !self.uplink.IsUp() {
		return
	}
	if !self.Connected() {
		_ = self.connect()
	}
	if self.Connected() {
		self.session().maintain()
	}
}

// Publish encodes and emits one sample at QoS 0 on the configured
// topic. Samples are dropped, never queued, when Wi-Fi or the session
// is down.
func (self *Publisher) Publish(sample *Sample) error {
	if !self.uplink.IsUp() {
		self.log.Infof("publish: wifi not connected, dropping sample")
		return ErrWifiDown
	}
	if !self.Connected() {
		self.log.Infof("publish: mqtt not connected, attempting reconnect...")
		if self.connect() != nil {
			self.log.Infof("publish: reconnect failed, dropping sample")
			return ErrNotConnected
		}
	}
	if sample.DeviceID == "" {
		sample.DeviceID = defaultString(self.cfg.DeviceID, DefaultDeviceID)
	}

	payload := sample.Encode()
	publish := packet.NewPublish()
	publish.Message = packet.Message{
		Topic:   self.cfg.Topic,
		Payload: payload,
		QOS:     packet.QOSAtMostOnce,
	}
	self.log.Infof("publishing -> %s : %s", self.cfg.Topic, payload)
	if err := self.session().send(publish); err != nil {
		return errors.Annotate(err, "publish")
	}
	return nil
}

// Close disconnects cleanly. Only the host build uses it; the device
// runs until power-cycle.
func (self *Publisher) Close() {
	if s := self.session(); s != nil && s.isAlive() {
		s.disconnect()
	}
	self.setState(StateIdle)
}

// connect runs the bounded procedure: up to connectTries attempts
// separated by connectDelay, then gives up until the next Tick. Bounded
// so the superloop keeps running.
func (self *Publisher) connect() error {
	var err error
	for attempt := 1; attempt <= self.connectTries; attempt++ {
		self.setState(StateConnecting)
		self.log.Infof("connecting to mqtt broker %s", self.cfg.BrokerURL)
		var s *session
		s, err = newSession(self.dialer, self.cfg.BrokerURL, self.conpkt,
			self.keepalive, self.networkTimeout, self.log, self.onSessionDead)
		if err == nil {
			helpers.WithLock(&self.mu, func() { self.sess = s })
			self.setState(StateConnected)
			self.log.Infof("mqtt connected")
			return nil
		}
		self.log.Errorf("mqtt connect failed: %v", err)
		if attempt < self.connectTries {
			self.setState(StateBackoff)
			time.Sleep(self.connectDelay)
		}
	}
	self.setState(StateIdle)
	return errors.Annotatef(err, "connect attempts=%d", self.connectTries)
}

// session loss re-enters Idle; the next Tick reconnects. A death
// notification from a session that a newer connect already replaced is
// ignored, it must not stamp Idle over the fresh Connected state.
func (self *Publisher) onSessionDead(s *session, e error) {
	self.mu.Lock()
	stale := s != self.sess
	self.mu.Unlock()
	if stale {
		return
	}
	if e != nil {
		self.log.Errorf("mqtt session lost: %v", e)
	}
	self.setState(StateIdle)
}

func defaultString(main, def string) string {
	if main == "" {
		return def
	}
	return main
}
