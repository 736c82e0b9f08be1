// Package portal is the first-boot provisioning flow: soft access
// point, one-connection-at-a-time HTTP form, credential save. The
// portal never exits after a successful save; the operator power-cycles
// the board and the next boot joins the configured network.
package portal

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hope-iot/circuit5/hardware/radio"
	"github.com/hope-iot/circuit5/helpers"
	"github.com/hope-iot/circuit5/log2"
	"github.com/hope-iot/circuit5/wifi"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/temoto/alive/v2"
)

const (
	DefaultAPSSID       = "UNO-R4-SETUP"
	DefaultAPPassphrase = "configureme"
	DefaultChannel      = 1
	DefaultPort         = 80

	defaultReadTimeout = 5 * time.Second
)

var ErrAPBringup = fmt.Errorf("wifi AP bring-up failed")

type Config struct {
	APSSID         string `hcl:"ap_ssid"`
	APPassphrase   string `hcl:"ap_passphrase"`
	Channel        int    `hcl:"channel"`
	Port           int    `hcl:"port"`
	ReadTimeoutSec int    `hcl:"read_timeout_sec"`
	LogDebug       bool   `hcl:"log_debug"`
}

type Portal struct {
	cfg         Config
	radio       radio.Driver
	store       *wifi.Store
	log         *log2.Log
	alive       *alive.Alive
	readTimeout time.Duration

	mu sync.Mutex
	ln net.Listener
}

func New(cfg Config, r radio.Driver, store *wifi.Store, log *log2.Log) *Portal {
	if cfg.APSSID == "" {
		cfg.APSSID = DefaultAPSSID
	}
	if cfg.APPassphrase == "" {
		cfg.APPassphrase = DefaultAPPassphrase
	}
	if cfg.Channel == 0 {
		cfg.Channel = DefaultChannel
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	self := &Portal{
		cfg:         cfg,
		radio:       r,
		store:       store,
		log:         log.Clone(log2.LInfo),
		alive:       alive.NewAlive(),
		readTimeout: helpers.IntSecondDefault(cfg.ReadTimeoutSec, defaultReadTimeout),
	}
	if cfg.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	return self
}

// Run blocks serving the portal. It returns only after Stop; AP
// bring-up failure logs and spins, the device is unusable without
// operator intervention.
func (self *Portal) Run() error {
	self.radio.End() // station mode off before AP

	self.log.Infof("starting wifi config AP...")
	st := self.radio.BeginAP(self.cfg.APSSID, self.cfg.APPassphrase, self.cfg.Channel)
	if st != radio.StatusAPListening {
		self.log.Errorf("failed to start AP status=%s", st.String())
		return self.halt()
	}

	ln, err := self.radio.Listen(uint16(self.cfg.Port))
	if err != nil {
		self.log.Errorf("portal listen err=%v", err)
		return self.halt()
	}
	helpers.WithLock(&self.mu, func() { self.ln = ln })
	defer ln.Close()

	self.log.Infof("config AP ssid=%s passphrase=%s", self.cfg.APSSID, self.cfg.APPassphrase)
	self.log.Infof("open http://%v/", self.radio.LocalIP())
	self.logJoinQR()

	// one connection at a time
	for self.alive.IsRunning() {
		conn, err := ln.Accept()
		if err != nil {
			if !self.alive.IsRunning() {
				break
			}
			self.log.Errorf("portal accept err=%v", err)
			continue
		}
		self.handleConn(conn)
	}
	return nil
}

// Stop unblocks Run. Only tests and the diagnostic console use it; on
// the device the portal runs until power-cycle.
func (self *Portal) Stop() {
	self.alive.Stop()
	helpers.WithLock(&self.mu, func() {
		if self.ln != nil {
			_ = self.ln.Close()
		}
	})
}

// Addr reports the bound listener address, or "" before Run got there.
func (self *Portal) Addr() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.ln == nil {
		return ""
	}
	return self.ln.Addr().String()
}

// halt implements the fatal AP bring-up policy: the loop spins until an
// explicit Stop, which never comes on the device.
func (self *Portal) halt() error {
	for self.alive.IsRunning() {
		select {
		case <-self.alive.StopChan():
		case <-time.After(1 * time.Second):
		}
	}
	return ErrAPBringup
}

// WIFI: join code on the serial console saves typing the AP passphrase.
func (self *Portal) logJoinQR() {
	content := fmt.Sprintf("WIFI:T:WPA;S:%s;P:%s;;", self.cfg.APSSID, self.cfg.APPassphrase)
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		self.log.Debugf("join qr err=%v", err)
		return
	}
	self.log.Infof("scan to join:\n%s", q.ToSmallString(false))
}
