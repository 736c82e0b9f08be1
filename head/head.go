// Package head sequences boot: load credentials, then either the
// provisioning portal (blocking, until power-cycle) or station join and
// the telemetry superloop.
package head

import (
	"time"

	"github.com/hope-iot/circuit5/hardware/nvram"
	"github.com/hope-iot/circuit5/hardware/radio"
	"github.com/hope-iot/circuit5/helpers"
	"github.com/hope-iot/circuit5/log2"
	"github.com/hope-iot/circuit5/portal"
	"github.com/hope-iot/circuit5/tele"
	"github.com/hope-iot/circuit5/wifi"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
)

const (
	defaultJoinTimeout     = 30 * time.Second
	defaultPublishInterval = 5 * time.Second
)

// SampleFunc supplies one telemetry reading per superloop iteration.
// Sensor drivers live outside the core; the entry point injects one.
type SampleFunc func() tele.Sample

type Head struct {
	cfg    *Config
	log    *log2.Log
	alive  *alive.Alive
	radio  radio.Driver
	store  *wifi.Store
	link   *wifi.Link
	portal *portal.Portal
	pub    *tele.Publisher
	sensor SampleFunc
}

func New(cfg *Config, r radio.Driver, dev nvram.Device, sensor SampleFunc, log *log2.Log) *Head {
	wlog := log
	if cfg.Wifi.LogDebug {
		wlog = log.Clone(log2.LDebug)
	}
	store := wifi.NewStore(dev, wlog)
	return &Head{
		cfg:    cfg,
		log:    log,
		alive:  alive.NewAlive(),
		radio:  r,
		store:  store,
		link:   wifi.NewLink(r, wlog),
		portal: portal.New(cfg.Portal, r, store, log),
		sensor: sensor,
	}
}

func (self *Head) Store() *wifi.Store     { return self.store }
func (self *Head) Link() *wifi.Link       { return self.link }
func (self *Head) Portal() *portal.Portal { return self.portal }
func (self *Head) Tele() *tele.Publisher  { return self.pub }

// Run blocks until Stop. Unprovisioned boot serves the portal; a join
// timeout falls back to the portal too, so a move to another network
// recovers without a factory reset. Absent radio is fatal.
func (self *Head) Run() error {
	rec, err := self.store.Load()
	switch {
	case err == nil:

	case errors.IsNotFound(err):
		self.log.Infof("no stored wifi credentials")
		return self.portal.Run()

	default:
		return errors.Annotate(err, "boot")
	}

	joinTimeout := helpers.IntSecondDefault(self.cfg.Wifi.JoinTimeoutSec, defaultJoinTimeout)
	err = self.link.Join(rec, joinTimeout)
	switch {
	case err == nil:

	case errors.IsTimeout(err):
		self.log.Errorf("wifi join failed, falling back to provisioning portal")
		return self.portal.Run()

	default:
		return errors.Annotate(err, "boot")
	}

	if self.cfg.Tele.Enabled {
		pub, err := tele.NewPublisher(self.cfg.Tele, self.link, self.log)
		if err != nil {
			return errors.Annotate(err, "boot")
		}
		self.pub = pub
		defer pub.Close()
		// broker being down is not fatal, the superloop keeps retrying
		_ = pub.Start()
	} else {
		self.log.Infof("telemetry disabled by config")
	}

	self.superloop()
	return nil
}

// Stop unblocks Run from another goroutine.
func (self *Head) Stop() {
	self.alive.Stop()
	self.portal.Stop()
}

// superloop is the steady state: every interval, one session
// maintenance step then one sensor sample published. Each iteration is
// bounded; errors degrade to dropped samples.
func (self *Head) superloop() {
	interval := helpers.IntSecondDefault(self.cfg.PublishIntervalSec, defaultPublishInterval)
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for self.alive.IsRunning() {
		select {
		case <-self.alive.StopChan():
			return

		case <-tick.C:
			if self.pub == nil {
				continue
			}
			self.pub.Tick()
			if self.sensor == nil {
				continue
			}
			sample := self.sensor()
			_ = self.pub.Publish(&sample)
		}
	}
}
