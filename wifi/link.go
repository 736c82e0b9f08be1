package wifi

import (
	"fmt"
	"time"

	"github.com/hope-iot/circuit5/hardware/radio"
	"github.com/hope-iot/circuit5/log2"
	"github.com/juju/errors"
)

var ErrNoRadio = fmt.Errorf("wifi radio module not found")

const defaultJoinPoll = 1 * time.Second

// Link drives the radio in station mode: one synchronous Join under a
// deadline, then IsUp polls before every publish.
type Link struct {
	radio radio.Driver
	log   *log2.Log

	// Poll is the association retry grain, default 1s. Tests shorten it.
	Poll time.Duration
}

func NewLink(r radio.Driver, log *log2.Log) *Link {
	return &Link{radio: r, log: log, Poll: defaultJoinPoll}
}

// Join repeatedly initiates association until the driver reports
// connected or timeout elapses. Returns ErrNoRadio when the module is
// absent, juju Timeout on deadline.
func (self *Link) Join(r Record, timeout time.Duration) error {
	if self.radio.Status() == radio.StatusNoModule {
		self.log.Errorf("wifi module not found")
		return ErrNoRadio
	}

	ssid := r.SSIDString()
	self.log.Infof("connecting to %s ...", ssid)
	deadline := time.Now().Add(timeout)
	for {
		st := self.radio.BeginStation(ssid, r.PassphraseString())
		if st == radio.StatusConnected {
			self.log.Infof("connected to wifi, ip=%v", self.radio.LocalIP())
			return nil
		}
		if !time.Now().Before(deadline) {
			self.log.Errorf("wifi join timed out ssid=%s", ssid)
			return errors.Timeoutf("wifi join ssid=%s", ssid)
		}
		self.log.Debugf("wifi join poll status=%s", st.String())
		time.Sleep(self.Poll)
	}
}

func (self *Link) IsUp() bool {
	return self.radio.Status() == radio.StatusConnected
}

func (self *Link) LocalIP() string {
	if ip := self.radio.LocalIP(); ip != nil {
		return ip.String()
	}
	return ""
}
