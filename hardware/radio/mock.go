package radio

import (
	"net"
	"sync"

	"github.com/juju/errors"
)

// Mock is a scriptable radio for tests. BeginStation walks
// StationScript one status per call and then repeats the last entry;
// Listen binds a real loopback listener so HTTP tests run over actual
// sockets. Zero value starts idle with association succeeding on the
// first attempt.
type Mock struct {
	mu sync.Mutex

	StationScript []Status // per-BeginStation results, last repeats
	APStatus      Status   // BeginAP result, default StatusAPListening
	Absent        bool     // report StatusNoModule

	status  Status
	stepN   int
	ip      net.IP
	ssid    string
	listens []net.Listener
}

func (self *Mock) Status() Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Absent {
		return StatusNoModule
	}
	return self.status
}

func (self *Mock) BeginStation(ssid, passphrase string) Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Absent {
		return StatusNoModule
	}
	st := StatusConnected
	if n := len(self.StationScript); n > 0 {
		i := self.stepN
		if i >= n {
			i = n - 1
		}
		st = self.StationScript[i]
		self.stepN++
	}
	self.status = st
	self.ssid = ssid
	if st == StatusConnected && self.ip == nil {
		self.ip = net.IPv4(192, 168, 1, 50)
	}
	return st
}

func (self *Mock) BeginAP(ssid, passphrase string, channel int) Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Absent {
		return StatusNoModule
	}
	st := self.APStatus
	if st == Status(0) {
		st = StatusAPListening
	}
	self.status = st
	self.ssid = ssid
	self.ip = net.IPv4(192, 168, 4, 1)
	return st
}

func (self *Mock) End() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.status = StatusIdle
	self.stepN = 0
	for _, ln := range self.listens {
		_ = ln.Close()
	}
	self.listens = nil
}

// SetStatus flips connectivity mid-test, e.g. Wi-Fi drop during publish.
func (self *Mock) SetStatus(st Status) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.status = st
}

func (self *Mock) LocalIP() net.IP {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.ip
}

func (self *Mock) Listen(port uint16) (net.Listener, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Absent {
		return nil, errors.Errorf("radio module not found")
	}
	// port is the device-side contract; tests take whatever loopback
	// port the OS hands out and read it back from Addr()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Annotate(err, "mock radio listen")
	}
	self.listens = append(self.listens, ln)
	return ln, nil
}
