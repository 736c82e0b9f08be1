package radio

import (
	"fmt"
	"net"
	"sync"

	"github.com/juju/errors"
)

// Host runs the firmware core on a development host: the OS already
// owns real networking, so station association reports connected
// immediately and AP mode only binds the portal listener. Useful for
// exercising the full boot path without a board.
type Host struct {
	mu     sync.Mutex
	status Status
}

func NewHost() *Host { return &Host{} }

func (self *Host) Status() Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.status
}

func (self *Host) BeginStation(ssid, passphrase string) Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.status = StatusConnected
	return self.status
}

func (self *Host) BeginAP(ssid, passphrase string, channel int) Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.status = StatusAPListening
	return self.status
}

func (self *Host) End() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.status = StatusIdle
}

func (self *Host) LocalIP() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP
		}
	}
	return net.IPv4(127, 0, 0, 1)
}

func (self *Host) Listen(port uint16) (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Annotatef(err, "host radio listen port=%d", port)
	}
	return ln, nil
}
