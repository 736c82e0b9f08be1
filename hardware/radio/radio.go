// Package radio is the Wi-Fi radio driver contract consumed by the
// provisioning portal and the network link. The real driver lives with
// the board support code; this package carries the interface, the status
// codes and two stand-in implementations (host build, tests).
//
// The radio has exactly two mutually exclusive modes. The portal owns it
// in AP mode, the link owns it in station mode, and the handoff is
// one-way at reboot.
package radio

import (
	"net"
)

type Status uint8

const (
	StatusIdle Status = iota
	StatusNoModule
	StatusConnected
	StatusConnectFailed
	StatusDisconnected
	StatusAPListening
	StatusAPFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusNoModule:
		return "no-module"
	case StatusConnected:
		return "connected"
	case StatusConnectFailed:
		return "connect-failed"
	case StatusDisconnected:
		return "disconnected"
	case StatusAPListening:
		return "ap-listening"
	case StatusAPFailed:
		return "ap-failed"
	}
	return "unknown"
}

type Driver interface {
	Status() Status

	// BeginStation initiates association with ssid and returns the
	// status after this attempt. Callers poll: association may need
	// several attempts before StatusConnected.
	BeginStation(ssid, passphrase string) Status

	// BeginAP brings up a soft access point. StatusAPListening means
	// clients may join and Listen is usable.
	BeginAP(ssid, passphrase string, channel int) Status

	// End leaves the current mode.
	End()

	// LocalIP is the address assigned in the current mode.
	LocalIP() net.IP

	// Listen binds a TCP listener on the radio's own address.
	Listen(port uint16) (net.Listener, error)
}
