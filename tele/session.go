package tele

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/256dpi/gomqtt/packet"
	"github.com/256dpi/gomqtt/transport"
	"github.com/hope-iot/circuit5/log2"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
)

var (
	ErrNotConnected = fmt.Errorf("mqtt session not connected")
	errMissingPong  = fmt.Errorf("mqtt keep-alive missed")
)

// session is one broker connection: synchronous CONNECT/CONNACK
// handshake at creation, then a reader goroutine for ingress while all
// sends stay on the caller's superloop. State is set once at creation;
// die is the single teardown path.
type session struct {
	alive  *alive.Alive
	conn   transport.Conn
	log    *log2.Log
	closed uint32
	onDead func(*session, error)

	keepalive      time.Duration
	networkTimeout time.Duration
	pingat         *atomic_clock.Clock // last PINGREQ sent
	pongat         *atomic_clock.Clock // last PINGRESP received
}

// dial, send CONNECT, wait CONNACK. A refused CONNACK returns the
// protocol code in the error.
func newSession(dialer *transport.Dialer, brokerURL string, conpkt *packet.Connect,
	keepalive, networkTimeout time.Duration, log *log2.Log, onDead func(*session, error)) (*session, error) {

	conn, err := dialer.Dial(brokerURL)
	if err != nil {
		return nil, errors.Annotatef(err, "dial broker=%s", brokerURL)
	}

	s := &session{
		alive:          alive.NewAlive(),
		conn:           conn,
		log:            log,
		onDead:         onDead,
		keepalive:      keepalive,
		networkTimeout: networkTimeout,
		pingat:         atomic_clock.New(),
		pongat:         atomic_clock.New(),
	}

	if err = s.send(conpkt); err != nil {
		return nil, errors.Annotate(err, "send CONNECT")
	}

	conn.SetReadTimeout(networkTimeout)
	pkt, err := conn.Receive()
	if err != nil {
		return nil, s.die(errors.Annotate(err, "expect CONNACK"))
	}
	connack, ok := pkt.(*packet.Connack)
	if !ok {
		return nil, s.die(errors.Errorf("server error expected CONNACK pkt=%s", pkt.String()))
	}
	if connack.ReturnCode != packet.ConnectionAccepted {
		return nil, s.die(errors.Errorf("connection refused code=%s", connack.ReturnCode.String()))
	}
	s.log.Debugf("CONNACK=%s", connack.String())

	// missing broker traffic beyond keepalive*1.5 must kill the reader
	if keepalive > 0 {
		conn.SetReadTimeout(keepalive + keepalive/2)
	} else {
		conn.SetReadTimeout(0)
	}
	s.pingat.SetNow()
	s.pongat.SetNow()

	s.alive.Add(1)
	go s.reader()
	return s, nil
}

func (self *session) isAlive() bool {
	return atomic.LoadUint32(&self.closed) == 0
}

func (self *session) die(e error) error {
	if !atomic.CompareAndSwapUint32(&self.closed, 0, 1) {
		return e
	}
	self.alive.Stop()
	_ = self.conn.Close()
	if self.onDead != nil {
		self.onDead(self, e)
	}
	return e
}

// disconnect is the clean path: DISCONNECT then teardown.
func (self *session) disconnect() {
	if self.isAlive() {
		_ = self.conn.Send(packet.NewDisconnect(), false)
	}
	_ = self.die(nil)
	self.alive.Wait()
}

func (self *session) send(p packet.Generic) error {
	if !self.isAlive() {
		return ErrNotConnected
	}
	if err := self.conn.Send(p, false); err != nil {
		err = errors.Annotatef(err, "send %s", p.Type().String())
		return self.die(err)
	}
	self.log.Debugf("sent %s", p.String())
	return nil
}

// maintain is the per-tick keep-alive step: PINGREQ on schedule, die
// when the broker stopped answering pings. Non-blocking.
func (self *session) maintain() {
	if self.keepalive == 0 || !self.isAlive() {
		return
	}
	interval := self.keepalive - self.networkTimeout
	if interval <= 0 {
		interval = self.keepalive / 2
	}
	now := atomic_clock.Now()
	if now.Sub(self.pingat) >= interval {
		self.pingat.SetNow()
		if self.send(packet.NewPingreq()) != nil {
			return
		}
	}
	if now.Sub(self.pongat) > self.keepalive+self.keepalive/2 {
		_ = self.die(errMissingPong)
	}
}

func (self *session) reader() {
	defer self.alive.Done()
	for {
		pkt, err := self.conn.Receive()
		if !self.isAlive() {
			return
		}
		switch err {
		case nil: // success path

		case io.EOF:
			self.log.Errorf("server closed connection")
			_ = self.die(io.EOF)
			return

		default:
			_ = self.die(errors.Annotate(err, "receive"))
			return
		}

		switch pkt.(type) {
		case *packet.Pingresp:
			self.pongat.SetNow()

		default:
			// QoS 0 publish-only session: nothing else is expected
			self.log.Debugf("unexpected packet %s", pkt.String())
		}
	}
}
