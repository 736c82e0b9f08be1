// circuit5 is the host build of the room-node firmware: real TCP/TLS
// sockets, file-backed non-volatile storage, simulated sensor.
package main

import (
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/hope-iot/circuit5/hardware/nvram"
	"github.com/hope-iot/circuit5/hardware/radio"
	"github.com/hope-iot/circuit5/head"
	"github.com/hope-iot/circuit5/log2"
	"github.com/hope-iot/circuit5/tele"
	"github.com/hope-iot/circuit5/wifi"
	"github.com/juju/errors"
)

var log = log2.NewStderr(log2.LInfo)

func main() {
	flagConfig := flag.String("config", "circuit5.hcl", "")
	flag.Parse()

	if sdnotify("start") {
		// under systemd, journal adds the timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}
	log.Infof("hello")

	config := head.MustReadConfigFile(*flagConfig, log)
	h := head.New(config, radio.NewHost(), nvram.NewFile(config.Nvram.Dir, wifi.RecordSize), newSimSensor(), log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("signal %v, stopping", sig)
		h.Stop()
	}()

	sdnotify(daemon.SdNotifyReady)
	if err := h.Run(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

// newSimSensor stands in for the DHT driver: slow random walk around
// room conditions.
func newSimSensor() head.SampleFunc {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	temperature := 22.0
	humidity := 48.0
	return func() tele.Sample {
		temperature += (rnd.Float64() - 0.5) * 0.2
		humidity += (rnd.Float64() - 0.5) * 0.5
		status := "ok"
		if humidity > 70 {
			status = "warn"
		}
		return tele.Sample{Temperature: temperature, Humidity: humidity, Status: status}
	}
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
