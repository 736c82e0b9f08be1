// Package nvram abstracts the board's non-volatile memory region.
// The core reads and writes one small fixed-size image at offset 0;
// everything else about the medium (EEPROM emulation on the device,
// a file on a host build) stays behind Device.
package nvram

import (
	"sync"

	"github.com/juju/errors"
)

type Device interface {
	// Read fills buf from offset 0. Short regions read as zero bytes:
	// erased/uninitialised memory must look like zeroes to the caller.
	Read(buf []byte) error

	// Write replaces the region from offset 0 with buf.
	// Commit is synchronous: a Read in the same power cycle observes it.
	Write(buf []byte) error
}

// Mem is the in-memory device for tests and the host simulator.
type Mem struct {
	mu   sync.Mutex
	data []byte
}

func NewMem(size int) *Mem {
	if size <= 0 {
		panic(errors.Errorf("code error nvram.NewMem size=%d", size))
	}
	return &Mem{data: make([]byte, size)}
}

func (self *Mem) Read(buf []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	n := copy(buf, self.data)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

func (self *Mem) Write(buf []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(buf) > len(self.data) {
		return errors.Errorf("nvram write len=%d exceeds region size=%d", len(buf), len(self.data))
	}
	copy(self.data, buf)
	return nil
}
