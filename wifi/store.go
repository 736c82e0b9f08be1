package wifi

import (
	"github.com/hope-iot/circuit5/hardware/nvram"
	"github.com/hope-iot/circuit5/log2"
	"github.com/juju/errors"
)

// Store owns the credential slot in non-volatile memory. The record is
// always read and written as the full fixed image; there is no length
// or checksum field, the magic byte alone gates validity.
type Store struct {
	dev nvram.Device
	log *log2.Log
}

func NewStore(dev nvram.Device, log *log2.Log) *Store {
	return &Store{dev: dev, log: log}
}

// Load returns juju NotFound when the slot holds no valid record;
// callers test with errors.IsNotFound.
func (self *Store) Load() (Record, error) {
	var img [RecordSize]byte
	if err := self.dev.Read(img[:]); err != nil {
		return Record{}, errors.Annotate(err, "credentials load")
	}
	r := unmarshalRecord(img[:])
	if !r.Valid() {
		return Record{}, errors.NotFoundf("wifi credentials")
	}
	self.log.Debugf("credentials load ssid=%s", r.SSIDString())
	return r, nil
}

// Save commits the full image synchronously. The caller must have set
// the magic sentinel (NewRecord does).
func (self *Store) Save(r Record) error {
	if r.Magic != Magic {
		return errors.NotValidf("credentials record without magic")
	}
	var img [RecordSize]byte
	r.marshal(img[:])
	if err := self.dev.Write(img[:]); err != nil {
		return errors.Annotate(err, "credentials save")
	}
	self.log.Infof("credentials saved ssid=%s passphrase_len=%d", r.SSIDString(), len(r.PassphraseString()))
	return nil
}

// Erase zeroes the slot; the next Load reports NotFound. Factory reset.
func (self *Store) Erase() error {
	img := make([]byte, RecordSize)
	if err := self.dev.Write(img); err != nil {
		return errors.Annotate(err, "credentials erase")
	}
	self.log.Infof("credentials erased")
	return nil
}
