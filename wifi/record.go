// Package wifi holds the credential record and store, and the station
// mode network link.
package wifi

import "bytes"

// EEPROM image layout, 97 bytes at offset 0:
// magic 0x42, then null-padded SSID and passphrase buffers.
// Anything else in the region means "no credentials".
const (
	Magic byte = 0x42

	SSIDSize       = 32 // 31 usable bytes + terminator
	PassphraseSize = 64 // 63 usable bytes + terminator
	RecordSize     = 1 + SSIDSize + PassphraseSize
)

type Record struct {
	Magic      byte
	SSID       [SSIDSize]byte
	Passphrase [PassphraseSize]byte
}

// NewRecord builds a valid record, truncating inputs to buffer capacity
// minus the terminator.
func NewRecord(ssid, passphrase string) Record {
	r := Record{Magic: Magic}
	setCStr(r.SSID[:], ssid)
	setCStr(r.Passphrase[:], passphrase)
	return r
}

// Valid: magic sentinel present and SSID non-empty.
func (r *Record) Valid() bool {
	return r.Magic == Magic && r.SSID[0] != 0
}

func (r *Record) SSIDString() string       { return cstr(r.SSID[:]) }
func (r *Record) PassphraseString() string { return cstr(r.Passphrase[:]) }

func (r *Record) marshal(buf []byte) {
	buf[0] = r.Magic
	copy(buf[1:1+SSIDSize], r.SSID[:])
	copy(buf[1+SSIDSize:RecordSize], r.Passphrase[:])
}

func unmarshalRecord(img []byte) Record {
	r := Record{Magic: img[0]}
	copy(r.SSID[:], img[1:1+SSIDSize])
	copy(r.Passphrase[:], img[1+SSIDSize:RecordSize])
	return r
}

func setCStr(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
