package nvram

import (
	"github.com/juju/errors"
	"github.com/temoto/extremofile"
)

// File persists the region in a directory via extremofile: atomic
// write + backup copy, so a power cut mid-write leaves the previous
// image intact. Missing or corrupt storage reads as all-zero, which the
// credential layer treats as "no record".
type File struct {
	e interface {
		Read() ([]byte, error)
		Write([]byte) (int, error)
	}
	size int
}

func NewFile(dir string, size int) *File {
	if size <= 0 {
		panic(errors.Errorf("code error nvram.NewFile size=%d", size))
	}
	return &File{
		e:    extremofile.New(extremofile.Config{Dir: dir}),
		size: size,
	}
}

func (self *File) Read(buf []byte) error {
	data, err := self.e.Read()
	if extremofile.IsCritical(err) {
		return errors.Annotate(err, "nvram read")
	}
	// first boot or corrupt image: present erased memory
	n := copy(buf, data)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

func (self *File) Write(buf []byte) error {
	if len(buf) > self.size {
		return errors.Errorf("nvram write len=%d exceeds region size=%d", len(buf), self.size)
	}
	img := make([]byte, self.size)
	copy(img, buf)
	if _, err := self.e.Write(img); err != nil {
		return errors.Annotate(err, "nvram write")
	}
	return nil
}
