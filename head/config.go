package head

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl"
	"github.com/hope-iot/circuit5/log2"
	"github.com/hope-iot/circuit5/portal"
	"github.com/hope-iot/circuit5/tele"
	"github.com/juju/errors"
)

type Config struct {
	Nvram struct {
		Dir string `hcl:"dir"`
	} `hcl:"nvram"`
	Wifi struct {
		JoinTimeoutSec int  `hcl:"join_timeout_sec"`
		LogDebug       bool `hcl:"log_debug"`
	} `hcl:"wifi"`
	PublishIntervalSec int           `hcl:"publish_interval_sec"`
	Portal             portal.Config `hcl:"portal"`
	Tele               tele.Config   `hcl:"tele"`
}

func ReadConfig(r io.Reader) (*Config, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := new(Config)
	if err = hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "config parse")
	}
	return c, nil
}

func ReadConfigFile(path string, log *log2.Log) (*Config, error) {
	if pathAbs, err := filepath.Abs(path); err != nil {
		log.Errorf("filepath.Abs(%s) error=%v", path, err)
	} else {
		path = pathAbs
	}
	log.Debugf("reading config file %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadConfig(f)
}

func MustReadConfigFile(path string, log *log2.Log) *Config {
	c, err := ReadConfigFile(path, log)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
