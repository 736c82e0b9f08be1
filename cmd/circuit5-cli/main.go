// circuit5-cli is the diagnostic console: inspect and edit the stored
// credentials, exercise join and publish against real networks.
package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/hope-iot/circuit5/hardware/nvram"
	"github.com/hope-iot/circuit5/hardware/radio"
	"github.com/hope-iot/circuit5/head"
	"github.com/hope-iot/circuit5/helpers/cli"
	"github.com/hope-iot/circuit5/log2"
	"github.com/hope-iot/circuit5/tele"
	"github.com/hope-iot/circuit5/wifi"
	"github.com/juju/errors"
)

const usage = `commands:
- show                     stored wifi credentials
- save SSID PASSPHRASE     write wifi credentials
- erase                    factory reset, zero the credential region
- join [TIMEOUT_SEC]       station join with stored credentials
- publish TEMP HUM STATUS  one telemetry sample to the broker
- log=yes|log=no           toggle debug logging
- help                     this text
`

var log = log2.NewStderr(log2.LInfo)

type console struct {
	config *head.Config
	store  *wifi.Store
	link   *wifi.Link
	pub    *tele.Publisher
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "circuit5.hcl", "")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	config := head.MustReadConfigFile(*flagConfig, log)
	driver := radio.NewHost()
	store := wifi.NewStore(nvram.NewFile(config.Nvram.Dir, wifi.RecordSize), log)
	c := &console{
		config: config,
		store:  store,
		link:   wifi.NewLink(driver, log),
	}

	log.Infof(usage)
	cli.MainLoop("circuit5-cli", c.execute, completer)
}

func completer(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "show", Description: "stored wifi credentials"},
		{Text: "save", Description: "save SSID PASSPHRASE"},
		{Text: "erase", Description: "factory reset"},
		{Text: "join", Description: "station join with stored credentials"},
		{Text: "publish", Description: "publish TEMP HUM STATUS"},
		{Text: "log=yes", Description: "enable debug logging"},
		{Text: "log=no", Description: "disable debug logging"},
		{Text: "help", Description: "command list"},
	}
	return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
}

func (self *console) execute(line string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}
	if err := self.run(words); err != nil {
		log.Errorf(errors.ErrorStack(err))
	}
}

func (self *console) run(words []string) error {
	switch words[0] {
	case "show":
		rec, err := self.store.Load()
		if errors.IsNotFound(err) {
			log.Infof("no stored credentials")
			return nil
		}
		if err != nil {
			return err
		}
		log.Infof("ssid=%s passphrase_len=%d", rec.SSIDString(), len(rec.PassphraseString()))
		return nil

	case "save":
		if len(words) != 3 {
			return errors.Errorf("syntax: save SSID PASSPHRASE")
		}
		return self.store.Save(wifi.NewRecord(words[1], words[2]))

	case "erase":
		return self.store.Erase()

	case "join":
		timeout := 30 * time.Second
		if len(words) > 1 {
			sec, err := strconv.Atoi(words[1])
			if err != nil {
				return errors.Annotatef(err, "syntax: join [TIMEOUT_SEC]")
			}
			timeout = time.Duration(sec) * time.Second
		}
		rec, err := self.store.Load()
		if err != nil {
			return err
		}
		return self.link.Join(rec, timeout)

	case "publish":
		if len(words) != 4 {
			return errors.Errorf("syntax: publish TEMP HUM STATUS")
		}
		temperature, err := strconv.ParseFloat(words[1], 64)
		if err != nil {
			return errors.Annotate(err, "TEMP")
		}
		humidity, err := strconv.ParseFloat(words[2], 64)
		if err != nil {
			return errors.Annotate(err, "HUM")
		}
		if self.pub == nil {
			if self.pub, err = tele.NewPublisher(self.config.Tele, self.link, log); err != nil {
				self.pub = nil
				return err
			}
		}
		return self.pub.Publish(&tele.Sample{
			Temperature: temperature,
			Humidity:    humidity,
			Status:      words[3],
		})

	case "log=yes":
		log.SetLevel(log2.LDebug)
		return nil
	case "log=no":
		log.SetLevel(log2.LInfo)
		return nil

	case "help":
		log.Infof(usage)
		return nil
	}
	return errors.Errorf("unknown command %q, try help", words[0])
}
