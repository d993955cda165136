// Command ebusd runs the eBUS protocol engine daemon: it opens a
// serial port, decodes telegrams off the bus, serves the latest
// decoded values over HTTP, and persists them to a JSON snapshot.
//
// Subcommands are run/mkconf/conf; the startup spinner while waiting
// for the serial device is github.com/theckman/yacspin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theckman/yacspin"
	"gopkg.in/yaml.v2"

	"github.com/go-ebus/ebusd/arbitration"
	"github.com/go-ebus/ebusd/config"
	"github.com/go-ebus/ebusd/decode"
	"github.com/go-ebus/ebusd/framer"
	"github.com/go-ebus/ebusd/httpapi"
	"github.com/go-ebus/ebusd/logx"
	"github.com/go-ebus/ebusd/serialport"
	"github.com/go-ebus/ebusd/snapshot"
	"github.com/go-ebus/ebusd/symbol"
	"github.com/go-ebus/ebusd/telegram"
)

const defaultConfigPath = "ebusd.yml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if err := run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "mkconf":
		if err := mkconf(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "conf":
		if err := printConf(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`ebusd runs the eBUS protocol engine daemon.

Usage:
	ebusd <command>

Commands:
	run     start the daemon
	mkconf  write a config file populated with the defaults
	conf    print the effective config`)
}

func mkconf() error {
	f, err := os.Create(defaultConfigPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return yaml.NewEncoder(f).Encode(config.Default())
}

func printConf() error {
	c, err := config.Load(defaultConfigPath)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(os.Stdout).Encode(c)
}

func run() error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to the config file")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logx.New(os.Stderr)
	queue := &arbitration.SendQueue{}
	store := snapshot.NewStore()
	api := httpapi.New(store)

	reloader := config.NewReloader(cfg)
	configErrs := make(chan error, 1)
	stopWatch := make(chan struct{})
	if err := reloader.Watch(*configPath, configErrs, stopWatch); err != nil {
		return fmt.Errorf("watching %s: %w", *configPath, err)
	}
	go func() {
		for err := range configErrs {
			log.Errorf("reloading %s: %v", *configPath, err)
		}
	}()
	defer close(stopWatch)

	listener := &storeListener{
		store:      store,
		signalSink: api,
		commands:   func() []config.CommandSpec { return reloader.Get().Commands },
		log:        log,
	}

	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := api.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Errorf("http server stopped: %v", err)
		}
	}()

	stopSnapshots := make(chan struct{})
	go periodicSnapshot(store, cfg.SnapshotPath, 2*time.Second, stopSnapshots, log)
	defer close(stopSnapshots)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	// An IoError is only fatal to the current port: close it and open it
	// again, forever, rather than give up on the whole daemon over one
	// transient serial failure.
	for {
		err := runOnBus(cfg.Device, queue, listener, log, sig, reloader)
		if err == nil {
			return nil
		}
		var ioErr *framer.IoError
		if !errors.As(err, &ioErr) {
			return fmt.Errorf("arbitration loop exited: %w", err)
		}
		log.Errorf("lost the bus, reopening %s: %v", cfg.Device, err)
	}
}

// runOnBus opens the serial port and runs the arbitration loop against
// it until the loop exits or a shutdown signal arrives. The port is
// always closed before returning. A nil return means shutdown was
// requested; otherwise the error is the arbitration loop's (always a
// *framer.IoError, since Loop absorbs every other condition itself).
// The signal timeout is read from reloader on every (re)open, so an
// edit to the config file takes effect the next time the port reopens.
func runOnBus(device string, queue *arbitration.SendQueue, listener arbitration.Listener, log *logx.Logger, sig <-chan os.Signal, reloader *config.Reloader) error {
	port, err := openWithSpinner(device)
	if err != nil {
		return fmt.Errorf("opening %s: %w", device, err)
	}
	defer port.Close()

	signalTimeout := time.Duration(reloader.Get().SignalTimeoutMS) * time.Millisecond

	fr := framer.New(port)
	loopErr := make(chan error, 1)
	go func() { loopErr <- arbitration.Loop(fr, queue, listener, log, signalTimeout) }()

	select {
	case err := <-loopErr:
		return err
	case s := <-sig:
		log.Printf("received %v, shutting down", s)
		return nil
	}
}

// openWithSpinner shows progress while serialport.Open retries
// against a device node that may not exist yet at boot.
func openWithSpinner(device string) (*serialport.Port, error) {
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " waiting for " + device,
		SuffixAutoColon: true,
		Message:         "opening serial port",
		StopMessage:     "connected",
		StopFailMessage: "failed",
	}
	spinner, err := yacspin.New(cfg)
	if err == nil {
		spinner.Start()
	}

	port, openErr := serialport.Open(device)

	if spinner != nil {
		if openErr != nil {
			spinner.StopFail()
		} else {
			spinner.Stop()
		}
	}
	return port, openErr
}

func periodicSnapshot(store *snapshot.Store, path string, interval time.Duration, stop <-chan struct{}, log *logx.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := store.WriteFile(path); err != nil {
				log.Errorf("writing snapshot: %v", err)
			}
		}
	}
}

// storeListener adapts arbitration.Listener to the snapshot store and
// the HTTP API's signal indicator, decoding each telegram's data
// using whichever CommandSpec matches its (primary, secondary).
// commands is a provider rather than a static slice so a config
// reload's edits to the decoder table take effect immediately.
type storeListener struct {
	store      *snapshot.Store
	signalSink interface{ SetSignal(bool) }
	commands   func() []config.CommandSpec
	log        *logx.Logger
}

func (l *storeListener) OnSignal(hasSignal bool) {
	l.signalSink.SetSignal(hasSignal)
}

func (l *storeListener) OnTelegram(t *telegram.Telegram) {
	if !t.CRCOK {
		l.log.Warnf("dropping telegram with bad CRC from 0x%02x", t.Source)
		return
	}
	spec, ok := l.matchCommand(t.Primary, t.Secondary)
	if !ok {
		return
	}

	data := t.Data
	if t.Reply != nil {
		data = t.Reply.Data
	}
	value, err := decodeValue(spec, data)
	if err != nil {
		l.log.Warnf("decoding %s: %v", spec.Name, err)
		return
	}
	l.store.Put(t.Primary, t.Secondary, t.Source, value, time.Now())
}

func (l *storeListener) matchCommand(primary, secondary byte) (config.CommandSpec, bool) {
	for _, c := range l.commands() {
		if c.Primary == primary && c.Secondary == secondary {
			return c, true
		}
	}
	return config.CommandSpec{}, false
}

func decodeValue(spec config.CommandSpec, data []symbol.Symbol) (interface{}, error) {
	var (
		v  interface{}
		ok bool
	)
	switch spec.Encoding {
	case "u8":
		v, ok = decode.U8(data, spec.Offset)
	case "i8":
		v, ok = decode.I8(data, spec.Offset)
	case "u16":
		v, ok = decode.U16(data, spec.Offset)
	case "i16":
		v, ok = decode.I16(data, spec.Offset)
	case "bcd":
		v, ok = decode.BCD(data, spec.Offset)
	case "data1c":
		v, ok = decode.DATA1c(data, spec.Offset)
	case "data2b":
		v, ok = decode.DATA2b(data, spec.Offset)
	case "data2c":
		v, ok = decode.DATA2c(data, spec.Offset)
	default:
		return nil, fmt.Errorf("unknown encoding %q", spec.Encoding)
	}
	if !ok {
		return nil, errors.New("not enough data for the configured offset")
	}
	return v, nil
}
