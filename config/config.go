// Package config loads and hot-reloads the daemon's configuration: a
// koanf-based struct/file/yaml layering, reloadable via fsnotify since
// this daemon is meant to run unattended for long stretches.
package config

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

// CommandSpec names a single eBUS command to decode and the scalar
// encoding to apply to its reply data.
type CommandSpec struct {
	Name      string `koanf:"name"`
	Primary   byte   `koanf:"primary"`
	Secondary byte   `koanf:"secondary"`
	Encoding  string `koanf:"encoding"` // one of decode's named conversions
	Offset    int    `koanf:"offset"`
}

// Config is the daemon's full configuration.
type Config struct {
	// Device is the serial port path, e.g. /dev/ttyUSB0.
	Device string `koanf:"device" yaml:"device"`

	// SignalTimeoutMS overrides arbitration.SignalTimeout when positive.
	SignalTimeoutMS int `koanf:"signalTimeoutMs" yaml:"signalTimeoutMs"`

	// HTTPAddr is the address httpapi.Server listens on.
	HTTPAddr string `koanf:"httpAddr" yaml:"httpAddr"`

	// SnapshotPath is where the snapshot.Store is periodically written.
	SnapshotPath string `koanf:"snapshotPath" yaml:"snapshotPath"`

	// Commands lists the known commands to decode into the snapshot.
	Commands []CommandSpec `koanf:"commands" yaml:"commands"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Device:          "/dev/ttyUSB0",
		SignalTimeoutMS: 1000,
		HTTPAddr:        ":8080",
		SnapshotPath:    "ebusd-snapshot.json",
	}
}

// Load reads path (a YAML file) over top of Default(). A missing file
// is not an error: the defaults are used as-is.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return Config{}, err
		}
	}
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Watch invokes reload whenever path changes on disk, until stop is
// closed. Errors from the underlying watcher are sent to errs; a
// failed reload does not stop watching.
func Watch(path string, reload func(Config), errs chan<- error, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				c, err := Load(path)
				if err != nil {
					errs <- err
					continue
				}
				reload(c)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				errs <- err
			}
		}
	}()
	return nil
}

// Reloader holds the daemon's current Config, updated in place by
// Watch whenever the config file changes on disk, so long-lived
// readers (the command decoder table, the arbitration loop's signal
// timeout) see an edit without a daemon restart.
type Reloader struct {
	mu  sync.RWMutex
	cur Config
}

// NewReloader starts a Reloader holding initial.
func NewReloader(initial Config) *Reloader {
	return &Reloader{cur: initial}
}

// Get returns the current Config.
func (r *Reloader) Get() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

// Set replaces the current Config.
func (r *Reloader) Set(c Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cur = c
}

// Watch reloads path into r on every change, until stop is closed. See
// the Watch function for error and event semantics.
func (r *Reloader) Watch(path string, errs chan<- error, stop <-chan struct{}) error {
	return Watch(path, r.Set, errs, stop)
}
