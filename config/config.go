// Package config loads machine and snapshot settings from TOML.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/io"
	"github.com/ezrec/uvm/translate"
)

var f = translate.From

// Machine configures the emulated machine.
type Machine struct {
	MemorySize int `toml:"memory-size"`       // Data memory cells.
	Limit      int `toml:"instruction-limit"` // 0 for no limit.
}

// Snapshot configures the memory snapshot.
type Snapshot struct {
	Start  int    `toml:"start"`
	End    int    `toml:"end"`
	Format string `toml:"format"` // "json" or "cbor"; empty picks by file extension.
}

// Config is a complete run configuration.
type Config struct {
	Machine  Machine        `toml:"machine"`
	Snapshot Snapshot       `toml:"snapshot"`
	Memory   map[string]int `toml:"memory"` // Initial data memory, decimal address to value.
}

// ErrConfig is an invalid configuration setting.
type ErrConfig struct {
	Key   string
	Value any
}

func (err *ErrConfig) Error() string {
	return f("config: %v = %v is invalid", err.Key, err.Value)
}

// ErrLoad locates a configuration file that could not be used.
type ErrLoad struct {
	Path string
	Err  error
}

func (err *ErrLoad) Error() string {
	return f("config: %v: %v", err.Path, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Machine: Machine{
			MemorySize: cpu.MEMORY_SIZE,
		},
		Snapshot: Snapshot{
			Start: 0,
			End:   1000,
		},
		Memory: map[string]int{},
	}
}

// Load reads a TOML configuration file over the defaults.
// An empty path returns the defaults.
func Load(path string) (conf *Config, err error) {
	conf = Default()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		conf = nil
		err = &ErrLoad{Path: path, Err: err}
		return
	}

	err = conf.Decode(string(data))
	if err != nil {
		conf = nil
		err = &ErrLoad{Path: path, Err: err}
		return
	}

	return
}

// Decode parses TOML text over the current settings, and validates the
// result. Unknown keys are an error.
func (conf *Config) Decode(text string) (err error) {
	md, err := toml.Decode(text, conf)
	if err != nil {
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		err = &ErrConfig{Key: undecoded[0].String(), Value: f("unknown key")}
		return
	}

	err = conf.Validate()

	return
}

// Validate checks every setting.
func (conf *Config) Validate() (err error) {
	if conf.Machine.MemorySize <= 0 || conf.Machine.MemorySize > cpu.MEMORY_SIZE_MAX {
		err = &ErrConfig{Key: "machine.memory-size", Value: conf.Machine.MemorySize}
		return
	}

	if conf.Machine.Limit < 0 {
		err = &ErrConfig{Key: "machine.instruction-limit", Value: conf.Machine.Limit}
		return
	}

	if conf.Snapshot.Start < 0 {
		err = &ErrConfig{Key: "snapshot.start", Value: conf.Snapshot.Start}
		return
	}

	if conf.Snapshot.End < conf.Snapshot.Start {
		err = &ErrConfig{Key: "snapshot.end", Value: conf.Snapshot.End}
		return
	}

	if conf.Snapshot.Format != "" {
		_, err = io.ParseFormat(conf.Snapshot.Format)
		if err != nil {
			err = &ErrConfig{Key: "snapshot.format", Value: conf.Snapshot.Format}
			return
		}
	}

	_, err = conf.Image()

	return
}

// Image converts the memory table to an initial data memory image.
func (conf *Config) Image() (image cpu.Image, err error) {
	image = cpu.Image{}

	for key, value := range conf.Memory {
		var address int
		address, err = strconv.Atoi(key)
		if err != nil || address < 0 || address >= conf.Machine.MemorySize {
			image = nil
			err = &ErrConfig{Key: "memory." + key, Value: value}
			return
		}
		if value < 0 || value > 0xff {
			image = nil
			err = &ErrConfig{Key: "memory." + key, Value: value}
			return
		}
		image[address] = uint8(value)
	}

	return
}

// SnapshotFormat returns the configured snapshot format, or the one
// implied by path.
func (conf *Config) SnapshotFormat(path string) (format io.Format, err error) {
	if conf.Snapshot.Format == "" {
		format = io.FormatOf(path)
		return
	}

	format, err = io.ParseFormat(conf.Snapshot.Format)

	return
}
