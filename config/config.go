// Package config handles the TOML description of an unwind run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/frameunwind/regs"
)

// Config describes an unwind run.
//
//	binary = "./server"
//	rules = ["jit.star"]
//	snapshot = "crash.cbor"
//	max-frames = 64
//
//	[registers]
//	rip = 0x401136
//	rsp = 0x7ffc0000e000
//	rbp = 0x7ffc0000e010
type Config struct {
	Binary   string   `toml:"binary"`   // Executable providing call frame information.
	Arch     string   `toml:"arch"`     // Architecture, when there is no binary.
	Width    int      `toml:"width"`    // Register table width; the architecture's when zero.
	Rules    []string `toml:"rules"`    // Rule scripts, consulted before the binary.
	Snapshot string   `toml:"snapshot"` // Memory snapshot to unwind.
	Pid      int      `toml:"pid"`      // Live process to unwind.

	MaxFrames    int      `toml:"max-frames"`
	StopOnZeroFP bool     `toml:"stop-on-zero-fp"`
	Required     []string `toml:"required"` // Registers every frame must recover.

	Verbose  int    `toml:"verbose"`
	Log      string `toml:"log"`      // Log file; stderr when empty.
	Language string `toml:"language"` // Message language; the host locale when empty.

	Registers map[string]uint64 `toml:"registers"` // Initial register values.

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
}

// Default returns the configuration used without a run file.
func Default() *Config {
	return &Config{
		Registers: map[string]uint64{},
		Dir:       ".",
	}
}

// Parse decodes a run description. Relative paths are resolved against dir.
func Parse(data string, dir string) (conf *Config, err error) {
	conf = Default()
	conf.Dir = dir

	md, err := toml.Decode(data, conf)
	if err != nil {
		return nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyUnknown, strings.Join(keys, ", "))
	}

	if conf.Registers == nil {
		conf.Registers = map[string]uint64{}
	}

	err = conf.Validate()
	if err != nil {
		return nil, err
	}

	return
}

// Load reads a run file.
func Load(path string) (conf *Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	conf, err = Parse(string(data), filepath.Dir(path))
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return
}

// Validate checks value ranges and conflicting settings.
func (conf *Config) Validate() (err error) {
	switch {
	case conf.Pid != 0 && conf.Snapshot != "":
		err = ErrSourceConflict
	case conf.Pid < 0:
		err = fmt.Errorf("%w: pid %d", ErrValue, conf.Pid)
	case conf.Width < 0:
		err = fmt.Errorf("%w: width %d", ErrValue, conf.Width)
	case conf.MaxFrames < 0:
		err = fmt.Errorf("%w: max-frames %d", ErrValue, conf.MaxFrames)
	case conf.Arch != "":
		_, err = regs.ByName(conf.Arch)
	}

	return
}

// Path resolves a configured path against the run file's directory.
func (conf *Config) Path(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(conf.Dir, path)
}
