// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"debug/elf"
	"errors"
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"runtime"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/ezrec/frameunwind/config"
	"github.com/ezrec/frameunwind/memory"
	"github.com/ezrec/frameunwind/provider"
	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/translate"
	"github.com/ezrec/frameunwind/unwind"

	_ "github.com/tliron/commonlog/simple"
)

var f = translate.From

var (
	ErrNoRules      = errors.New(f("no rule source, give a binary or a rule script"))
	ErrNoMemory     = errors.New(f("no memory source, give a snapshot or a pid"))
	ErrArchMismatch = errors.New(f("architecture mismatch"))
)

// countFlag is a boolean flag that counts its repetitions.
type countFlag int

func (cf *countFlag) String() string {
	return strconv.Itoa(int(*cf))
}

func (cf *countFlag) Set(value string) error {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if on {
		*cf++
	}
	return nil
}

func (cf *countFlag) IsBoolFlag() bool {
	return true
}

// listFlag collects repeated string flags.
type listFlag []string

func (lf *listFlag) String() string {
	return fmt.Sprint(*lf)
}

func (lf *listFlag) Set(value string) error {
	*lf = append(*lf, value)
	return nil
}

func main() {
	var run string
	var binary string
	var snapshot string
	var pid int
	var rules listFlag
	var maxFrames int
	var dump bool
	var save string
	var verbose countFlag

	flag.StringVar(&run, "c", "", "run description (.toml)")
	flag.StringVar(&binary, "b", "", "executable providing call frame information")
	flag.StringVar(&snapshot, "s", "", "memory snapshot (.cbor) to unwind")
	flag.IntVar(&pid, "p", 0, "live process to unwind")
	flag.Var(&rules, "r", "rule script (.star), may be repeated")
	flag.IntVar(&maxFrames, "n", 0, "maximum number of frames")
	flag.BoolVar(&dump, "dump", false, "dump the rule table of every frame")
	flag.StringVar(&save, "save", "", "save the memory read to a snapshot (.cbor)")
	flag.Var(&verbose, "v", "verbose mode, may be repeated")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	conf := config.Default()
	if len(run) != 0 {
		var err error
		conf, err = config.Load(run)
		if err != nil {
			log.Fatal(err)
		}
	}

	// Flags override the run description.
	if len(binary) != 0 {
		conf.Binary = binary
	}
	if len(snapshot) != 0 {
		conf.Snapshot = snapshot
	}
	if pid != 0 {
		conf.Pid = pid
	}
	conf.Rules = append(conf.Rules, rules...)
	if maxFrames != 0 {
		conf.MaxFrames = maxFrames
	}
	conf.Verbose += int(verbose)

	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}

	var logPath *string
	if len(conf.Log) != 0 {
		logPath = &conf.Log
	}
	commonlog.Configure(conf.Verbose, logPath)

	if len(conf.Language) != 0 {
		if err := translate.SetLanguage(conf.Language); err != nil {
			log.Fatalf("%v: %v", conf.Language, err)
		}
	}

	if err := unwindRun(conf, dump, save); err != nil {
		log.Fatal(err)
	}
}

// unwindRun walks the stack described by conf and prints the trace.
func unwindRun(conf *config.Config, dump bool, save string) (err error) {
	logger := commonlog.GetLogger("frameunwind.cmd")

	var snap *memory.Snapshot
	if len(conf.Snapshot) != 0 {
		snap, err = memory.LoadSnapshot(conf.Path(conf.Snapshot))
		if err != nil {
			return
		}
	}

	var chain provider.Chain
	var arch *regs.Arch
	switch {
	case len(conf.Arch) != 0:
		arch, err = regs.ByName(conf.Arch)
	case snap != nil:
		arch, err = regs.ByName(snap.Arch)
	case len(conf.Binary) != 0:
		arch, err = binaryArch(conf.Path(conf.Binary))
	default:
		arch, err = regs.ByName(runtime.GOARCH)
	}
	if err != nil {
		return
	}
	logger.Infof("architecture %v", arch.Name)

	width := conf.Width
	if width == 0 {
		width = arch.Width()
	}

	for _, path := range conf.Rules {
		var st *provider.Static
		st, err = provider.LoadScript(conf.Path(path), arch)
		if err != nil {
			return
		}
		logger.Infof("%v: %d tables", path, len(st.Tables()))
		chain = append(chain, st)
	}

	if len(conf.Binary) != 0 {
		var ef *provider.ELF
		ef, err = provider.OpenELF(conf.Path(conf.Binary), width)
		if err != nil {
			return
		}
		if ef.Arch != arch {
			return fmt.Errorf("%v: %w: %v, not %v", conf.Binary, ErrArchMismatch, ef.Arch.Name, arch.Name)
		}
		chain = append(chain, ef)
	}

	if len(chain) == 0 {
		return ErrNoRules
	}
	cache := provider.NewCache(chain)

	named := map[string]uint64{}
	var mem memory.Reader
	switch {
	case snap != nil:
		maps.Copy(named, snap.Registers)
		mem = snap
	case conf.Pid != 0:
		mem = memory.NewProcess(conf.Pid, arch)
	default:
		return ErrNoMemory
	}
	maps.Copy(named, conf.Registers)

	ctx, err := unwind.ParseContext(arch, named)
	if err != nil {
		return
	}

	var recorder *memory.Recorder
	if len(save) != 0 {
		recorder = memory.NewRecorder(mem, memory.NewSnapshot(arch))
		recorder.Snapshot.Registers = ctx.Named()
		mem = recorder
	}

	uw := unwind.NewUnwinder(arch, cache, mem)
	uw.MaxFrames = conf.MaxFrames
	uw.StopOnZeroFP = conf.StopOnZeroFP
	for _, name := range conf.Required {
		var reg regs.Register
		reg, err = arch.Lookup(name)
		if err != nil {
			return
		}
		uw.Required = append(uw.Required, reg)
	}

	trace, werr := uw.Walk(ctx)

	for n, frame := range trace.Frames {
		fmt.Printf("#%-3d %v\n", n, frame)
		if dump {
			table, lerr := cache.Lookup(frame.PC())
			if lerr != nil {
				fmt.Printf("     %v\n", lerr)
				continue
			}
			err = table.Dump(os.Stdout, arch)
			if err != nil {
				return
			}
		}
	}
	fmt.Printf("stop: %v\n", trace.Stop)
	logger.Infof("table cache: %d hits, %d misses", cache.Hits, cache.Misses)

	if recorder != nil {
		err = recorder.Snapshot.Save(save)
		if err != nil {
			return
		}
	}

	return werr
}

// binaryArch reads the architecture of an ELF file.
func binaryArch(path string) (arch *regs.Arch, err error) {
	file, err := elf.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	return regs.ForMachine(file.Machine)
}
