// Command npython runs a Python source file on pyvm's register-based
// virtual machine. Argument parsing is out of scope per spec.md section
// 1 ("CLI argument parsing" is an external collaborator); this is the
// minimal driver needed to compile and execute a script from a shell,
// matching the teacher's own cmd/npython entry point.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agenthands/pyvm/internal/config"
	"github.com/agenthands/pyvm/pkg/builtins"
	"github.com/agenthands/pyvm/pkg/compiler/python"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/agenthands/pyvm/pkg/vm"
)

func main() {
	disassemble := flag.Bool("d", false, "print disassembled bytecode instead of running")
	logLevel := flag.String("log", "info", "log level: trace, debug, info, warn, error")
	cfgPath := flag.String("config", "pyvm.toml", "path to a pyvm.toml resource-limit config")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: npython [-d] [-log=level] [-config=path] <script.py>")
		os.Exit(2)
	}
	scriptPath := flag.Arg(0)

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.NewConsoleWriter()).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", scriptPath).Msg("reading script")
	}

	program, err := python.Compile(string(src), scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		os.Exit(1)
	}

	if *disassemble {
		fmt.Println(program.Disassemble())
		return
	}

	m := vm.New(program, builtins.Globals(), cfg.VM.GCThreshold, log)
	m.MaxFrames = cfg.VM.MaxFrames

	_, exc := m.Run(make(map[string]value.Value))
	if exc != nil {
		fmt.Fprintln(os.Stderr, vm.FormatUncaught(exc))
		os.Exit(1)
	}
}

