package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/cbridge"
	"github.com/wippyai/cbridge/guest"
)

type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to core wasm module")
		funcName    = flag.String("func", "", "Function to call")
		ret         = flag.String("ret", "auto", "Result kind: auto, string, i32 or none")
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
		args        stringList
	)
	flag.Var(&args, "arg", "Argument to pass (repeatable); i:<n> for integers, null for a null pointer")
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: ccall -wasm <file.wasm> -func name [-arg value ...] [-ret string|i32|none]")
		fmt.Fprintln(os.Stderr, "       ccall -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       ccall -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = log.Sync() }()
		cbridge.SetLogger(log)
		guest.SetLogger(log)
	}

	kind, err := parseRetKind(*ret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		err = runInteractive(*wasmFile, kind, log)
	} else {
		err = run(*wasmFile, *funcName, args, kind, *list, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, funcName string, args []string, ret retKind, listOnly bool, log *zap.Logger) error {
	ctx := context.Background()

	s, err := openSession(ctx, wasmFile, log)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if listOnly || funcName == "" {
		fmt.Printf("Module: %s\n", wasmFile)
		fmt.Printf("\nExported functions:\n")
		for _, f := range s.funcs {
			fmt.Printf("  %s\n", f.signature())
		}
		if s.attachErr != nil {
			fmt.Printf("\nString arguments unavailable: %v\n", s.attachErr)
		}
		if funcName == "" && !listOnly {
			fmt.Printf("\nUse -func to specify a function to call.\n")
		}
		return nil
	}

	fmt.Printf("Calling %s%q...\n", funcName, args)
	result, err := s.call(ctx, funcName, args, ret)
	if err != nil {
		return err
	}
	if ret != retNone {
		fmt.Printf("Result: %s\n", result)
	}

	stdout, stderr := s.output()
	if len(stdout) > 0 {
		fmt.Printf("\n--- stdout ---\n%s", stdout)
	}
	if len(stderr) > 0 {
		fmt.Printf("\n--- stderr ---\n%s", stderr)
	}
	return nil
}
