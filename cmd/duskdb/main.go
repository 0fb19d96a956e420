// Command duskdb is the interactive REPL that drives the engine: a
// collaborator the spec includes "for completeness because it drives the
// engine" (spec.md §1/§6), grounded on mrsladoje-HundDB's app.go/main.go
// put/get/delete dispatch shape, with the Wails GUI binding swapped for a
// line-oriented stdin loop since no part of this spec needs a desktop GUI.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/duskdb/duskdb/internal/config"
	"github.com/duskdb/duskdb/internal/engine"
	"github.com/duskdb/duskdb/internal/pathutil"
	"github.com/duskdb/duskdb/internal/replio"
	"github.com/duskdb/duskdb/internal/skiplist"
)

func main() {
	blockSize := pflag.Int("block-size", config.DefaultWALBlockSize, "WAL block size in bytes")
	flushLimit := pflag.Int("flush-limit", config.DefaultMemtableFlushLimit, "memtable entry count before a freeze/flush")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: duskdb [--block-size N] [--flush-limit N] <root-dir>")
		os.Exit(2)
	}
	rootDir := pflag.Arg(0)

	opts := config.Defaults(rootDir)
	opts.WALBlockSize = *blockSize
	opts.MemtableFlushLimit = *flushLimit

	e, err := engine.Open(opts, pathutil.NewOSResolver())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", rootDir, err)
		os.Exit(1)
	}
	defer e.Close()

	if e.RecoveredFromUncleanShutdown() {
		fmt.Fprintln(os.Stderr, "warning: previous session did not shut down cleanly")
	}

	formatter := replio.NewANSIFormatter()
	repl(os.Stdin, os.Stdout, e, formatter)
}

func repl(in *os.File, out *os.File, e *engine.Engine, formatter replio.Formatter) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "get":
			if len(fields) != 2 {
				fmt.Fprintln(out, "invalid command")
				continue
			}
			handleGet(out, e, formatter, fields[1])
		case "put":
			if len(fields) != 3 {
				fmt.Fprintln(out, "invalid command")
				continue
			}
			handlePut(out, e, formatter, fields[1], fields[2])
		case "delete":
			if len(fields) != 2 {
				fmt.Fprintln(out, "invalid command")
				continue
			}
			handleDelete(out, e, formatter, fields[1])
		case "exit":
			fmt.Fprintln(out, "bye ;)")
			return
		default:
			fmt.Fprintln(out, "invalid command")
		}
	}
}

func handleGet(out *os.File, e *engine.Engine, formatter replio.Formatter, key string) {
	value, err := e.Get([]byte(key))
	if err != nil {
		if errors.Is(err, skiplist.ErrNotFound) {
			fmt.Fprintln(out, formatter.Error(fmt.Sprintf("key %q not found", key)))
			return
		}
		fmt.Fprintln(out, formatter.Error(err.Error()))
		return
	}
	fmt.Fprintln(out, string(value))
}

func handlePut(out *os.File, e *engine.Engine, formatter replio.Formatter, key, value string) {
	if err := e.Put([]byte(key), []byte(value)); err != nil {
		if errors.Is(err, skiplist.ErrAlreadyExists) {
			fmt.Fprintln(out, formatter.Error(fmt.Sprintf("key %q already exists", key)))
			return
		}
		fmt.Fprintln(out, formatter.Error(err.Error()))
		return
	}
	fmt.Fprintln(out, formatter.Info("ok"))
}

func handleDelete(out *os.File, e *engine.Engine, formatter replio.Formatter, key string) {
	if err := e.Delete([]byte(key)); err != nil {
		if errors.Is(err, skiplist.ErrNotFound) {
			fmt.Fprintln(out, formatter.Error(fmt.Sprintf("key %q not found", key)))
			return
		}
		fmt.Fprintln(out, formatter.Error(err.Error()))
		return
	}
	fmt.Fprintln(out, formatter.Info("ok"))
}
