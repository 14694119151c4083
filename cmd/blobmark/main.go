// Command blobmark is an interactive shell over a blobmark store:
// append blobs, read them back by offset, walk boundaries in either
// direction, binary-search sorted stores, and verify integrity.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/chzyer/readline"

	"github.com/blobmark/blobmark/pkg/codec"
	"github.com/blobmark/blobmark/pkg/config"
	"github.com/blobmark/blobmark/pkg/engine"
)

const helpText = `
blobmark - single-file append-only blob store

Usage:
  blobmark [options] store_file

Options:
  -readonly             Open without write access or a write lock
  -sync string          Sync mode: immediate or none (default "immediate")
  -compress string      Payload codec: none, snappy or zstd (default "none")

Commands:
  .help                 Show this help message
  .stats                Show store statistics
  .verify               Run an integrity walk over the store
  .exit                 Exit the program

  APPEND data           Append a blob, print its marker offset
  GET offset            Print the blob whose marker sits at offset
  NEXT offset           Print the next marker after offset
  PREV offset           Print the last marker before offset
  SCAN                  List every blob: offset, length, xxhash64
  SEARCH key            Binary search a store appended in sorted order
`

var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".stats"),
	readline.PcItem(".verify"),
	readline.PcItem(".exit"),
	readline.PcItem("APPEND"),
	readline.PcItem("GET"),
	readline.PcItem("NEXT"),
	readline.PcItem("PREV"),
	readline.PcItem("SCAN"),
	readline.PcItem("SEARCH"),
)

func main() {
	readonly := flag.Bool("readonly", false, "open without write access")
	syncMode := flag.String("sync", "immediate", "sync mode: immediate or none")
	compress := flag.String("compress", "none", "payload codec: none, snappy or zstd")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), helpText)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := config.NewDefaultConfig()
	cfg.ReadOnly = *readonly
	switch *syncMode {
	case "immediate":
		cfg.SyncMode = config.SyncImmediate
	case "none":
		cfg.SyncMode = config.SyncNone
	default:
		fmt.Fprintf(os.Stderr, "unknown sync mode %q\n", *syncMode)
		os.Exit(2)
	}

	var cdc *codec.Codec
	if *compress != "none" {
		if cdc = codec.For(*compress); cdc == nil {
			fmt.Fprintf(os.Stderr, "unknown codec %q\n", *compress)
			os.Exit(2)
		}
	}

	eng, err := engine.OpenWithConfig(path, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening store: %s\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	fmt.Printf("opened %s (%d bytes)\n", path, eng.Length())
	runShell(eng, cdc)
}

func runShell(eng *engine.Engine, cdc *codec.Codec) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "blobmark> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" || line == ".quit" {
			return
		}
		dispatch(eng, cdc, line)
	}
}

func dispatch(eng *engine.Engine, cdc *codec.Codec, line string) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToUpper(cmd) {
	case ".HELP":
		fmt.Print(helpText)

	case ".STATS":
		for k, v := range eng.Stats() {
			fmt.Printf("%s: %v\n", k, v)
		}

	case ".VERIFY":
		report, err := eng.Verify()
		if err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		fmt.Printf("%d record(s)\n", len(report.Records))
		if report.Clean() {
			fmt.Println("store is clean")
			return
		}
		for _, v := range report.Violations {
			fmt.Printf("violation: %s\n", v)
		}

	case "APPEND":
		payload := []byte(rest)
		if cdc != nil {
			enc, err := cdc.Encode(payload)
			if err != nil {
				fmt.Printf("error: %s\n", err)
				return
			}
			payload = enc
		}
		off, err := eng.Append(payload)
		if err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		fmt.Printf("%d\n", off)

	case "GET":
		off, ok := parseOffset(rest)
		if !ok {
			return
		}
		rec, err := eng.RecordAt(off)
		if err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		if cdc != nil {
			if rec, err = cdc.Decode(rec); err != nil {
				fmt.Printf("error: %s\n", err)
				return
			}
		}
		fmt.Printf("%s\n", rec)

	case "NEXT":
		off, ok := parseOffset(rest)
		if !ok {
			return
		}
		m, found, err := eng.Next(off)
		if err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		if !found {
			fmt.Println("none")
			return
		}
		fmt.Printf("%d\n", m)

	case "PREV":
		off, ok := parseOffset(rest)
		if !ok {
			return
		}
		m, found, err := eng.Prev(off)
		if err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		if !found {
			fmt.Println("none")
			return
		}
		fmt.Printf("%d\n", m)

	case "SCAN":
		c := eng.Cursor()
		n := 0
		for c.Next() {
			fmt.Printf("%10d  %6d bytes  %016x\n",
				c.Marker(), len(c.Record()), xxhash.Sum64(c.Record()))
			n++
		}
		if err := c.Err(); err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		fmt.Printf("%d record(s)\n", n)

	case "SEARCH":
		target := []byte(rest)
		m, found, err := eng.Search(func(rec []byte) int {
			if cdc != nil {
				dec, derr := cdc.Decode(rec)
				if derr == nil {
					rec = dec
				}
			}
			return bytes.Compare(rec, target)
		})
		if err != nil {
			fmt.Printf("error: %s\n", err)
			return
		}
		if !found {
			fmt.Println("none")
			return
		}
		fmt.Printf("%d\n", m)

	default:
		fmt.Printf("unknown command %q, try .help\n", cmd)
	}
}

func parseOffset(s string) (uint64, bool) {
	off, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		fmt.Printf("error: invalid offset %q\n", s)
		return 0, false
	}
	return off, true
}
