// Command frogfsctl is a small offline client for a frogfs volume: format
// a device file, list its records, or dump a record's bytes to stdout and
// load them from stdin. It is the no-server counterpart to cmd/server's RESP interface.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/frogfs/frogfs/internal/storage"
	"github.com/frogfs/frogfs/pkg/frogfs"
)

func main() {
	var (
		device     = flag.String("device", "frogfs.img", "Path to the device file backing the volume.")
		size       = flag.Uint16("size", 4096, "Size in bytes of the device; a shorter device file is extended to it.")
		maxRecords = flag.Int("max-records", frogfs.MaxRecords, "Maximum number of record slots.")
		format     = flag.Bool("format", false, "Format the device before running the subcommand.")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: frogfsctl [flags] <list|verify|dump INDEX|load INDEX>\n\n")
		fmt.Fprintln(os.Stderr, flag.CommandLine.FlagUsages())
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dev, err := storage.OpenFile(*device, *size)
	if err != nil {
		log.Fatalf("error opening device: %v", err)
	}
	defer dev.Close()

	fs, err := frogfs.New(dev, *maxRecords)
	if err != nil {
		log.Fatalf("error binding volume: %v", err)
	}

	if *format {
		if err := fs.Format(); err != nil {
			log.Fatalf("error formatting volume: %v", err)
		}
	} else if err := fs.Init(); err != nil {
		log.Fatalf("error scanning volume: %v", err)
	}

	switch args[0] {
	case "list":
		runList(fs)
	case "verify":
		runVerify(fs)
	case "dump":
		runDump(fs, args[1:])
	case "load":
		runLoad(fs, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runList(fs *frogfs.FS) {
	buf := make([]int, frogfs.MaxRecords)
	count, err := fs.List(buf)
	if err != nil {
		log.Fatalf("error listing records: %v", err)
	}
	for _, idx := range buf[:count] {
		fmt.Println(idx)
	}
}

func runVerify(fs *frogfs.FS) {
	if err := fs.Verify(); err != nil {
		log.Fatalf("volume failed verification: %v", err)
	}
	fmt.Println("ok")
}

func runDump(fs *frogfs.FS, args []string) {
	idx := parseIndex(args)
	if err := fs.Open(idx); err != nil {
		log.Fatalf("error opening record %d: %v", idx, err)
	}
	buf := make([]byte, frogfs.MaxRecordSize)
	n, err := fs.Read(idx, buf)
	if err != nil {
		log.Fatalf("error reading record %d: %v", idx, err)
	}
	os.Stdout.Write(buf[:n])
	if err := fs.Close(idx); err != nil {
		log.Fatalf("error closing record %d: %v", idx, err)
	}
}

func runLoad(fs *frogfs.FS, args []string) {
	idx := parseIndex(args)
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("error reading stdin: %v", err)
	}
	if err := fs.Open(idx); err != nil {
		log.Fatalf("error opening record %d: %v", idx, err)
	}
	if err := fs.Write(idx, data); err != nil {
		log.Fatalf("error writing record %d: %v", idx, err)
	}
	if err := fs.Close(idx); err != nil {
		log.Fatalf("error closing record %d: %v", idx, err)
	}
}

func parseIndex(args []string) int {
	if len(args) != 1 {
		log.Fatal("expected exactly one record index argument")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("invalid record index %q: %v", args[0], err)
	}
	return idx
}
