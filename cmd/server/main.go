package main

import (
	"log"
	"os"

	"github.com/frogfs/frogfs/internal/storage"
	"github.com/frogfs/frogfs/pkg/frogfs"
	"github.com/tidwall/redcon"
)

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
	lo          = log.New(os.Stdout, "", log.Ldate|log.Ltime|log.Lshortfile)
	addr        = ":6380"
)

type App struct {
	fs *frogfs.FS
}

func main() {
	ko, err := initConfig()
	if err != nil {
		lo.Fatalf("error loading config: %v", err)
	}

	devicePath := ko.String("frogfs.device")
	if devicePath == "" {
		devicePath = "frogfs.img"
	}
	size := uint16(ko.Int64("frogfs.size"))
	if size == 0 {
		size = 4096
	}
	maxRecords := ko.Int("frogfs.max_records")
	if maxRecords == 0 {
		maxRecords = frogfs.MaxRecords
	}

	dev, err := storage.OpenFile(devicePath, size)
	if err != nil {
		lo.Fatalf("error opening device: %v", err)
	}

	opts := []frogfs.Config{frogfs.WithLogger(initLogger(ko))}
	if maxSize := ko.Int("frogfs.max_record_size"); maxSize > 0 {
		opts = append(opts, frogfs.WithMaxRecordSize(uint16(maxSize)))
	}

	fs, err := frogfs.New(dev, maxRecords, opts...)
	if err != nil {
		lo.Fatalf("error binding volume: %v", err)
	}

	if err := fs.Init(); err != nil {
		if err == frogfs.ErrNotFormatted {
			if err := fs.Format(); err != nil {
				lo.Fatalf("error formatting volume: %v", err)
			}
		} else {
			lo.Fatalf("error scanning volume: %v", err)
		}
	}

	app := &App{fs: fs}

	mux := redcon.NewServeMux()
	mux.HandleFunc("ping", app.ping)
	mux.HandleFunc("quit", app.quit)
	mux.HandleFunc("open", app.open)
	mux.HandleFunc("write", app.write)
	mux.HandleFunc("read", app.read)
	mux.HandleFunc("erase", app.erase)
	mux.HandleFunc("close", app.close)
	mux.HandleFunc("list", app.list)
	mux.HandleFunc("next", app.next)

	if bind := ko.String("server.address"); bind != "" {
		addr = bind
	}

	if err := redcon.ListenAndServe(addr,
		mux.ServeRESP,
		func(conn redcon.Conn) bool {
			// use this function to accept or deny the connection.
			return true
		},
		func(conn redcon.Conn, err error) {
			// this is called when the connection has been closed
		},
	); err != nil {
		lo.Fatalf("error starting server: %v", err)
	}
}
