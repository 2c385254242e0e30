package frogfs

import "github.com/zerodha/logf"

const (
	// MinRecords and MaxRecords bound the configured record count N.
	MinRecords = 1
	MaxRecords = 126

	// MaxRecordSize is the largest number of bytes a single write call may append.
	MaxRecordSize = 32 * 1024

	// MinHole is the smallest zero-byte run the scanner will allocate.
	// findHole reports run-7 usable data bytes: 3 bytes of the run hold the
	// header, 3 are reserved for a trailing pointer fragment should the
	// extent need to chain later, and 1 is left unused. A run of exactly
	// MinHole therefore yields an extent with no data capacity.
	MinHole = 7

	// SuperblockSize is the fixed prefix (magic + version) before the data area.
	SuperblockSize = 5

	// Magic is the little-endian superblock magic, and Version the current format version.
	Magic   uint32 = 0x534C5966
	Version byte   = 1
)

// Options configures an FS instance. Uses a functional-options pattern
// rather than a plain struct, so new knobs can be added without
// breaking callers.
type Options struct {
	debug         bool
	lo            *logf.Logger
	maxRecords    int
	maxRecordSize uint16
}

// Config is a functional option applied by New.
type Config func(*Options) error

func defaultOptions() *Options {
	return &Options{
		maxRecords:    MaxRecords,
		maxRecordSize: MaxRecordSize,
	}
}

// WithDebug enables debug-level tracing of allocation and boot-scan recovery.
func WithDebug() Config {
	return func(o *Options) error {
		o.debug = true
		return nil
	}
}

// WithLogger overrides the logger used for tracing. Without this, New
// builds a default logf.Logger honoring WithDebug.
func WithLogger(lo logf.Logger) Config {
	return func(o *Options) error {
		o.lo = &lo
		return nil
	}
}

// WithMaxRecords sets N, the number of directory slots. Must be in [MinRecords, MaxRecords].
func WithMaxRecords(n int) Config {
	return func(o *Options) error {
		o.maxRecords = n
		return nil
	}
}

// WithMaxRecordSize overrides the per-write byte limit, tightening it
// below the package default MaxRecordSize for a medium too small to
// ever satisfy a full-sized write. It cannot raise the limit past
// MaxRecordSize: the 15-bit payload field a metadata word encodes tops
// out there regardless of configuration.
func WithMaxRecordSize(n uint16) Config {
	return func(o *Options) error {
		if n == 0 || n > MaxRecordSize {
			return ErrInvalidRecord
		}
		o.maxRecordSize = n
		return nil
	}
}

func initLogger(debug bool) logf.Logger {
	opts := logf.Opts{EnableCaller: true}
	if debug {
		opts.Level = logf.DebugLevel
	}
	return logf.New(opts)
}
