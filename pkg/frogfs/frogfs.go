// Package frogfs implements a minimal record-oriented filesystem for
// small byte-addressable non-volatile media (EEPROM, FRAM, NVRAM).
// Records are identified by a small integer index and may occupy one or
// more non-contiguous extents of the medium, so that space freed by
// deletion can be reused without compaction.
package frogfs

import (
	"encoding/binary"
	"sync"

	"github.com/frogfs/frogfs/internal/storage"
	"github.com/zerodha/logf"
)

// FS is a frogfs volume bound to a single storage.Device. Its methods
// are goroutine-safe via an internal mutex, but the underlying medium
// is assumed single-writer: pair it with a flock-backed storage.Device
// when more than one process may open the same file.
type FS struct {
	mu sync.Mutex

	lo  logf.Logger
	dev storage.Device

	size          uint16
	maxRecordSize uint16
	dir           *directory
}

// New binds an FS to dev, configured for maxRecords directory slots.
// It does not format or scan the medium — call Format on first use, or
// Init to recover the directory from a previously formatted medium.
func New(dev storage.Device, maxRecords int, opts ...Config) (*FS, error) {
	o := defaultOptions()
	o.maxRecords = maxRecords
	for _, c := range opts {
		if err := c(o); err != nil {
			return nil, err
		}
	}
	if o.maxRecords < MinRecords || o.maxRecords > MaxRecords {
		return nil, ErrInvalidRecord
	}

	size, err := dev.Size()
	if err != nil {
		return nil, wrapIO(err)
	}
	if size <= SuperblockSize {
		return nil, ErrInvalidRecord
	}

	lo := o.lo
	if lo == nil {
		l := initLogger(o.debug)
		lo = &l
	}

	return &FS{
		lo:            *lo,
		dev:           dev,
		size:          size,
		maxRecordSize: o.maxRecordSize,
		dir:           newDirectory(o.maxRecords),
	}, nil
}

// Format zeroes the entire medium and writes a fresh superblock. Every
// subsequent Init of this medium will succeed and report an empty directory.
func (fs *FS) Format() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.lo.Debug("formatting medium", "size", fs.size)

	if err := fs.zero(0, fs.size); err != nil {
		return wrapIO(err)
	}

	var sb [SuperblockSize]byte
	binary.LittleEndian.PutUint32(sb[0:4], Magic)
	sb[4] = Version
	if err := fs.dev.Seek(0); err != nil {
		return wrapIO(err)
	}
	if err := fs.dev.Write(sb[:]); err != nil {
		return wrapIO(err)
	}

	fs.dir.reset()
	return nil
}

// Init performs the boot-time scan: it validates the superblock, walks
// the data area, and rebuilds the in-memory directory from whatever
// metadata words it finds. Call this once after a cold start against a
// previously formatted medium.
func (fs *FS) Init() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.scanInto(fs.dir)
}

// scanInto runs the boot-scan validation walk, populating dir. It assumes
// the caller already holds fs.mu.
func (fs *FS) scanInto(dir *directory) error {
	dir.reset()

	var sb [SuperblockSize]byte
	if err := fs.dev.Seek(0); err != nil {
		return wrapIO(err)
	}
	if err := fs.dev.Read(sb[:]); err != nil {
		return wrapIO(err)
	}
	if binary.LittleEndian.Uint32(sb[0:4]) != Magic || sb[4] != Version {
		return ErrNotFormatted
	}

	pos := uint16(SuperblockSize)
	for pos < fs.size {
		// Skip inter-record free space one byte at a time.
		zero, err := fs.peekByte(pos)
		if err != nil {
			return wrapIO(err)
		}
		if zero == 0 {
			pos++
			continue
		}

		if fs.size-pos < 3 {
			break
		}
		if err := fs.dev.Seek(pos); err != nil {
			return wrapIO(err)
		}
		var hdr [3]byte
		if err := fs.dev.Read(hdr[:]); err != nil {
			return wrapIO(err)
		}
		w := decodeWord(hdr)

		switch {
		case w.kind == kindNormal && w.dataKind == dataKindSize:
			if !dir.valid(w.index) {
				return ErrOutOfRange
			}
			if dir.entries[w.index].offset != 0 {
				return ErrOutOfRange
			}
			dir.entries[w.index].offset = pos
			fs.lo.Debug("recovered record", "index", w.index, "offset", pos, "len", w.payload)
			pos += 3 + w.payload

		case w.kind == kindFragment && w.dataKind == dataKindPointer:
			if !(w.payload > SuperblockSize && w.payload < fs.size) {
				return ErrOutOfRange
			}
			pos += 3

		case w.kind == kindFragment && w.dataKind == dataKindSize:
			pos += 3 + w.payload

		default:
			return ErrOutOfRange
		}
	}

	return nil
}

func (fs *FS) peekByte(off uint16) (byte, error) {
	if err := fs.dev.Seek(off); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := fs.dev.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// zero writes n zero bytes starting at off, in fixed-size chunks so a
// 32KiB record never forces a single giant allocation.
func (fs *FS) zero(off, n uint16) error {
	const chunk = 256
	buf := make([]byte, chunk)
	if err := fs.dev.Seek(off); err != nil {
		return err
	}
	for n > 0 {
		c := n
		if c > chunk {
			c = chunk
		}
		if err := fs.dev.Write(buf[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}

func (fs *FS) writeWord(off uint16, w word) error {
	if err := fs.dev.Seek(off); err != nil {
		return err
	}
	hdr := encodeWord(w)
	return fs.dev.Write(hdr[:])
}
