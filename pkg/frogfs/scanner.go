package frogfs

import "github.com/frogfs/frogfs/internal/storage"

// findHole walks the data area from the start looking for the first
// contiguous run of >= MinHole zero bytes. It returns spaceStart (the
// offset of the would-be header), dataStart (spaceStart+3), and dataSize
// (the number of data bytes usable while still reserving 3 trailing bytes
// for a pointer fragment, per spec §4.3).
//
// A candidate hole is recognized the moment any one of a 3-byte window's
// bytes reads zero, not only the first. Free space always reads b0 == 0
// (the record-index field is biased by +1, so a valid metadata word never
// begins with a zero byte), but a live header can still have a zero
// second or third byte (a pointer fragment whose target is < 256, or a
// size header whose payload is a multiple of 256). Such a header is
// counted as the start of a candidate run rather than decoded and
// skipped.
func findHole(dev storage.Device, size uint16) (spaceStart, dataStart, dataSize uint16, err error) {
	pos := uint16(SuperblockSize)
	for pos < size {
		if size-pos < 3 {
			break
		}
		if err := dev.Seek(pos); err != nil {
			return 0, 0, 0, wrapIO(err)
		}
		var hdr [3]byte
		if err := dev.Read(hdr[:]); err != nil {
			return 0, 0, 0, wrapIO(err)
		}

		if hdr[0] == 0 || hdr[1] == 0 || hdr[2] == 0 {
			// The window straddles free space. Count the 3 observed bytes
			// as already blank, then keep reading single bytes to extend
			// the run until a non-zero byte ends it.
			extra, next, err := extendZeroRun(dev, pos+3, size)
			if err != nil {
				return 0, 0, 0, wrapIO(err)
			}
			run := 3 + extra
			if run >= MinHole {
				return pos, pos + 3, run - 7, nil
			}
			// Hole too small to allocate; resume scanning right after it.
			pos = next
			continue
		}

		w := decodeWord(hdr)
		switch {
		case w.kind == kindNormal && w.dataKind == dataKindSize:
			pos += 3 + w.payload
		case w.kind == kindFragment && w.dataKind == dataKindSize:
			pos += 3 + w.payload
		case w.kind == kindFragment && w.dataKind == dataKindPointer:
			pos += 3
		default:
			// normal+pointer is not a word the encoder ever produces.
			return 0, 0, 0, ErrOutOfRange
		}
	}
	return 0, 0, 0, ErrNoSpace
}

// extendZeroRun counts consecutive zero bytes starting at start, stopping
// at the first non-zero byte or the end of the medium, and reports next,
// the position of that terminating byte (or size, at end of medium).
func extendZeroRun(dev storage.Device, start, size uint16) (count, next uint16, err error) {
	if err := dev.Seek(start); err != nil {
		return 0, start, err
	}
	var b [1]byte
	pos := start
	for pos < size {
		if err := dev.Read(b[:]); err != nil {
			return 0, pos, err
		}
		if b[0] != 0 {
			break
		}
		pos++
		count++
	}
	return count, pos, nil
}

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return &ioError{err}
}

type ioError struct{ cause error }

func (e *ioError) Error() string { return "frogfs: storage io error: " + e.cause.Error() }
func (e *ioError) Unwrap() error { return ErrIO }
