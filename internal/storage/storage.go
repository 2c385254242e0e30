// Package storage provides the byte-addressable, cursor-seeking device
// abstraction that the frogfs record engine is built on top of. It mirrors
// the position-cursor model a real EEPROM/FRAM driver exposes: every call
// advances the cursor, and callers seek before every access rather than
// relying on the cursor surviving across operations.
package storage

import "errors"

// ErrOutOfBounds is returned when a seek or access would move the cursor
// past the last addressable byte of the device.
var ErrOutOfBounds = errors.New("storage: offset out of bounds")

// Device is the minimal interface the frogfs engine needs from the
// underlying medium. Implementations back it with a real file, an
// in-memory buffer, or (on constrained targets) a raw EEPROM/FRAM driver.
type Device interface {
	// Size returns the total addressable capacity in bytes.
	Size() (uint16, error)

	// Seek moves the cursor to an absolute offset.
	Seek(off uint16) error

	// Pos returns the current cursor position.
	Pos() (uint16, error)

	// Advance moves the cursor forward by n bytes.
	Advance(n uint16) error

	// Backtrack moves the cursor backward by n bytes.
	Backtrack(n uint16) error

	// Read fills buf starting at the cursor and advances the cursor by len(buf).
	Read(buf []byte) error

	// Write writes buf starting at the cursor and advances the cursor by len(buf).
	Write(buf []byte) error

	// EndOfStorage reports whether the cursor sits on the last addressable byte.
	EndOfStorage() (bool, error)

	// Sync flushes any buffering down to the medium.
	Sync() error

	// Close releases any resources held by the device.
	Close() error
}
