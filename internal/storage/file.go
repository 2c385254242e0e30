package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileDevice backs a Device with a fixed-size, pre-allocated regular file —
// the file-backed simulator a real EEPROM/FRAM driver is validated against
// before flashing to a target. Only one process may hold a FileDevice open
// for writing at a time; this is enforced with flock(2) on a sibling lock
// file.
type FileDevice struct {
	f    *os.File
	lock *os.File
	size uint16
	pos  uint16
}

// OpenFile opens (creating if necessary) a file-backed device of exactly
// size bytes. An existing file shorter than size is extended with zero
// bytes to size; extra trailing bytes beyond size are never addressed.
func OpenFile(path string, size uint16) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: error opening device file %q: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: error statting device file %q: %w", path, err)
	}
	if stat.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: error sizing device file %q: %w", path, err)
		}
	}

	lockF, err := createFlockFile(path + ".lock")
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FileDevice{f: f, lock: lockF, size: size}, nil
}

func (d *FileDevice) Size() (uint16, error) { return d.size, nil }

func (d *FileDevice) Pos() (uint16, error) { return d.pos, nil }

func (d *FileDevice) Seek(off uint16) error {
	if off >= d.size {
		return ErrOutOfBounds
	}
	d.pos = off
	return nil
}

func (d *FileDevice) Advance(n uint16) error {
	return d.Seek(d.pos + n)
}

func (d *FileDevice) Backtrack(n uint16) error {
	if n > d.pos {
		return ErrOutOfBounds
	}
	d.pos -= n
	return nil
}

func (d *FileDevice) Read(buf []byte) error {
	if int(d.pos)+len(buf) > int(d.size) {
		return ErrOutOfBounds
	}
	n, err := d.f.ReadAt(buf, int64(d.pos))
	if err != nil {
		return fmt.Errorf("storage: read error: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("storage: short read: got %d wanted %d", n, len(buf))
	}
	d.pos += uint16(len(buf))
	return nil
}

func (d *FileDevice) Write(buf []byte) error {
	if int(d.pos)+len(buf) > int(d.size) {
		return ErrOutOfBounds
	}
	n, err := d.f.WriteAt(buf, int64(d.pos))
	if err != nil {
		return fmt.Errorf("storage: write error: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("storage: short write: wrote %d wanted %d", n, len(buf))
	}
	d.pos += uint16(len(buf))
	return nil
}

func (d *FileDevice) EndOfStorage() (bool, error) {
	return d.pos == d.size-1, nil
}

func (d *FileDevice) Sync() error {
	return d.f.Sync()
}

func (d *FileDevice) Close() error {
	if err := d.f.Close(); err != nil {
		return err
	}
	return destroyFlockFile(d.lock)
}

// createFlockFile creates and exclusively locks a sibling lock file so that
// only one process at a time can open the device file for read-write use.
func createFlockFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot create lock file %q: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: cannot acquire lock on %q: %w", path, err)
	}
	return f, nil
}

// destroyFlockFile releases the lock and removes the lock file.
func destroyFlockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("storage: cannot unlock %q: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: cannot close %q: %w", f.Name(), err)
	}
	if err := os.Remove(f.Name()); err != nil {
		return fmt.Errorf("storage: cannot remove lock file %q: %w", f.Name(), err)
	}
	return nil
}
