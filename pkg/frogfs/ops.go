package frogfs

// Open binds record r for access. If the directory already has a first
// extent for r, it is positioned for reading (cursors reset). Otherwise
// a fresh extent is allocated from free space and the record is
// positioned for writing.
func (fs *FS) Open(r int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.dir.valid(r) {
		return ErrInvalidRecord
	}
	e := &fs.dir.entries[r]

	if e.offset > 0 {
		e.writeOffset = 0
		e.workReg1 = 0
		e.workReg2 = 0
		return nil
	}

	spaceStart, dataStart, dataSize, err := findHole(fs.dev, fs.size)
	if err != nil {
		return err
	}

	if err := fs.writeWord(spaceStart, word{kind: kindNormal, dataKind: dataKindSize, index: r, payload: 0}); err != nil {
		return wrapIO(err)
	}

	e.offset = spaceStart
	e.writeOffset = dataStart
	e.workReg1 = dataSize
	e.workReg2 = 0

	fs.lo.Debug("allocated record", "index", r, "offset", spaceStart, "capacity", dataSize)
	return nil
}

// Write appends data to a record open for write, chaining a new extent
// whenever the current one fills up. On IO or NOSPACE mid-write, the
// current extent's header is still patched to reflect the bytes that
// were durably written before the failure, so a subsequent read never
// sees more than the durable prefix.
func (fs *FS) Write(r int, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.dir.valid(r) || len(data) > int(fs.maxRecordSize) {
		return ErrInvalidRecord
	}
	e := &fs.dir.entries[r]
	if e.writeOffset == 0 {
		return ErrNotWritable
	}

	written := 0
	for {
		if written >= len(data) {
			return fs.patchHeader(e, r)
		}

		if e.workReg2 < e.workReg1 {
			room := e.workReg1 - e.workReg2
			n := uint16(len(data) - written)
			if n > room {
				n = room
			}
			if err := fs.dev.Seek(e.writeOffset + e.workReg2); err != nil {
				return wrapIO(err)
			}
			if err := fs.dev.Write(data[written : written+int(n)]); err != nil {
				fs.patchHeader(e, r)
				return wrapIO(err)
			}
			written += int(n)
			e.workReg2 += n
			if e.workReg2 >= e.workReg1 {
				// The extent just filled up: patch its header now, while
				// write_offset still points at it, so a findHole scan
				// sees its true length instead of the zero placeholder
				// Open wrote. Left unpatched, this extent's real length
				// would never be recorded once write_offset moves on to
				// the next extent.
				if err := fs.patchHeader(e, r); err != nil {
					return err
				}
			}
			continue
		}

		// Extent is full and more input remains: chain a new one.
		spaceStart, dataStart, dataSize, err := findHole(fs.dev, fs.size)
		if err != nil {
			fs.patchHeader(e, r)
			return err
		}

		ptr := word{kind: kindFragment, dataKind: dataKindPointer, index: r, payload: spaceStart}
		if err := fs.writeWord(e.writeOffset+e.workReg1, ptr); err != nil {
			return wrapIO(err)
		}
		sizeHdr := word{kind: kindFragment, dataKind: dataKindSize, index: r, payload: 0}
		if err := fs.writeWord(spaceStart, sizeHdr); err != nil {
			return wrapIO(err)
		}

		fs.lo.Debug("chaining extent", "index", r, "from", e.writeOffset-3, "to", spaceStart)

		e.writeOffset = dataStart
		e.workReg1 = dataSize
		e.workReg2 = 0
	}
}

// patchHeader rewrites the current extent's header length field to
// reflect work_reg_2 bytes, preserving the kind bits: the first extent's
// header is always normal+size, every later extent's is fragment+size.
func (fs *FS) patchHeader(e *recordState, r int) error {
	headerOff := e.writeOffset - 3
	kind := kindFragment
	if headerOff == e.offset {
		kind = kindNormal
	}
	w := word{kind: kind, dataKind: dataKindSize, index: r, payload: e.workReg2}
	if err := fs.writeWord(headerOff, w); err != nil {
		return wrapIO(err)
	}
	return nil
}
