package frogfs

// Usage reports coarse space accounting for the medium: total capacity of
// the data area, the number of live records, and the bytes currently
// occupied by their extent chains (headers included). It never mutates
// the directory and is safe to call between any other operations.
type Usage struct {
	Capacity    uint16
	RecordCount int
	BytesInUse  uint16
}

// Usage walks the directory's first extents and follows each chain to
// total up occupied bytes, the way an allocator's stats pass totals
// AllocBytes/AllocAtoms from a walk of its block list.
func (fs *FS) Usage() (Usage, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	u := Usage{Capacity: fs.size - SuperblockSize}

	for _, e := range fs.dir.entries {
		if e.offset == 0 {
			continue
		}
		u.RecordCount++

		cursor := e.offset
		for {
			if err := fs.dev.Seek(cursor); err != nil {
				return Usage{}, wrapIO(err)
			}
			var hdr [3]byte
			if err := fs.dev.Read(hdr[:]); err != nil {
				return Usage{}, wrapIO(err)
			}
			w := decodeWord(hdr)
			u.BytesInUse += 3 + w.payload

			next := cursor + 3 + w.payload
			if next >= fs.size || fs.size-next < 3 {
				break
			}
			if err := fs.dev.Seek(next); err != nil {
				return Usage{}, wrapIO(err)
			}
			var nhdr [3]byte
			if err := fs.dev.Read(nhdr[:]); err != nil {
				return Usage{}, wrapIO(err)
			}
			nw := decodeWord(nhdr)
			if nw.index != w.index || nw.kind != kindFragment || nw.dataKind != dataKindPointer {
				break
			}
			u.BytesInUse += 3
			cursor = nw.payload
		}
	}

	return u, nil
}

// Verify re-runs the boot-scan's validation walk without touching the
// live directory, returning the first malformed-metadata error it finds
// (or nil if the medium scans cleanly). It is the read-only counterpart
// to Init, useful for an offline fsck-style check.
func (fs *FS) Verify() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	scratch := newDirectory(len(fs.dir.entries))
	return fs.scanInto(scratch)
}
