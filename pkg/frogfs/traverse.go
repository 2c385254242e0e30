package frogfs

// Read copies up to len(out) bytes from record r's extent chain into out,
// continuing from wherever the previous Read on this record left off (or
// from the start of the record, right after Open). Returns the number of
// bytes actually copied.
func (fs *FS) Read(r int, out []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if out == nil {
		return 0, ErrNullPointer
	}
	n, err := fs.traverse(r, out, uint16(len(out)), false)
	return int(n), err
}

// Erase walks record r's extent chain, zeroing every header and data byte
// it passes (making the space eligible for future allocation), then
// removes the record from the directory.
func (fs *FS) Erase(r int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, err := fs.traverse(r, nil, 0, true)
	return err
}

// traverse is the state machine shared by Read and Erase: it walks from a
// record's first extent through its chain of pointer -> size fragment
// pairs, serving bytes into buf (when !erase) or zeroing metadata and
// data as it passes (when erase).
func (fs *FS) traverse(r int, buf []byte, n uint16, erase bool) (uint16, error) {
	if !fs.dir.valid(r) {
		return 0, ErrInvalidRecord
	}
	e := &fs.dir.entries[r]
	if e.writeOffset != 0 {
		return 0, ErrNotReadable
	}
	if e.offset == 0 {
		return 0, ErrInvalidRecord
	}

	target := n
	if erase {
		target = sentinel
	}

	var effective uint16
	// cursor/remaining are work_reg_1/work_reg_2: the read/erase cursor
	// persisted across calls, so a Read shorter than the record resumes
	// where the previous one stopped instead of restarting at the
	// primary header. cursor == 0 means the initial step hasn't run yet
	// (a real device offset can never be 0, since SuperblockSize > 0).
	cursor := e.workReg1
	remaining := e.workReg2
	if erase {
		// Erase always walks the whole chain from the primary header,
		// wherever an earlier Read on this record stopped.
		cursor, remaining = 0, 0
	}

	persist := func(err error) (uint16, error) {
		e.workReg1 = cursor
		e.workReg2 = remaining
		return effective, err
	}

loop:
	for {
		switch {
		case cursor == 0:
			// Initial step: parse the primary header.
			if err := fs.dev.Seek(e.offset); err != nil {
				return persist(wrapIO(err))
			}
			var hdr [3]byte
			if err := fs.dev.Read(hdr[:]); err != nil {
				return persist(wrapIO(err))
			}
			w := decodeWord(hdr)
			cursor = e.offset + 3
			remaining = w.payload
			if erase {
				if err := fs.zero(e.offset, 3); err != nil {
					return persist(wrapIO(err))
				}
			}

		case remaining != sentinel:
			// Data step.
			if effective >= target {
				break loop
			}
			if err := fs.dev.Seek(cursor); err != nil {
				return persist(wrapIO(err))
			}
			var chunk uint16
			if erase {
				chunk = remaining
			} else {
				left := target - effective
				chunk = remaining
				if left < chunk {
					chunk = left
				}
			}
			if chunk > 0 {
				if erase {
					if err := fs.zero(cursor, chunk); err != nil {
						return persist(wrapIO(err))
					}
				} else {
					if err := fs.dev.Read(buf[effective : effective+chunk]); err != nil {
						return persist(wrapIO(err))
					}
				}
			}
			cursor += chunk
			effective += chunk
			remaining -= chunk
			if remaining == 0 {
				remaining = sentinel
			}

		default:
			// Header step: parse the next fragment in the chain.
			if err := fs.dev.Seek(cursor); err != nil {
				return persist(wrapIO(err))
			}
			var hdr [3]byte
			if err := fs.dev.Read(hdr[:]); err != nil {
				return persist(wrapIO(err))
			}
			w := decodeWord(hdr)
			if w.index != r {
				// Chain terminated: what follows belongs to no one (free
				// space or another record's header). Not an error.
				break loop
			}
			switch {
			case w.kind == kindNormal:
				break loop
			case w.dataKind == dataKindSize:
				if erase {
					if err := fs.zero(cursor, 3); err != nil {
						return persist(wrapIO(err))
					}
				}
				cursor += 3
				remaining = w.payload
			default: // fragment + pointer
				if erase {
					if err := fs.zero(cursor, 3); err != nil {
						return persist(wrapIO(err))
					}
				}
				cursor = w.payload
				remaining = sentinel
			}
		}

		if !erase && effective >= target {
			break loop
		}
	}

	if erase {
		e.offset = 0
		e.workReg1 = 0
		e.workReg2 = 0
		return effective, nil
	}
	return persist(nil)
}
