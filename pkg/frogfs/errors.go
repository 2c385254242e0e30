package frogfs

import "errors"

// Error taxonomy. Every operation surfaces one of these; none are
// recovered internally — callers decide whether to retry, reformat, or
// give up.
var (
	ErrNullPointer      = errors.New("frogfs: required sink is nil")
	ErrIO               = errors.New("frogfs: storage io error")
	ErrNotFormatted     = errors.New("frogfs: medium is not formatted")
	ErrInvalidRecord    = errors.New("frogfs: invalid record index or size")
	ErrNoSpace          = errors.New("frogfs: no contiguous free space available")
	ErrNotWritable      = errors.New("frogfs: record is not open for write")
	ErrNotReadable      = errors.New("frogfs: record is open for write")
	ErrInvalidOperation = errors.New("frogfs: invalid operation for record state")
	ErrOutOfRange       = errors.New("frogfs: malformed metadata or pointer out of range")
)
