package frogfs

import (
	"testing"

	"github.com/frogfs/frogfs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T, size uint16, n int) *FS {
	t.Helper()
	dev := storage.NewMem(size)
	fs, err := New(dev, n)
	require.NoError(t, err)
	require.NoError(t, fs.Format())
	return fs
}

func TestFormatThenInitIsEmpty(t *testing.T) {
	var (
		fs     = newTestFS(t, 4096, 32)
		assert = assert.New(t)
	)

	assert.NoError(fs.Init())

	buf := make([]int, 32)
	count, err := fs.List(buf)
	assert.NoError(err)
	assert.Equal(0, count)
}

func TestInitOnUnformattedMediumFails(t *testing.T) {
	dev := storage.NewMem(4096)
	fs, err := New(dev, 32)
	require.NoError(t, err)

	assert.ErrorIs(t, fs.Init(), ErrNotFormatted)
}

// S1: contiguous write-read loop.
func TestContiguousWriteReadLoop(t *testing.T) {
	var (
		fs      = newTestFS(t, 4096, 32)
		assert  = assert.New(t)
		payload = []byte("Hello! This is FrogFS.")
	)
	require.NoError(t, fs.Init())

	for i := 0; i < 32; i++ {
		require.NoError(t, fs.Open(i))
		require.NoError(t, fs.Write(i, payload))
		require.NoError(t, fs.Close(i))

		require.NoError(t, fs.Open(i))
		buf := make([]byte, 128)
		n, err := fs.Read(i, buf)
		assert.NoError(err)
		assert.Equal(len(payload), n)
		assert.Equal(payload, buf[:n])
		require.NoError(t, fs.Close(i))
	}
}

// S2: contiguous writes followed by deleting each record.
func TestContiguousWriteThenEraseEach(t *testing.T) {
	var (
		fs      = newTestFS(t, 4096, 32)
		assert  = assert.New(t)
		payload = []byte("Hello! This is FrogFS.")
	)
	require.NoError(t, fs.Init())

	for i := 0; i < 32; i++ {
		require.NoError(t, fs.Open(i))
		require.NoError(t, fs.Write(i, payload))
		require.NoError(t, fs.Close(i))

		require.NoError(t, fs.Open(i))
		buf := make([]byte, 128)
		_, err := fs.Read(i, buf)
		assert.NoError(err)

		assert.NoError(fs.Erase(i))
		assert.Equal(uint16(0), fs.dir.entries[i].offset)
	}

	next, err := fs.NextAvailable()
	assert.NoError(err)
	assert.Equal(0, next)
}

// S3: persist across a simulated reboot (re-Init without re-Format).
func TestPersistAcrossReboot(t *testing.T) {
	var (
		fs      = newTestFS(t, 4096, 32)
		assert  = assert.New(t)
		payload = []byte("Hello! This is FrogFS.")
	)
	require.NoError(t, fs.Init())

	for i := 0; i < 32; i++ {
		require.NoError(t, fs.Open(i))
		require.NoError(t, fs.Write(i, payload))
		require.NoError(t, fs.Close(i))
	}

	require.NoError(t, fs.Init())

	for i := 0; i < 32; i++ {
		require.NoError(t, fs.Open(i))
		buf := make([]byte, 128)
		n, err := fs.Read(i, buf)
		assert.NoError(err)
		assert.Equal(payload, buf[:n])
		require.NoError(t, fs.Close(i))
	}
}

// S4: fragmentation — a hole freed by erase is reused by a later record.
func TestFragmentationReusesFreedHole(t *testing.T) {
	var (
		fs      = newTestFS(t, 4096, 32)
		assert  = assert.New(t)
		payload = []byte("abcd")
	)
	require.NoError(t, fs.Init())

	require.NoError(t, fs.Open(0))
	require.NoError(t, fs.Write(0, payload))
	require.NoError(t, fs.Close(0))

	require.NoError(t, fs.Open(1))
	require.NoError(t, fs.Write(1, payload))
	require.NoError(t, fs.Close(1))

	require.NoError(t, fs.Open(0))
	assert.NoError(fs.Erase(0))

	require.NoError(t, fs.Open(2))
	assert.Equal(uint16(SuperblockSize), fs.dir.entries[2].offset)
	require.NoError(t, fs.Write(2, payload))
	require.NoError(t, fs.Close(2))

	require.NoError(t, fs.Open(1))
	buf := make([]byte, 16)
	n, err := fs.Read(1, buf)
	assert.NoError(err)
	assert.Equal(payload, buf[:n])
	require.NoError(t, fs.Close(1))

	require.NoError(t, fs.Open(2))
	n, err = fs.Read(2, buf)
	assert.NoError(err)
	assert.Equal(payload, buf[:n])
	require.NoError(t, fs.Close(2))
}

// S5: zero-byte record round-trip.
func TestZeroByteRecordRoundtrip(t *testing.T) {
	var (
		fs     = newTestFS(t, 4096, 32)
		assert = assert.New(t)
	)
	require.NoError(t, fs.Init())

	require.NoError(t, fs.Open(0))
	assert.NoError(fs.Write(0, nil))
	require.NoError(t, fs.Close(0))

	require.NoError(t, fs.Open(0))
	buf := make([]byte, 128)
	n, err := fs.Read(0, buf)
	assert.NoError(err)
	assert.Equal(0, n)
	require.NoError(t, fs.Close(0))
}

// S6: a write that must span two extents. A virgin medium always hands
// a record's first Open the *entire* remaining free run as capacity, so
// chaining can only be forced by pre-fragmenting the medium: write a
// small wall record, write a second record after it, then erase the
// wall. That leaves a free run too small for the payload followed by
// the wall's neighbor and a much larger free run beyond it, so record
// 0's first extent is undersized and Write must chain into the second
// run.
func TestChainedWriteAcrossExtents(t *testing.T) {
	var (
		fs     = newTestFS(t, 1024, 8)
		assert = assert.New(t)
	)
	require.NoError(t, fs.Init())

	require.NoError(t, fs.Open(1))
	require.NoError(t, fs.Write(1, []byte("0123456789")))
	require.NoError(t, fs.Close(1))

	require.NoError(t, fs.Open(2))
	require.NoError(t, fs.Write(2, make([]byte, 150)))
	require.NoError(t, fs.Close(2))

	require.NoError(t, fs.Open(1))
	require.NoError(t, fs.Erase(1))

	payload := make([]byte, 800)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	require.NoError(t, fs.Open(0))
	assert.Equal(uint16(SuperblockSize), fs.dir.entries[0].offset)
	require.NoError(t, fs.Write(0, payload))
	require.NoError(t, fs.Close(0))

	require.NoError(t, fs.Open(0))
	buf := make([]byte, 1024)
	n, err := fs.Read(0, buf)
	assert.NoError(err)
	assert.Equal(len(payload), n)
	assert.Equal(payload, buf[:n])
	require.NoError(t, fs.Close(0))

	// The primary extent header must report a length strictly less than
	// the total, proving a second extent was chained.
	dev := fs.dev
	require.NoError(t, dev.Seek(SuperblockSize))
	var hdr [3]byte
	require.NoError(t, dev.Read(hdr[:]))
	w := decodeWord(hdr)
	assert.Equal(kindNormal, w.kind)
	assert.Less(int(w.payload), len(payload))

	// Right after the first extent's data sits a fragment-pointer word
	// naming the second extent's start.
	require.NoError(t, dev.Seek(SuperblockSize+3+w.payload))
	require.NoError(t, dev.Read(hdr[:]))
	ptr := decodeWord(hdr)
	assert.Equal(kindFragment, ptr.kind)
	assert.Equal(dataKindPointer, ptr.dataKind)
	assert.Equal(0, ptr.index)

	// The second extent's own header reports the remainder of the payload.
	require.NoError(t, dev.Seek(ptr.payload))
	require.NoError(t, dev.Read(hdr[:]))
	tail := decodeWord(hdr)
	assert.Equal(kindFragment, tail.kind)
	assert.Equal(dataKindSize, tail.dataKind)
	assert.Equal(int(w.payload)+int(tail.payload), len(payload))
}

// A Read shorter than the record must resume where the previous Read
// left off, not restart from the beginning of the record.
func TestReadResumesFromPreviousCursor(t *testing.T) {
	var (
		fs      = newTestFS(t, 4096, 8)
		assert  = assert.New(t)
		payload = []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	)
	require.NoError(t, fs.Init())

	require.NoError(t, fs.Open(0))
	require.NoError(t, fs.Write(0, payload))
	require.NoError(t, fs.Close(0))

	require.NoError(t, fs.Open(0))

	first := make([]byte, 16)
	n, err := fs.Read(0, first)
	assert.NoError(err)
	assert.Equal(16, n)
	assert.Equal(payload[:16], first)

	second := make([]byte, 16)
	n, err = fs.Read(0, second)
	assert.NoError(err)
	assert.Equal(16, n)
	assert.Equal(payload[16:32], second)

	third := make([]byte, 16)
	n, err = fs.Read(0, third)
	assert.NoError(err)
	assert.Equal(len(payload)-32, n)
	assert.Equal(payload[32:], third[:n])

	require.NoError(t, fs.Close(0))
}

func TestWriteWithoutOpenIsNotWritable(t *testing.T) {
	fs := newTestFS(t, 4096, 8)
	require.NoError(t, fs.Init())

	assert.ErrorIs(t, fs.Write(0, []byte("x")), ErrNotWritable)
}

func TestReadWhileOpenForWriteIsNotReadable(t *testing.T) {
	fs := newTestFS(t, 4096, 8)
	require.NoError(t, fs.Init())
	require.NoError(t, fs.Open(0))

	_, err := fs.Read(0, make([]byte, 8))
	assert.ErrorIs(t, err, ErrNotReadable)
}

func TestInvalidRecordIndex(t *testing.T) {
	fs := newTestFS(t, 4096, 8)
	require.NoError(t, fs.Init())

	assert.ErrorIs(t, fs.Open(8), ErrInvalidRecord)
	assert.ErrorIs(t, fs.Open(-1), ErrInvalidRecord)
}

func TestWriteLargerThanMaxRecordSizeRejected(t *testing.T) {
	fs := newTestFS(t, 4096, 8)
	require.NoError(t, fs.Init())
	require.NoError(t, fs.Open(0))

	assert.ErrorIs(t, fs.Write(0, make([]byte, MaxRecordSize+1)), ErrInvalidRecord)
}

func TestNoSpaceWhenMediumIsFull(t *testing.T) {
	// Data area is one byte over the minimal hole: room for a header, one
	// data byte, and nothing else. The first record's extent fills after
	// that one byte, leaving a 4-byte trailing run too small to chain a
	// second extent for the rest of the write.
	fs := newTestFS(t, SuperblockSize+MinHole+1, 4)
	require.NoError(t, fs.Init())

	require.NoError(t, fs.Open(0))
	err := fs.Write(0, make([]byte, 5))
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestUsageReportsBytesInUse(t *testing.T) {
	fs := newTestFS(t, 4096, 8)
	require.NoError(t, fs.Init())

	require.NoError(t, fs.Open(0))
	require.NoError(t, fs.Write(0, []byte("12345")))
	require.NoError(t, fs.Close(0))

	u, err := fs.Usage()
	require.NoError(t, err)
	assert.Equal(t, 1, u.RecordCount)
	assert.Equal(t, uint16(3+5), u.BytesInUse)
}

func TestVerifyDoesNotMutateDirectory(t *testing.T) {
	fs := newTestFS(t, 4096, 8)
	require.NoError(t, fs.Init())
	require.NoError(t, fs.Open(0))
	require.NoError(t, fs.Write(0, []byte("hi")))
	require.NoError(t, fs.Close(0))

	before := fs.dir.entries[0]
	require.NoError(t, fs.Verify())
	assert.Equal(t, before, fs.dir.entries[0])
}
