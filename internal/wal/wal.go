// Package wal implements the record-structured write-ahead log: an
// append-only file of fixed-size blocks, each containing zero or more
// CRC-checked records followed by zero padding. Grounded on
// mrsladoje-HundDB's lsm/wal/wal.go (block/offset bookkeeping,
// flush-then-make-new-block cycle, graceful/unclean shutdown marker), with
// positioned I/O and the durability barrier moved onto golang.org/x/sys/unix
// per mattkeenan-zerocopyskiplist's use of unix.Pwritev for the same
// concern.
package wal

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultBlockSize is the block granularity spec.md §4.4 defaults to.
const DefaultBlockSize = 32 * 1024

// metadataName is the shutdown-marker file living alongside wal.log. It
// mirrors the teacher's metadata.bin: written with a "dirty" flag the
// instant the WAL is opened, and only flipped to "clean" by Close.
const metadataName = "wal.metadata"

// WAL is an append-only, block-aligned log file. It owns its file
// descriptor exclusively; callers must serialize all calls (the engine
// façade runs single-threaded per spec.md §5).
type WAL struct {
	f         *os.File
	blockSize int
	endPos    int64 // current file length; the WAL's own cursor, never a cached fd offset
	log       *log.Logger

	recoveredUnclean bool
}

// Open opens (or creates) path as a WAL file with the given block size.
// blockSize must exceed HeaderSize; Open panics otherwise, per
// spec.md §4.3's "assert this at WAL init".
func Open(path string, blockSize int) (*WAL, error) {
	if blockSize <= HeaderSize {
		panic("wal: block size must exceed header size")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wal: stat %s: %w", path, err)
	}

	w := &WAL{
		f:         f,
		blockSize: blockSize,
		endPos:    info.Size(),
		log:       log.New(os.Stderr, "[wal] ", log.LstdFlags),
	}

	markerPath := metadataPath(path)
	w.recoveredUnclean, err = readAndMarkDirty(markerPath)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wal: shutdown marker: %w", err)
	}

	return w, nil
}

func metadataPath(walPath string) string {
	return walPath + "." + metadataName
}

// readAndMarkDirty reads the previous shutdown-marker byte (1 = clean,
// anything else = unclean/absent) and immediately overwrites it with the
// "dirty" marker, so a crash between here and Close is recorded as unclean.
func readAndMarkDirty(markerPath string) (recoveredUnclean bool, err error) {
	existing, readErr := os.ReadFile(markerPath)
	wasClean := readErr == nil && len(existing) >= 1 && existing[0] == 1

	if err := os.WriteFile(markerPath, []byte{0}, 0644); err != nil {
		return false, err
	}
	return !wasClean, nil
}

// RecoveredFromUncleanShutdown reports whether the marker left by the
// previous session indicates it did not call Close before exiting. It is
// diagnostic only: spec.md §9 leaves a replay driver out of scope, so
// nothing is done with this besides surfacing it to the caller.
func (w *WAL) RecoveredFromUncleanShutdown() bool {
	return w.recoveredUnclean
}

// Append encodes payload (an already-serialized Event) into one or more
// chunked Records and writes them to the log, respecting the block
// placement rule of spec.md §4.4: a record is never split across a block
// boundary; when it would not fit in the remaining space of the current
// block, that space is zero-padded and the record starts a fresh block.
//
// Append does not call Flush; callers that need a durability barrier call
// Flush explicitly (the engine façade does this after every WAL append,
// before mutating the memtable).
func (w *WAL) Append(payload []byte) error {
	for _, rec := range EncodeChunks(payload, w.blockSize) {
		if err := w.appendRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *WAL) appendRecord(rec Record) error {
	size := rec.Size()
	spaceInLast := w.blockSize - int(w.endPos%int64(w.blockSize))

	if size > spaceInLast {
		if err := w.writePadding(spaceInLast); err != nil {
			return err
		}
	}

	buf := make([]byte, size)
	rec.Encode(buf)
	return w.writeAt(buf)
}

func (w *WAL) writePadding(n int) error {
	if n <= 0 {
		return nil
	}
	return w.writeAt(make([]byte, n))
}

// writeAt writes buf at the WAL's own end-of-file cursor via a positioned
// write, matching spec.md §5's "file position is maintained relative to
// file end ... not a cached cursor".
func (w *WAL) writeAt(buf []byte) error {
	n, err := unix.Pwrite(int(w.f.Fd()), buf, w.endPos)
	if err != nil {
		return fmt.Errorf("wal: pwrite: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("wal: short write: wrote %d of %d bytes", n, len(buf))
	}
	w.endPos += int64(n)
	return nil
}

// Flush is the durability barrier: it forces every byte written so far to
// stable storage via fsync. After Flush returns, a crash cannot lose any
// previously-appended record.
func (w *WAL) Flush() error {
	if err := unix.Fsync(int(w.f.Fd())); err != nil {
		return fmt.Errorf("wal: fsync: %w", err)
	}
	return nil
}

// Size returns the current file length.
func (w *WAL) Size() int64 {
	return w.endPos
}

// ReadBlock reads the blockSize-byte block at the given block-aligned
// byte offset and decodes it into a sequence of Records, stopping at the
// first header that fails validation (interpreted as zero-padding), per
// spec.md §4.4's replay contract. It is a pure decode step; it does not
// reassemble chunked records into application payloads (that belongs to a
// future full replay driver, out of scope here per spec.md §1/§9).
func (w *WAL) ReadBlock(blockOffset int64) ([]Record, error) {
	buf := make([]byte, w.blockSize)
	n, err := unix.Pread(int(w.f.Fd()), buf, blockOffset)
	if err != nil {
		return nil, fmt.Errorf("wal: pread: %w", err)
	}
	buf = buf[:n]

	var records []Record
	offset := 0
	for offset < len(buf) {
		rec, err := Decode(buf[offset:])
		if err != nil {
			break
		}
		records = append(records, rec)
		offset += rec.Size()
	}
	return records, nil
}

// ReadAllBlocks decodes every block currently in the file, in order,
// including the final, possibly still-being-written, partial block.
func (w *WAL) ReadAllBlocks() ([][]Record, error) {
	var blocks [][]Record
	for off := int64(0); off < w.endPos; off += int64(w.blockSize) {
		recs, err := w.ReadBlock(off)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, recs)
	}
	return blocks, nil
}

// Close flushes pending data, marks the shutdown marker clean, and closes
// the underlying file descriptor. The descriptor is closed even when
// Flush or the marker write fails, so a failing filesystem cannot leak
// fds across repeated Open/Close cycles; the first error encountered is
// the one returned.
func (w *WAL) Close() error {
	var firstErr error

	if err := w.Flush(); err != nil {
		w.log.Printf("flush on close failed: %v", err)
		firstErr = err
	}

	if firstErr == nil {
		markerPath := metadataPath(w.f.Name())
		data := make([]byte, 9)
		data[0] = 1
		binary.LittleEndian.PutUint64(data[1:], uint64(w.endPos))
		if err := os.WriteFile(markerPath, data, 0644); err != nil {
			firstErr = fmt.Errorf("wal: write clean shutdown marker: %w", err)
		}
	}

	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("wal: close: %w", err)
	}

	return firstErr
}
