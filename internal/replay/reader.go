//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Record is one captured event: the wall-clock timestamp it was originally
// received at, and the raw on-the-wire frame bytes in the same binary
// format live mode decodes (spec.md §4.3).
type Record struct {
	Timestamp uint64 // nanoseconds since epoch, wall clock at capture time
	Frame     []byte
}

// fileReader streams Records out of one capture file. Each record is
// laid out as: uint64 timestamp (little-endian) + uint32 frame length
// (little-endian) + frame bytes. The length prefix is this module's
// resolution of spec.md's Open Question that replay file framing details
// were not pinned down by the distillation; treated as part of the capture
// format contract here, documented in DESIGN.md.
type fileReader struct {
	path string
	f    *os.File
	r    *bufio.Reader

	next    *Record
	nextErr error
	primed  bool
}

func newFileReader(path string) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file %s: %w", path, err)
	}
	return &fileReader{path: path, f: f, r: bufio.NewReaderSize(f, 64*1024)}, nil
}

// peek returns the next unread Record without consuming it, reading ahead
// on first call. Returns (nil, io.EOF) at end of file.
func (fr *fileReader) peek() (*Record, error) {
	if !fr.primed {
		fr.next, fr.nextErr = fr.readOne()
		fr.primed = true
	}
	return fr.next, fr.nextErr
}

// pop consumes and returns the record previously returned by peek.
func (fr *fileReader) pop() (*Record, error) {
	rec, err := fr.peek()
	fr.primed = false
	fr.next = nil
	return rec, err
}

func (fr *fileReader) readOne() (*Record, error) {
	var header [12]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return nil, err
	}

	ts := binary.LittleEndian.Uint64(header[0:8])
	frameLen := binary.LittleEndian.Uint32(header[8:12])

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(fr.r, frame); err != nil {
		return nil, fmt.Errorf("truncated record in %s: %w", fr.path, err)
	}

	return &Record{Timestamp: ts, Frame: frame}, nil
}

func (fr *fileReader) Close() error {
	return fr.f.Close()
}
