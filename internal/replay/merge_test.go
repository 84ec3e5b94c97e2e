//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeCaptureFile writes a sequence of (timestamp, frame) pairs in the
// capture file's wire format: uint64 ts LE + uint32 frameLen LE + frame.
func writeCaptureFile(t *testing.T, dir, name string, records []Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create capture file: %v", err)
	}
	defer f.Close()

	for _, rec := range records {
		var header [12]byte
		binary.LittleEndian.PutUint64(header[0:8], rec.Timestamp)
		binary.LittleEndian.PutUint32(header[8:12], uint32(len(rec.Frame)))
		if _, err := f.Write(header[:]); err != nil {
			t.Fatalf("failed to write header: %v", err)
		}
		if _, err := f.Write(rec.Frame); err != nil {
			t.Fatalf("failed to write frame: %v", err)
		}
	}
	return path
}

// TestMergerOrdersAcrossFilesByTimestamp verifies the K-way merge yields a
// single globally timestamp-ordered stream across multiple capture files,
// even when no single file is internally sorted relative to the others.
func TestMergerOrdersAcrossFilesByTimestamp(t *testing.T) {
	dir := t.TempDir()

	fileA := writeCaptureFile(t, dir, "a.cap", []Record{
		{Timestamp: 1, Frame: []byte("a1")},
		{Timestamp: 4, Frame: []byte("a2")},
		{Timestamp: 7, Frame: []byte("a3")},
	})
	fileB := writeCaptureFile(t, dir, "b.cap", []Record{
		{Timestamp: 2, Frame: []byte("b1")},
		{Timestamp: 3, Frame: []byte("b2")},
		{Timestamp: 6, Frame: []byte("b3")},
	})

	m, err := NewMerger([]string{fileA, fileB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	var gotTimestamps []uint64
	for {
		rec, err := m.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		gotTimestamps = append(gotTimestamps, rec.Timestamp)
	}

	want := []uint64{1, 2, 3, 4, 6, 7}
	if len(gotTimestamps) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(gotTimestamps))
	}
	for i := range want {
		if gotTimestamps[i] != want[i] {
			t.Errorf("index %d: expected ts %d, got %d", i, want[i], gotTimestamps[i])
		}
	}
}

// TestMergerSingleFilePreservesOrder verifies a single-file merge is simply
// a pass-through in file order.
func TestMergerSingleFilePreservesOrder(t *testing.T) {
	dir := t.TempDir()
	file := writeCaptureFile(t, dir, "only.cap", []Record{
		{Timestamp: 10, Frame: []byte("x")},
		{Timestamp: 20, Frame: []byte("y")},
	})

	m, err := NewMerger([]string{file})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	rec1, err := m.Next()
	if err != nil || rec1.Timestamp != 10 {
		t.Fatalf("expected first record ts=10, got %v err=%v", rec1, err)
	}
	rec2, err := m.Next()
	if err != nil || rec2.Timestamp != 20 {
		t.Fatalf("expected second record ts=20, got %v err=%v", rec2, err)
	}
	if _, err := m.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after exhausting the file, got %v", err)
	}
}

// TestMergerEmptyFileYieldsImmediateEOF verifies a zero-record capture file
// doesn't break the merge.
func TestMergerEmptyFileYieldsImmediateEOF(t *testing.T) {
	dir := t.TempDir()
	empty := writeCaptureFile(t, dir, "empty.cap", nil)
	nonEmpty := writeCaptureFile(t, dir, "nonempty.cap", []Record{{Timestamp: 5, Frame: []byte("z")}})

	m, err := NewMerger([]string{empty, nonEmpty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	rec, err := m.Next()
	if err != nil || rec.Timestamp != 5 {
		t.Fatalf("expected the non-empty file's record, got %v err=%v", rec, err)
	}
	if _, err := m.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// TestNewMergerMissingFileErrors verifies constructing a Merger over a
// nonexistent path fails fast rather than deferring the error to Next.
func TestNewMergerMissingFileErrors(t *testing.T) {
	_, err := NewMerger([]string{"/nonexistent/path/to/capture.cap"})
	if err == nil {
		t.Fatal("expected an error for a nonexistent capture file")
	}
}
