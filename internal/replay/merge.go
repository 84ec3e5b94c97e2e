//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"container/heap"
	"io"
)

// mergeItem is one file reader's currently-peeked record, ordered in the
// heap by Record.Timestamp.
type mergeItem struct {
	reader *fileReader
	record *Record
}

type mergeHeap []*mergeItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].record.Timestamp < h[j].record.Timestamp }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merger produces a single timestamp-ordered stream across multiple capture
// files via a K-way merge.
type Merger struct {
	readers []*fileReader
	h       mergeHeap
	started bool
	err     error // a non-EOF read error from one of the readers, surfaced by Next once the heap is empty
}

// NewMerger constructs a Merger over the given capture file paths. Every
// path is opened immediately, so a missing file fails here; records are
// read starting with the first Next call.
func NewMerger(paths []string) (*Merger, error) {
	readers := make([]*fileReader, 0, len(paths))
	for _, p := range paths {
		r, err := newFileReader(p)
		if err != nil {
			for _, opened := range readers {
				opened.Close()
			}
			return nil, err
		}
		readers = append(readers, r)
	}
	return &Merger{readers: readers}, nil
}

func (m *Merger) start() {
	m.h = make(mergeHeap, 0, len(m.readers))
	for _, r := range m.readers {
		rec, err := r.peek()
		switch {
		case err == nil:
			heap.Push(&m.h, &mergeItem{reader: r, record: rec})
		case err != io.EOF && m.err == nil:
			m.err = err
		}
	}
	heap.Init(&m.h)
	m.started = true
}

// Next returns the next record in global timestamp order across all open
// files, or (nil, io.EOF) once every file is exhausted. A truncated or
// otherwise corrupt record in one file ends that file's stream; the error
// is returned, in place of io.EOF, once the records of every other file
// have been returned, rather than silently truncating the merged stream.
func (m *Merger) Next() (*Record, error) {
	if !m.started {
		m.start()
	}

	if m.h.Len() == 0 {
		if m.err != nil {
			err := m.err
			m.err = nil
			return nil, err
		}
		return nil, io.EOF
	}

	item := heap.Pop(&m.h).(*mergeItem)
	rec, _ := item.reader.pop()

	nextRec, err := item.reader.peek()
	switch {
	case err == nil:
		heap.Push(&m.h, &mergeItem{reader: item.reader, record: nextRec})
	case err != io.EOF && m.err == nil:
		m.err = err
	}

	return rec, nil
}

// Close closes every underlying file reader.
func (m *Merger) Close() error {
	var firstErr error
	for _, r := range m.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
