//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cloudmanic/realtime-go/internal/codec"
)

// fakeStore resolves every sub-provider to a pre-written capture file path.
type fakeStore struct {
	paths map[string]string
}

func (s *fakeStore) Resolve(ctx context.Context, providerName, subprovider, date string) (string, error) {
	p, ok := s.paths[subprovider]
	if !ok {
		return "", ErrSubproviderNotFound
	}
	return p, nil
}

// passthroughDecoder decodes a frame into a single EquitiesTrade tagging the
// frame bytes as the symbol, so tests can assert emission order without
// depending on the real binary codec.
type passthroughDecoder struct{}

func (passthroughDecoder) Decode(frame []byte) ([]codec.Event, error) {
	return []codec.Event{{
		Type:          codec.EventEquitiesTrade,
		EquitiesTrade: &codec.EquitiesTrade{Symbol: string(frame)},
	}}, nil
}

// TestEngineRunEmitsInTimestampOrderAcrossSubproviders verifies the Replay
// Engine resolves each configured sub-provider, merges by timestamp, and
// emits events in that merged order through Emit (spec.md E5/§4.7).
func TestEngineRunEmitsInTimestampOrderAcrossSubproviders(t *testing.T) {
	dir := t.TempDir()
	fileA := writeCaptureFile(t, dir, "a.cap", []Record{
		{Timestamp: 1, Frame: []byte("A1")},
		{Timestamp: 3, Frame: []byte("A2")},
	})
	fileB := writeCaptureFile(t, dir, "b.cap", []Record{
		{Timestamp: 2, Frame: []byte("B1")},
	})

	var mu sync.Mutex
	var symbols []string

	eng := New(Config{
		Provider:     "OPRA",
		Subproviders: []string{"cta_a", "utp"},
		Date:         "2026-01-15",
		Store:        &fakeStore{paths: map[string]string{"cta_a": fileA, "utp": fileB}},
		Decoder:      passthroughDecoder{},
		Emit: func(ev codec.Event) {
			mu.Lock()
			symbols = append(symbols, ev.EquitiesTrade.Symbol)
			mu.Unlock()
		},
	})

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A1", "B1", "A2"}
	mu.Lock()
	defer mu.Unlock()
	if len(symbols) != len(want) {
		t.Fatalf("expected %d emitted events, got %d: %v", len(want), len(symbols), symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], symbols[i])
		}
	}
}

// TestEngineSkipsNotFoundSubprovider verifies a 404/ErrSubproviderNotFound
// sub-provider is skipped rather than failing the whole run.
func TestEngineSkipsNotFoundSubprovider(t *testing.T) {
	dir := t.TempDir()
	file := writeCaptureFile(t, dir, "only.cap", []Record{{Timestamp: 1, Frame: []byte("X")}})

	var emitted int
	eng := New(Config{
		Provider:     "OPRA",
		Subproviders: []string{"missing", "present"},
		Date:         "2026-01-15",
		Store:        &fakeStore{paths: map[string]string{"present": file}},
		Decoder:      passthroughDecoder{},
		Emit:         func(codec.Event) { emitted++ },
	})

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emitted != 1 {
		t.Errorf("expected 1 emitted event from the present sub-provider, got %d", emitted)
	}
}

// TestEngineSimulatedDelayPacesEmission verifies WithSimulatedDelay paces
// record emission against wall clock using the first record as the
// reference point (spec.md E5).
func TestEngineSimulatedDelayPacesEmission(t *testing.T) {
	dir := t.TempDir()
	const delay = 100 * time.Millisecond
	file := writeCaptureFile(t, dir, "paced.cap", []Record{
		{Timestamp: 0, Frame: []byte("first")},
		{Timestamp: uint64(delay.Nanoseconds()), Frame: []byte("second")},
	})

	var times []time.Time
	eng := New(Config{
		Provider:           "OPRA",
		Subproviders:       []string{"only"},
		Date:               "2026-01-15",
		WithSimulatedDelay: true,
		Store:              &fakeStore{paths: map[string]string{"only": file}},
		Decoder:            passthroughDecoder{},
		Emit:               func(codec.Event) { times = append(times, time.Now()) },
	})

	start := time.Now()
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(times) != 2 {
		t.Fatalf("expected 2 emitted events, got %d", len(times))
	}
	elapsed := times[1].Sub(start)
	if elapsed < delay {
		t.Errorf("expected the second event to be paced at least %v after start, got %v", delay, elapsed)
	}
}

// TestEngineDeleteWhenDoneRemovesResolvedFiles verifies DeleteWhenDone
// cleans up the resolved capture files after the run completes.
func TestEngineDeleteWhenDoneRemovesResolvedFiles(t *testing.T) {
	dir := t.TempDir()
	file := writeCaptureFile(t, dir, "cleanup.cap", []Record{{Timestamp: 1, Frame: []byte("X")}})

	eng := New(Config{
		Provider:       "OPRA",
		Subproviders:   []string{"only"},
		Date:           "2026-01-15",
		DeleteWhenDone: true,
		Store:          &fakeStore{paths: map[string]string{"only": file}},
		Decoder:        passthroughDecoder{},
		Emit:           func(codec.Event) {},
	})

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := filepath.Glob(file); err != nil {
		t.Fatalf("unexpected glob error: %v", err)
	}
	matches, _ := filepath.Glob(file)
	if len(matches) != 0 {
		t.Errorf("expected capture file to be removed after the run, still present: %v", matches)
	}
}
