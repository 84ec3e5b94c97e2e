//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cloudmanic/realtime-go/internal/codec"
)

// Config configures one replay run.
type Config struct {
	Provider           string
	Subproviders       []string
	Date               string // YYYY-MM-DD
	WithSimulatedDelay bool
	WriteCSV           bool
	CSVPath            string
	DeleteWhenDone     bool
	BypassParsing      bool

	Store   CaptureFileStore
	Decoder codec.FrameDecoder
	Emit    func(codec.Event)   // mirrors the live queue/callback path
	EmitRaw func(frame []byte) // invoked instead of Emit when BypassParsing
	Logger  *slog.Logger
}

// Engine downloads per-sub-provider capture files, merges them in
// timestamp order, and emits each event through the same path live mode
// uses.
type Engine struct {
	cfg Config
}

// New constructs a replay Engine.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{cfg: cfg}
}

// Run downloads, merges, and emits every sub-provider's capture file for
// the configured date, then returns once every file has reached EOF. A 404
// from the store for a given sub-provider is logged and skipped; any other
// download failure is fatal.
func (e *Engine) Run(ctx context.Context) error {
	var paths []string
	defer func() {
		if e.cfg.DeleteWhenDone {
			for _, p := range paths {
				os.Remove(p)
			}
		}
	}()

	for _, sub := range e.cfg.Subproviders {
		path, err := e.cfg.Store.Resolve(ctx, e.cfg.Provider, sub, e.cfg.Date)
		if err != nil {
			if errors.Is(err, ErrSubproviderNotFound) {
				e.cfg.Logger.Warn("no capture file for sub-provider, skipping", "subprovider", sub, "date", e.cfg.Date)
				continue
			}
			return fmt.Errorf("resolve capture file for %s: %w", sub, err)
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil
	}

	merger, err := NewMerger(paths)
	if err != nil {
		return fmt.Errorf("open capture files: %w", err)
	}
	defer merger.Close()

	var csvOut *csvWriter
	if e.cfg.WriteCSV {
		csvOut, err = newCSVWriter(e.cfg.CSVPath)
		if err != nil {
			return fmt.Errorf("open CSV output: %w", err)
		}
		defer csvOut.Close()
	}

	return e.pump(ctx, merger, csvOut)
}

// pump drains the merger, pacing emission to wall clock when
// WithSimulatedDelay is set, and dispatching each record through Decoder +
// Emit (or EmitRaw when BypassParsing).
func (e *Engine) pump(ctx context.Context, merger *Merger, csvOut *csvWriter) error {
	var replayStart time.Time
	var firstRecordTS uint64
	haveReference := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := merger.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read capture record: %w", err)
		}

		if e.cfg.WithSimulatedDelay {
			if !haveReference {
				replayStart = time.Now()
				firstRecordTS = rec.Timestamp
				haveReference = true
			} else {
				elapsedRecorded := time.Duration(rec.Timestamp - firstRecordTS)
				elapsedWall := time.Since(replayStart)
				if wait := elapsedRecorded - elapsedWall; wait > 0 {
					select {
					case <-time.After(wait):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}

		if e.cfg.BypassParsing {
			if e.cfg.EmitRaw != nil {
				e.cfg.EmitRaw(rec.Frame)
			}
			continue
		}

		events, decodeErr := e.cfg.Decoder.Decode(rec.Frame)
		if decodeErr != nil {
			e.cfg.Logger.Warn("malformed replay frame", "err", decodeErr)
		}
		for _, ev := range events {
			if e.cfg.Emit != nil {
				e.cfg.Emit(ev)
			}
			if csvOut != nil {
				if err := csvOut.WriteEvent(ev); err != nil {
					e.cfg.Logger.Warn("failed to write CSV row", "err", err)
				}
			}
		}
	}
}
