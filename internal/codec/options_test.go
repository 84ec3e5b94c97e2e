//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package codec

import (
	"encoding/binary"
	"math"
	"testing"
)

func padContractForTest(contract string) []byte {
	out := make([]byte, optionsContractLen)
	copy(out, contract)
	for i := len(contract); i < optionsContractLen; i++ {
		out[i] = '_'
	}
	return out
}

func encodeOptionsQuote(contract string, ask, askSize, bid, bidSize int64, tsMicros uint64) []byte {
	body := make([]byte, 0, 21+4+4+4+4+8)
	body = append(body, padContractForTest(contract)...)

	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(ask))
	body = append(body, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], uint32(askSize))
	body = append(body, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], uint32(bid))
	body = append(body, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], uint32(bidSize))
	body = append(body, tmp4[:]...)

	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], tsMicros)
	body = append(body, tmp8[:]...)

	frame := []byte{byte(optionsRecordQuote), byte(len(body))}
	frame = append(frame, body...)
	return frame
}

// TestOptionsQuoteRoundTrip exercises E2 from spec.md §8: an options quote
// with ask=1_500_000 (fixed-point), bid=1_490_000, at a microsecond
// timestamp, decodes to ask=150.00, bid=149.00, ts in seconds.
func TestOptionsQuoteRoundTrip(t *testing.T) {
	record := encodeOptionsQuote("AAPL__230616C00180000", 1_500_000, 10, 1_490_000, 12, 1_700_000_000_000_000)

	frame := append([]byte{1}, record...)

	d := &OptionsDecoder{}
	events, err := d.Decode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	q := events[0].OptionsQuote
	if q == nil {
		t.Fatal("expected an OptionsQuote event")
	}
	if math.Abs(q.AskPrice-150.00) > 1e-9 {
		t.Errorf("expected ask 150.00, got %v", q.AskPrice)
	}
	if math.Abs(q.BidPrice-149.00) > 1e-9 {
		t.Errorf("expected bid 149.00, got %v", q.BidPrice)
	}
	if q.AskSize != 10 || q.BidSize != 12 {
		t.Errorf("expected sizes 10/12, got %d/%d", q.AskSize, q.BidSize)
	}
	if math.Abs(q.Timestamp-1.7e9) > 1e-6 {
		t.Errorf("expected ts ~1.7e9 seconds, got %v", q.Timestamp)
	}
}

// TestOptionsUnknownTypeSkippedNotFatal verifies that an options record
// whose type is unrecognized is skipped via its self-describing msgLen,
// without aborting the rest of the frame (unlike the equities variant).
func TestOptionsUnknownTypeSkippedNotFatal(t *testing.T) {
	unknown := []byte{0x09, 3, 'x', 'y', 'z'} // type=9, msgLen=3, body "xyz"
	quote := encodeOptionsQuote("AAPL__230616C00180000", 1_500_000, 10, 1_490_000, 12, 1)

	frame := []byte{2}
	frame = append(frame, unknown...)
	frame = append(frame, quote...)

	d := &OptionsDecoder{}
	events, err := d.Decode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event (unknown type skipped), got %d", len(events))
	}
	if events[0].OptionsQuote == nil {
		t.Fatal("expected the surviving event to be an OptionsQuote")
	}
}

// TestOptionsTruncatedFrame verifies that a frame whose declared record
// length overruns the buffer yields a ProtocolError.
func TestOptionsTruncatedFrame(t *testing.T) {
	frame := []byte{1, byte(optionsRecordQuote), 50, 1, 2, 3} // claims 50-byte body, has 3

	d := &OptionsDecoder{}
	events, err := d.Decode(frame)
	if err == nil {
		t.Fatal("expected a ProtocolError for the truncated frame")
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

// TestFixedPointNaNSentinel verifies the documented NaN sentinel for
// fixed-point price fields.
func TestFixedPointNaNSentinel(t *testing.T) {
	if !math.IsNaN(fixedPointToFloat32(fixedPointNaN32)) {
		t.Error("expected NaN for the fixed-point sentinel value")
	}
}
