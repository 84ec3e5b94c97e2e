//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cloudmanic/realtime-go/internal/errs"
	"github.com/shopspring/decimal"
)

// Options record types, per the on-the-wire layout in §4.3.
const (
	optionsRecordTrade           = 1
	optionsRecordQuote           = 2
	optionsRecordRefresh         = 3
	optionsRecordUnusualActivity = 4
)

const optionsContractLen = 21

// fixedPointDivisor is the scale applied to wire fixed-point price fields;
// a wire value equal to the sentinel fixedPointNaN32 (INT32_MIN, in both
// 4- and 8-byte fields) means "no price" (NaN).
var fixedPointDivisor = decimal.NewFromInt(10000)

const fixedPointNaN32 = int32(math.MinInt32)

// OptionsDecoder decodes options binary frames into OptionsTrade/
// OptionsQuote/OptionsRefresh/OptionsUnusualActivity events.
type OptionsDecoder struct{}

// NewOptionsDecoder constructs an OptionsDecoder.
func NewOptionsDecoder() *OptionsDecoder {
	return &OptionsDecoder{}
}

// Decode parses a multi-message options binary frame. Unlike equities,
// every options record is self-describing via its own msgLen field, so an
// unknown type is skipped rather than aborting the whole frame.
func (d *OptionsDecoder) Decode(frame []byte) ([]Event, error) {
	if len(frame) == 0 {
		return nil, errs.Protocol(fmt.Errorf("empty frame")).WithRawHex(frame)
	}

	count := int(frame[0])
	offset := 1
	events := make([]Event, 0, count)

	for i := 0; i < count; i++ {
		if offset+2 > len(frame) {
			return events, errs.Protocol(fmt.Errorf("truncated options frame: decoded %d/%d records", i, count)).WithRawHex(frame)
		}

		recType := frame[offset]
		msgLen := int(frame[offset+1])
		recordStart := offset + 2
		recordEnd := recordStart + msgLen
		if recordEnd > len(frame) {
			return events, errs.Protocol(fmt.Errorf("truncated options frame: decoded %d/%d records", i, count)).WithRawHex(frame)
		}

		body := frame[recordStart:recordEnd]
		ev, err := decodeOptionsRecord(recType, body)
		if err != nil {
			return events, errs.Protocol(err).WithRawHex(frame)
		}
		if ev != nil {
			events = append(events, *ev)
		}

		offset = recordEnd
	}

	return events, nil
}

func decodeOptionsRecord(recType byte, body []byte) (*Event, error) {
	switch recType {
	case optionsRecordTrade:
		return decodeOptionsTrade(body)
	case optionsRecordQuote:
		return decodeOptionsQuote(body)
	case optionsRecordRefresh:
		return decodeOptionsRefresh(body)
	case optionsRecordUnusualActivity:
		return decodeOptionsUnusualActivity(body)
	default:
		// Unknown type: msgLen is self-describing so we can skip cleanly
		// without discarding the rest of the frame.
		return nil, nil
	}
}

func contractFromBytes(b []byte) string {
	if len(b) > optionsContractLen {
		b = b[:optionsContractLen]
	}
	return string(b)
}

// fixedPointToFloat32 converts a wire fixed-point int32 to a float64 by
// dividing through shopspring/decimal for exactness, returning NaN for the
// documented sentinel value.
func fixedPointToFloat32(raw int32) float64 {
	if raw == fixedPointNaN32 {
		return math.NaN()
	}
	f, _ := decimal.NewFromInt(int64(raw)).Div(fixedPointDivisor).Float64()
	return f
}

func fixedPointToFloat64(raw int64) float64 {
	if raw == int64(math.MinInt32) {
		return math.NaN()
	}
	f, _ := decimal.NewFromInt(raw).Div(fixedPointDivisor).Float64()
	return f
}

// microsToSeconds converts a wire microsecond timestamp to a float64 number
// of seconds, preserving microsecond precision.
func microsToSeconds(micros uint64) float64 {
	return float64(micros) / 1e6
}

func decodeOptionsTrade(b []byte) (*Event, error) {
	const minLen = 21 + 1 + 4 + 4 + 8 + 8 + 4 + 4 + 4 + 8
	if len(b) < minLen {
		return nil, fmt.Errorf("options trade record too short: %d bytes", len(b))
	}
	contract := contractFromBytes(b[0:21])
	exchange := b[21]
	price := int32(binary.LittleEndian.Uint32(b[22:26]))
	size := binary.LittleEndian.Uint32(b[26:30])
	timestamp := binary.LittleEndian.Uint64(b[30:38])
	totalVolume := binary.LittleEndian.Uint64(b[38:46])
	qualifiers := [4]uint8{b[46], b[47], b[48], b[49]}
	ask := int32(binary.LittleEndian.Uint32(b[50:54]))
	bid := int32(binary.LittleEndian.Uint32(b[54:58]))
	underlying := int64(binary.LittleEndian.Uint64(b[58:66]))

	ev := Event{
		Type: EventOptionsTrade,
		OptionsTrade: &OptionsTrade{
			Contract:              contract,
			Exchange:              exchange,
			Price:                 fixedPointToFloat32(price),
			Size:                  size,
			Timestamp:             microsToSeconds(timestamp),
			TotalVolume:           totalVolume,
			Qualifiers:            qualifiers,
			AskAtExecution:        fixedPointToFloat32(ask),
			BidAtExecution:        fixedPointToFloat32(bid),
			UnderlyingAtExecution: fixedPointToFloat64(underlying),
		},
	}
	return &ev, nil
}

func decodeOptionsQuote(b []byte) (*Event, error) {
	const minLen = 21 + 4 + 4 + 4 + 4 + 8
	if len(b) < minLen {
		return nil, fmt.Errorf("options quote record too short: %d bytes", len(b))
	}
	contract := contractFromBytes(b[0:21])
	ask := int32(binary.LittleEndian.Uint32(b[21:25]))
	askSize := binary.LittleEndian.Uint32(b[25:29])
	bid := int32(binary.LittleEndian.Uint32(b[29:33]))
	bidSize := binary.LittleEndian.Uint32(b[33:37])
	timestamp := binary.LittleEndian.Uint64(b[37:45])

	ev := Event{
		Type: EventOptionsQuote,
		OptionsQuote: &OptionsQuote{
			Contract:  contract,
			AskPrice:  fixedPointToFloat32(ask),
			AskSize:   askSize,
			BidPrice:  fixedPointToFloat32(bid),
			BidSize:   bidSize,
			Timestamp: microsToSeconds(timestamp),
		},
	}
	return &ev, nil
}

func decodeOptionsRefresh(b []byte) (*Event, error) {
	const minLen = 21 + 4 + 4 + 4 + 4 + 4
	if len(b) < minLen {
		return nil, fmt.Errorf("options refresh record too short: %d bytes", len(b))
	}
	contract := contractFromBytes(b[0:21])
	openInterest := binary.LittleEndian.Uint32(b[21:25])
	open := int32(binary.LittleEndian.Uint32(b[25:29]))
	closeP := int32(binary.LittleEndian.Uint32(b[29:33]))
	high := int32(binary.LittleEndian.Uint32(b[33:37]))
	low := int32(binary.LittleEndian.Uint32(b[37:41]))

	ev := Event{
		Type: EventOptionsRefresh,
		OptionsRefresh: &OptionsRefresh{
			Contract:     contract,
			OpenInterest: openInterest,
			Open:         fixedPointToFloat32(open),
			Close:        fixedPointToFloat32(closeP),
			High:         fixedPointToFloat32(high),
			Low:          fixedPointToFloat32(low),
		},
	}
	return &ev, nil
}

// unusualActivitySubtype maps the wire subtype byte to ActivityType. Per
// spec.md's Open Questions, whether 0 means "regular" or "BLOCK" is
// ambiguous in the source; this implementation treats 0 as BLOCK (the
// lowest-ordinal named subtype) and documents the decision in DESIGN.md.
func unusualActivitySubtype(b byte) ActivityType {
	switch b {
	case 0:
		return ActivityBlock
	case 1:
		return ActivitySweep
	case 2:
		return ActivityLarge
	case 3:
		return ActivityUnusualSweep
	default:
		return ActivityBlock
	}
}

func unusualActivitySentiment(b byte) Sentiment {
	switch b {
	case 0:
		return SentimentNeutral
	case 1:
		return SentimentBullish
	case 2:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

func decodeOptionsUnusualActivity(b []byte) (*Event, error) {
	const minLen = 21 + 1 + 1 + 8 + 8 + 4 + 4 + 4 + 8 + 8
	if len(b) < minLen {
		return nil, fmt.Errorf("options unusual activity record too short: %d bytes", len(b))
	}
	contract := contractFromBytes(b[0:21])
	subtype := b[21]
	sentimentByte := b[22]
	totalValue := int64(binary.LittleEndian.Uint64(b[23:31]))
	totalSize := binary.LittleEndian.Uint64(b[31:39])
	avgPrice := int32(binary.LittleEndian.Uint32(b[39:43]))
	ask := int32(binary.LittleEndian.Uint32(b[43:47]))
	bid := int32(binary.LittleEndian.Uint32(b[47:51]))
	underlying := int64(binary.LittleEndian.Uint64(b[51:59]))
	timestamp := binary.LittleEndian.Uint64(b[59:67])

	ev := Event{
		Type: EventOptionsUnusualActivity,
		OptionsUnusualActivity: &OptionsUnusualActivity{
			Contract:              contract,
			ActivityType:          unusualActivitySubtype(subtype),
			Sentiment:             unusualActivitySentiment(sentimentByte),
			TotalValue:            fixedPointToFloat64(totalValue),
			TotalSize:             totalSize,
			AveragePrice:          fixedPointToFloat32(avgPrice),
			AskAtExecution:        fixedPointToFloat32(ask),
			BidAtExecution:        fixedPointToFloat32(bid),
			UnderlyingAtExecution: fixedPointToFloat64(underlying),
			Timestamp:             microsToSeconds(timestamp),
		},
	}
	return &ev, nil
}
