//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cloudmanic/realtime-go/internal/errs"
	"github.com/cloudmanic/realtime-go/internal/provider"
)

// Equities record types, per the on-the-wire layout in §4.3.
const (
	equitiesRecordTrade     = 0
	equitiesRecordAskQuote  = 1
	equitiesRecordBidQuote  = 2
)

// equitiesTradeTailLen and equitiesQuoteTailLen are the byte lengths of a
// trade and a quote record after the symbol; both start with price(4) +
// size(4) + timestamp(8), and only trades carry total_volume(4), see
// decodeEquitiesRecord.
const (
	equitiesTradeTailLen = 4 + 4 + 8 + 4 + 1 + 2 + 8 // price,size,ts,total_volume,subprovider,market_center,condition
	equitiesQuoteTailLen = 4 + 4 + 8 + 1 + 2 + 8      // price,size,ts,subprovider,market_center,condition
)

// EquitiesDecoder decodes equities binary frames into EquitiesTrade/
// EquitiesQuote events.
type EquitiesDecoder struct{}

// NewEquitiesDecoder constructs an EquitiesDecoder.
func NewEquitiesDecoder() *EquitiesDecoder {
	return &EquitiesDecoder{}
}

// Decode parses a multi-message equities binary frame: byte 0 is the message
// count M, followed by M back-to-back variable-length records. A truncated
// frame yields every record decoded so far plus a single ProtocolError; it
// never panics.
func (d *EquitiesDecoder) Decode(frame []byte) ([]Event, error) {
	if len(frame) == 0 {
		return nil, errs.Protocol(fmt.Errorf("empty frame")).WithRawHex(frame)
	}

	count := int(frame[0])
	offset := 1
	events := make([]Event, 0, count)

	for i := 0; i < count; i++ {
		ev, consumed, ok := decodeEquitiesRecord(frame[offset:])
		if !ok {
			return events, errs.Protocol(fmt.Errorf("truncated equities frame: decoded %d/%d records", i, count)).WithRawHex(frame)
		}
		offset += consumed
		if ev != nil {
			events = append(events, *ev)
		}
	}

	return events, nil
}

// decodeEquitiesRecord decodes a single equities record starting at buf[0].
// Returns the decoded event (nil if the record was discarded, e.g. symbol
// length 0 or unknown type), the number of bytes consumed, and whether
// decoding succeeded at all (false on overrun).
func decodeEquitiesRecord(buf []byte) (*Event, int, bool) {
	if len(buf) < 2 {
		return nil, 0, false
	}

	recType := buf[0]
	symLen := int(buf[1])
	headerLen := 2 + symLen

	if symLen == 0 {
		// Discard: cannot determine record length without a type-specific
		// tail, but equities tails are fixed per type, so we can still skip.
		switch recType {
		case equitiesRecordTrade:
			total := headerLen + equitiesTradeTailLen
			if len(buf) < total {
				return nil, 0, false
			}
			return nil, total, true
		case equitiesRecordAskQuote, equitiesRecordBidQuote:
			total := headerLen + equitiesQuoteTailLen
			if len(buf) < total {
				return nil, 0, false
			}
			return nil, total, true
		default:
			// Type unknown and length undeterminable: equities length is not
			// self-describing, so we must drop the rest of the frame.
			return nil, 0, false
		}
	}

	if len(buf) < headerLen {
		return nil, 0, false
	}
	symbol := string(buf[2:headerLen])

	switch recType {
	case equitiesRecordTrade:
		total := headerLen + equitiesTradeTailLen
		if len(buf) < total {
			return nil, 0, false
		}
		tail := buf[headerLen:total]
		priceF32 := math.Float32frombits(binary.LittleEndian.Uint32(tail[0:4]))
		size := binary.LittleEndian.Uint32(tail[4:8])
		timestamp := int64(binary.LittleEndian.Uint64(tail[8:16]))
		totalVolume := binary.LittleEndian.Uint32(tail[16:20])
		subprovider := tail[20]
		marketCenter := decodeMarketCenter(tail[21:23])
		condition := strings.TrimRight(string(tail[23:31]), " \x00")

		ev := Event{
			Type: EventEquitiesTrade,
			EquitiesTrade: &EquitiesTrade{
				Symbol:       symbol,
				Price:        float64(priceF32),
				Size:         size,
				TotalVolume:  totalVolume,
				Timestamp:    timestamp,
				Subprovider:  subproviderFromByte(subprovider),
				MarketCenter: marketCenter,
				Condition:    condition,
			},
		}
		return &ev, total, true

	case equitiesRecordAskQuote, equitiesRecordBidQuote:
		total := headerLen + equitiesQuoteTailLen
		if len(buf) < total {
			return nil, 0, false
		}
		tail := buf[headerLen:total]
		priceF32 := math.Float32frombits(binary.LittleEndian.Uint32(tail[0:4]))
		size := binary.LittleEndian.Uint32(tail[4:8])
		timestamp := int64(binary.LittleEndian.Uint64(tail[8:16]))
		subprovider := tail[16]
		marketCenter := decodeMarketCenter(tail[17:19])
		condition := strings.TrimRight(string(tail[19:27]), " \x00")

		qt := QuoteAsk
		if recType == equitiesRecordBidQuote {
			qt = QuoteBid
		}

		ev := Event{
			Type: EventEquitiesQuote,
			EquitiesQuote: &EquitiesQuote{
				Symbol:       symbol,
				Type:         qt,
				Price:        float64(priceF32),
				Size:         size,
				Timestamp:    timestamp,
				Subprovider:  subproviderFromByte(subprovider),
				MarketCenter: marketCenter,
				Condition:    condition,
			},
		}
		return &ev, total, true

	default:
		// Unknown type: equities record length is not self-describing once
		// type is unrecognized, so the remainder of the frame is dropped.
		return nil, 0, false
	}
}

// decodeMarketCenter renders the little-endian uint16 market-center field as
// a single ASCII character, per §4.3.
func decodeMarketCenter(b []byte) string {
	v := binary.LittleEndian.Uint16(b)
	return string(rune(v & 0xFF))
}

// subproviderByOrdinal maps the ordinal the wire protocol uses for subprovider
// tagging, reconstructed from the source SDK's enum ordering.
var subproviderByOrdinal = []provider.Subprovider{
	provider.NoSubprovider,
	provider.SubproviderCTAA,
	provider.SubproviderCTAB,
	provider.SubproviderUTP,
	provider.SubproviderOTC,
	provider.SubproviderNasdaqBasic,
	provider.SubproviderIEX,
	provider.SubproviderCBOEOne,
}

func subproviderFromByte(b byte) provider.Subprovider {
	if int(b) < len(subproviderByOrdinal) {
		return subproviderByOrdinal[b]
	}
	return provider.NoSubprovider
}
