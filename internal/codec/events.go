//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package codec decodes the vendor's binary framing protocol into typed
// domain events: equities trades/quotes and options trades/quotes/refreshes/
// unusual-activity. It never panics on malformed input; callers get a
// ProtocolError on the side and the decoder keeps going on the next frame.
package codec

import "github.com/cloudmanic/realtime-go/internal/provider"

// EventType tags the concrete payload carried by an Event.
type EventType int

const (
	EventEquitiesTrade EventType = iota
	EventEquitiesQuote
	EventOptionsTrade
	EventOptionsQuote
	EventOptionsRefresh
	EventOptionsUnusualActivity
	EventRaw // bypassParsing mode: undecoded frame bytes
)

// QuoteType distinguishes ask vs. bid for an EquitiesQuote.
type QuoteType int

const (
	QuoteAsk QuoteType = iota
	QuoteBid
)

// ActivityType is the vendor-detected unusual-activity classification.
type ActivityType int

const (
	ActivityBlock ActivityType = iota
	ActivitySweep
	ActivityLarge
	ActivityUnusualSweep
)

// Sentiment is the directional read attached to an unusual-activity event.
type Sentiment int

const (
	SentimentNeutral Sentiment = iota
	SentimentBullish
	SentimentBearish
)

// EquitiesTrade is a single print on an equities symbol.
type EquitiesTrade struct {
	Symbol       string
	Price        float64
	Size         uint32
	TotalVolume  uint32
	Timestamp    int64 // nanoseconds
	Subprovider  provider.Subprovider
	MarketCenter string // 1 char
	Condition    string // trimmed
}

// EquitiesQuote is a single NBBO-side update on an equities symbol.
type EquitiesQuote struct {
	Symbol       string
	Type         QuoteType
	Price        float64
	Size         uint32
	Timestamp    int64 // nanoseconds
	Subprovider  provider.Subprovider
	MarketCenter string
	Condition    string
}

// OptionsTrade is a single print on an OPRA options contract.
type OptionsTrade struct {
	Contract        string // 21 chars, '_'-padded
	Exchange        uint8
	Price           float64
	Size            uint32
	Timestamp       float64 // seconds, microsecond precision
	TotalVolume     uint64
	Qualifiers      [4]uint8
	AskAtExecution  float64
	BidAtExecution  float64
	UnderlyingAtExecution float64
}

// OptionsQuote is a single NBBO update on an OPRA options contract.
type OptionsQuote struct {
	Contract  string
	AskPrice  float64
	AskSize   uint32
	BidPrice  float64
	BidSize   uint32
	Timestamp float64
}

// OptionsRefresh is a periodic open-interest/OHLC snapshot, not a tick.
type OptionsRefresh struct {
	Contract     string
	OpenInterest uint32
	Open         float64
	Close        float64
	High         float64
	Low          float64
}

// OptionsUnusualActivity is a vendor-detected block/sweep/large/unusual-sweep
// event.
type OptionsUnusualActivity struct {
	Contract        string
	ActivityType    ActivityType
	Sentiment       Sentiment
	TotalValue      float64
	TotalSize       uint64
	AveragePrice    float64
	AskAtExecution  float64
	BidAtExecution  float64
	UnderlyingAtExecution float64
	Timestamp       float64
}

// Event is a tagged union carrying exactly one of the typed payloads above,
// or a raw frame slice when bypassParsing is enabled.
type Event struct {
	Type             EventType
	EquitiesTrade    *EquitiesTrade
	EquitiesQuote    *EquitiesQuote
	OptionsTrade     *OptionsTrade
	OptionsQuote     *OptionsQuote
	OptionsRefresh   *OptionsRefresh
	OptionsUnusualActivity *OptionsUnusualActivity
	Raw              []byte
}
