//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/cloudmanic/realtime-go/internal/codec"
)

// csvHeader is the documented schema from spec.md §6.
var csvHeader = []string{"type", "symbol", "price", "size", "timestamp", "extra1", "extra2", "extra3", "extra4"}

// csvWriter appends one row per event to csvPath, writing the header once
// on creation.
type csvWriter struct {
	f *os.File
	w *csv.Writer
}

func newCSVWriter(path string) (*csvWriter, error) {
	_, err := os.Stat(path)
	needsHeader := os.IsNotExist(err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open CSV file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.Flush()
	}

	return &csvWriter{f: f, w: w}, nil
}

// WriteEvent appends one row for ev, following the schema: the first five
// columns are common (type, symbol, price, size, timestamp), extended with
// subprovider/market_center/condition for equities and
// underlying/ask/bid/qualifiers for options trades. Options quotes put the
// ask in price/size and bid price/size in extra1/extra2; refreshes put open
// in price, open interest in size, no timestamp, and close/high/low in
// extra1-extra3; unusual activity puts average price and total size in
// price/size and underlying/ask/bid in extra1-extra3.
func (c *csvWriter) WriteEvent(ev codec.Event) error {
	row := eventToRow(ev)
	if row == nil {
		return nil
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write CSV row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

func eventToRow(ev codec.Event) []string {
	switch ev.Type {
	case codec.EventEquitiesTrade:
		t := ev.EquitiesTrade
		return []string{
			"trade", t.Symbol,
			fmt.Sprintf("%g", t.Price), fmt.Sprintf("%d", t.Size), fmt.Sprintf("%d", t.Timestamp),
			string(t.Subprovider), t.MarketCenter, t.Condition, "",
		}
	case codec.EventEquitiesQuote:
		q := ev.EquitiesQuote
		return []string{
			"quote", q.Symbol,
			fmt.Sprintf("%g", q.Price), fmt.Sprintf("%d", q.Size), fmt.Sprintf("%d", q.Timestamp),
			string(q.Subprovider), q.MarketCenter, q.Condition, "",
		}
	case codec.EventOptionsTrade:
		t := ev.OptionsTrade
		return []string{
			"options_trade", t.Contract,
			fmt.Sprintf("%g", t.Price), fmt.Sprintf("%d", t.Size), fmt.Sprintf("%g", t.Timestamp),
			fmt.Sprintf("%g", t.UnderlyingAtExecution), fmt.Sprintf("%g", t.AskAtExecution), fmt.Sprintf("%g", t.BidAtExecution),
			fmt.Sprintf("%q", t.Qualifiers),
		}
	case codec.EventOptionsQuote:
		q := ev.OptionsQuote
		return []string{
			"options_quote", q.Contract,
			fmt.Sprintf("%g", q.AskPrice), fmt.Sprintf("%d", q.AskSize), fmt.Sprintf("%g", q.Timestamp),
			fmt.Sprintf("%g", q.BidPrice), fmt.Sprintf("%d", q.BidSize), "", "",
		}
	case codec.EventOptionsRefresh:
		r := ev.OptionsRefresh
		return []string{
			"options_refresh", r.Contract,
			fmt.Sprintf("%g", r.Open), fmt.Sprintf("%d", r.OpenInterest), "",
			fmt.Sprintf("%g", r.Close), fmt.Sprintf("%g", r.High), fmt.Sprintf("%g", r.Low), "",
		}
	case codec.EventOptionsUnusualActivity:
		u := ev.OptionsUnusualActivity
		return []string{
			"options_unusual_activity", u.Contract,
			fmt.Sprintf("%g", u.AveragePrice), fmt.Sprintf("%d", u.TotalSize), fmt.Sprintf("%g", u.Timestamp),
			fmt.Sprintf("%g", u.UnderlyingAtExecution), fmt.Sprintf("%g", u.AskAtExecution), fmt.Sprintf("%g", u.BidAtExecution), "",
		}
	default:
		return nil
	}
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.f.Close()
}
