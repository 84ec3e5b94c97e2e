//
// Date: 2026-02-14
// Copyright (c) 2026. All rights reserved.
//

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudmanic/realtime-go/internal/client"
	"github.com/cloudmanic/realtime-go/internal/codec"
	"github.com/cloudmanic/realtime-go/internal/config"
	"github.com/cloudmanic/realtime-go/internal/provider"
)

// streamCmd is the parent command for live equities/options streaming.
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream real-time market data",
}

var (
	streamProvider string
	streamDelayed  bool
	streamThreads  int
	streamManualIP string
)

// streamEquitiesCmd streams real-time equities trades and quotes for one
// or more symbols, or the whole firehose with --all.
var streamEquitiesCmd = &cobra.Command{
	Use:   "equities [symbols...]",
	Short: "Stream real-time equities trades and quotes",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return runStream(cmd, args, all, false)
	},
}

// streamOptionsCmd streams real-time options trades, quotes, refreshes, and
// unusual activity for one or more OPRA contracts, or the whole firehose
// with --all.
var streamOptionsCmd = &cobra.Command{
	Use:   "options [contracts...]",
	Short: "Stream real-time options trades, quotes, and unusual activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return runStream(cmd, args, all, true)
	},
}

func runStream(cmd *cobra.Command, symbols []string, all, isOptions bool) error {
	apiKey, err := config.GetAPIKey()
	if err != nil {
		return err
	}

	prov := provider.Provider(strings.ToUpper(streamProvider))
	if prov == "" {
		if isOptions {
			prov = provider.OPRA
		} else {
			prov = provider.Realtime
		}
	}

	threads := streamThreads
	if threads == 0 {
		threads = 2
		if isOptions {
			threads = 4
		}
	}

	cfg := &config.Config{
		APIKey:          apiKey,
		Provider:        prov,
		Delayed:         streamDelayed,
		NumThreads:      threads,
		ManualIPAddress: streamManualIP,
		Symbols:         symbols,
	}

	c, err := client.New(cfg, printTrade, printQuote)
	if err != nil {
		return fmt.Errorf("failed to construct client: %w", err)
	}
	c.SetOnRefresh(printRefresh)
	c.SetOnUnusualActivity(printUnusualActivity)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start client: %w", err)
	}

	if all {
		c.JoinFirehose()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "shutting down...")
			c.Stop()
			return nil
		case <-ticker.C:
			s := c.GetStats()
			fmt.Fprintf(os.Stderr, "stats: data=%d text=%d depth=%d dropped=%d malformed=%d\n",
				s.DataMessages, s.TextMessages, s.QueueDepth, s.DroppedFrames, s.Malformed)
		}
	}
}

func printTrade(ev codec.Event) {
	switch ev.Type {
	case codec.EventEquitiesTrade:
		t := ev.EquitiesTrade
		if outputFormat == "json" {
			printJSON(t)
			return
		}
		fmt.Printf("TRADE  %-8s price=%.4f size=%d ts=%d\n", t.Symbol, t.Price, t.Size, t.Timestamp)
	case codec.EventOptionsTrade:
		t := ev.OptionsTrade
		if outputFormat == "json" {
			printJSON(t)
			return
		}
		fmt.Printf("TRADE  %-21s price=%.4f size=%d ts=%.6f\n", t.Contract, t.Price, t.Size, t.Timestamp)
	}
}

func printQuote(ev codec.Event) {
	switch ev.Type {
	case codec.EventEquitiesQuote:
		q := ev.EquitiesQuote
		if outputFormat == "json" {
			printJSON(q)
			return
		}
		fmt.Printf("QUOTE  %-8s price=%.4f size=%d ts=%d\n", q.Symbol, q.Price, q.Size, q.Timestamp)
	case codec.EventOptionsQuote:
		q := ev.OptionsQuote
		if outputFormat == "json" {
			printJSON(q)
			return
		}
		fmt.Printf("QUOTE  %-21s ask=%.4f/%d bid=%.4f/%d ts=%.6f\n", q.Contract, q.AskPrice, q.AskSize, q.BidPrice, q.BidSize, q.Timestamp)
	}
}

func printRefresh(ev codec.Event) {
	r := ev.OptionsRefresh
	if r == nil {
		return
	}
	if outputFormat == "json" {
		printJSON(r)
		return
	}
	fmt.Printf("REFRESH %-21s oi=%d open=%.4f close=%.4f high=%.4f low=%.4f\n", r.Contract, r.OpenInterest, r.Open, r.Close, r.High, r.Low)
}

func printUnusualActivity(ev codec.Event) {
	u := ev.OptionsUnusualActivity
	if u == nil {
		return
	}
	if outputFormat == "json" {
		printJSON(u)
		return
	}
	fmt.Printf("UA      %-21s size=%d avgPrice=%.4f\n", u.Contract, u.TotalSize, u.AveragePrice)
}

func init() {
	streamCmd.PersistentFlags().StringVar(&streamProvider, "provider", "", "Provider (REALTIME, IEX, DELAYED_SIP, NASDAQ_BASIC, CBOE_ONE, OPRA, MANUAL)")
	streamCmd.PersistentFlags().BoolVar(&streamDelayed, "delayed", false, "Use the delayed feed variant")
	streamCmd.PersistentFlags().IntVar(&streamThreads, "threads", 0, "Worker thread count (defaults to the per-asset floor)")
	streamCmd.PersistentFlags().StringVar(&streamManualIP, "manual-ip", "", "Manual socket host, required for provider MANUAL")

	streamEquitiesCmd.Flags().Bool("all", false, "Subscribe to the full firehose instead of specific symbols")
	streamOptionsCmd.Flags().Bool("all", false, "Subscribe to the full firehose instead of specific contracts")

	streamCmd.AddCommand(streamEquitiesCmd)
	streamCmd.AddCommand(streamOptionsCmd)
	rootCmd.AddCommand(streamCmd)
}
