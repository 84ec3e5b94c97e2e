//
// Date: 2026-02-14
// Copyright (c) 2026. All rights reserved.
//

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudmanic/realtime-go/internal/codec"
	"github.com/cloudmanic/realtime-go/internal/config"
	"github.com/cloudmanic/realtime-go/internal/provider"
	"github.com/cloudmanic/realtime-go/internal/replay"
)

const defaultCaptureEndpointTemplate = "https://replay.intrinio.com/capture/{subprovider}/{date}"

var (
	replayProvider           string
	replaySubproviders       []string
	replayDate               string
	replayWithSimulatedDelay bool
	replayWriteCSV           bool
	replayCSVPath            string
	replayDeleteWhenDone     bool
	replayBypassParsing      bool

	replayStoreKind  string
	replayS3Endpoint string
	replayS3Bucket   string
	replayS3Access   string
	replayS3Secret   string
)

// replayCmd replays a previously captured trading session through the same
// decode/emit path live mode uses.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a captured trading session",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, err := config.GetAPIKey()
		if err != nil {
			return err
		}

		prov := provider.Provider(strings.ToUpper(replayProvider))
		if prov == "" {
			return fmt.Errorf("--provider is required")
		}
		if replayDate == "" {
			return fmt.Errorf("--date is required")
		}

		var decoder codec.FrameDecoder
		isOptions := prov == provider.OPRA || prov == provider.Manual
		if isOptions {
			decoder = &codec.OptionsDecoder{}
		} else {
			decoder = &codec.EquitiesDecoder{}
		}

		var store replay.CaptureFileStore
		switch strings.ToLower(replayStoreKind) {
		case "", "http":
			store = replay.NewHTTPStore(apiKey, defaultCaptureEndpointTemplate)
		case "s3":
			if replayS3Bucket == "" || replayS3Endpoint == "" {
				return fmt.Errorf("--s3-bucket and --s3-endpoint are required when --store=s3")
			}
			store = replay.NewS3Store(replayS3Access, replayS3Secret, replayS3Endpoint, replayS3Bucket)
		default:
			return fmt.Errorf("unknown --store %q, expected http or s3", replayStoreKind)
		}

		cfg := replay.Config{
			Provider:           string(prov),
			Subproviders:       replaySubproviders,
			Date:               replayDate,
			WithSimulatedDelay: replayWithSimulatedDelay,
			WriteCSV:           replayWriteCSV,
			CSVPath:            replayCSVPath,
			DeleteWhenDone:     replayDeleteWhenDone,
			BypassParsing:      replayBypassParsing,
			Store:              store,
			Decoder:            decoder,
			Emit: func(ev codec.Event) {
				printTrade(ev)
				printQuote(ev)
				printRefresh(ev)
				printUnusualActivity(ev)
			},
			EmitRaw: func(frame []byte) {
				fmt.Printf("RAW %d bytes\n", len(frame))
			},
			Logger: slog.Default(),
		}

		engine := replay.New(cfg)
		return engine.Run(cmd.Context())
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayProvider, "provider", "", "Provider whose capture files to replay (required)")
	replayCmd.Flags().StringSliceVar(&replaySubproviders, "subprovider", nil, "Sub-provider(s) to replay, repeatable")
	replayCmd.Flags().StringVar(&replayDate, "date", "", "Capture date, YYYY-MM-DD (required)")
	replayCmd.Flags().BoolVar(&replayWithSimulatedDelay, "simulated-delay", false, "Pace emission to match the original recording's wall-clock gaps")
	replayCmd.Flags().BoolVar(&replayWriteCSV, "write-csv", false, "Append each replayed event to --csv-path")
	replayCmd.Flags().StringVar(&replayCSVPath, "csv-path", "", "CSV output path, required when --write-csv is set")
	replayCmd.Flags().BoolVar(&replayDeleteWhenDone, "delete-when-done", false, "Delete downloaded capture files after replay finishes")
	replayCmd.Flags().BoolVar(&replayBypassParsing, "bypass-parsing", false, "Emit raw frame bytes instead of decoded events")

	replayCmd.Flags().StringVar(&replayStoreKind, "store", "http", "Capture file backend: http (default) or s3")
	replayCmd.Flags().StringVar(&replayS3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL, required when --store=s3")
	replayCmd.Flags().StringVar(&replayS3Bucket, "s3-bucket", "", "S3 bucket holding capture files, required when --store=s3")
	replayCmd.Flags().StringVar(&replayS3Access, "s3-access-key", "", "S3 access key, when --store=s3")
	replayCmd.Flags().StringVar(&replayS3Secret, "s3-secret-key", "", "S3 secret key, when --store=s3")

	rootCmd.AddCommand(replayCmd)
}
