//
// Date: 2026-02-14
// Copyright (c) 2026. All rights reserved.
//

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudmanic/realtime-go/internal/config"
	"github.com/cloudmanic/realtime-go/internal/provider"
	"github.com/spf13/cobra"
)

// configCmd is the parent command for all configuration-related subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage realtime CLI configuration",
}

// configInitCmd initializes the CLI configuration by prompting for an API
// key, provider, and thread count. The configuration is saved to
// ~/.config/realtime-go/config.json.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration with your API key and provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}

		reader := bufio.NewReader(os.Stdin)

		envKey := os.Getenv("INTRINIO_API_KEY")
		if envKey != "" {
			fmt.Print("Found API key in environment variable. Use it? [Y/n]: ")
			answer, _ := reader.ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer == "" || answer == "y" || answer == "yes" {
				cfg.APIKey = envKey
			}
		}

		if cfg.APIKey == "" {
			fmt.Print("Enter your Intrinio API key: ")
			key, _ := reader.ReadString('\n')
			cfg.APIKey = strings.TrimSpace(key)
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		fmt.Print("Provider (REALTIME, IEX, DELAYED_SIP, NASDAQ_BASIC, CBOE_ONE, OPRA, MANUAL): ")
		provAnswer, _ := reader.ReadString('\n')
		cfg.Provider = provider.Provider(strings.ToUpper(strings.TrimSpace(provAnswer)))
		if cfg.Provider == "" {
			cfg.Provider = provider.Realtime
		}

		if cfg.Provider == provider.Manual {
			fmt.Print("Manual IP address: ")
			ip, _ := reader.ReadString('\n')
			cfg.ManualIPAddress = strings.TrimSpace(ip)
		}

		fmt.Printf("Number of worker threads [%d]: ", cfg.NumThreads)
		threadsAnswer, _ := reader.ReadString('\n')
		threadsAnswer = strings.TrimSpace(threadsAnswer)
		if threadsAnswer != "" {
			if n, convErr := strconv.Atoi(threadsAnswer); convErr == nil {
				cfg.NumThreads = n
			}
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Println("Configuration saved to ~/.config/realtime-go/config.json")
		return nil
	},
}

// configShowCmd displays the current configuration with the API key
// partially masked for security.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Printf("Provider:       %s\n", cfg.Provider)
		fmt.Printf("Delayed:        %t\n", cfg.Delayed)
		fmt.Printf("API Key:        %s\n", maskString(cfg.APIKey))
		fmt.Printf("Num Threads:    %d\n", cfg.NumThreads)
		fmt.Printf("Max Queue Size: %d\n", cfg.MaxQueueSize)
		fmt.Printf("Symbols:        %s\n", strings.Join(cfg.Symbols, ", "))

		return nil
	},
}

// maskString replaces all but the last 4 characters of s with asterisks,
// for safe display of API keys.
func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// init registers the config subcommands with the root command.
func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
