package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	debug          bool
	serverURL      string
	requestTimeout time.Duration
	overrideCwd    string
)

var rootCmd = &cobra.Command{
	Use:   "fundchat",
	Short: "Fundchat CLI - chat with your financial advisory assistant",
	Long: `Fundchat CLI is a terminal client for the asset-management advisory
chatbot. It renders fund comparisons, performance charts, portfolio
allocations, a risk-profile quiz, and consultation forms directly in
your terminal.

Getting started:
  # Open the interactive chat panel
  fundchat

  # Send a one-time question
  fundchat chat "Which funds suit a low risk profile?"

  # Check whether the advisory backend is reachable
  fundchat status`,

	Run: func(cmd *cobra.Command, args []string) {
		// No subcommand: open the interactive chat panel.
		runChatTUI()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flags are parsed at this point; honor --debug
		if debug {
			InitDebugLogger("")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Advisory backend URL (default: http://localhost:8022)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 0, "Request timeout for backend calls (e.g. 15s, 1m)")
	rootCmd.PersistentFlags().StringVar(&overrideCwd, "cwd", "", "Override the current working directory for CLI operations")
}

// getDataDir returns the directory to store fundchat data.
var getDataDir = func() (string, error) {
	dataDir := os.Getenv("FUNDCHAT_DATA_DIR")
	if dataDir != "" {
		return dataDir, nil
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".fundchat"), nil
	} else {
		return "", fmt.Errorf("getDataDir: could not determine home directory: %w", err)
	}
}

// getEffectiveCWD returns the directory to treat as the working directory.
// If the global --cwd flag is provided, it returns its absolute path; otherwise os.Getwd().
func getEffectiveCWD() string {
	if strings.TrimSpace(overrideCwd) != "" {
		if filepath.IsAbs(overrideCwd) {
			return overrideCwd
		}
		abs, err := filepath.Abs(overrideCwd)
		if err != nil {
			return "."
		}
		return abs
	}

	wd, _ := os.Getwd()
	if wd == "" {
		return "."
	}

	return wd
}
