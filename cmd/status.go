package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the advisory backend is reachable",
	Run: func(cmd *cobra.Command, args []string) {
		client, cfg := buildClient()

		health, err := client.CheckHealth()
		if err != nil {
			fmt.Printf("Backend: %s\nStatus:  ✗ offline (%v)\n", cfg.URL, err)
			os.Exit(1)
		}

		fmt.Printf("Backend: %s\nStatus:  ● %s\n", cfg.URL, health.Status)
		if health.Version != "" {
			fmt.Printf("Version: %s\n", health.Version)
		}
		if ok, reason := checkServerCompatibility(health.Version, cfg.MinServerVersion); !ok {
			fmt.Printf("Warning: %s\n", reason)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
