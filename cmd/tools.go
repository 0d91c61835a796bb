package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the advisory capabilities the backend offers",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := buildClient()
		tools, err := client.ListTools()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("The advisor can help with:")
		for _, tool := range tools.Tools {
			fmt.Printf("  • %s\n", strings.ReplaceAll(tool, "_", " "))
		}
		if tools.Description != "" {
			fmt.Printf("\n%s\n", tools.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
