package main

import (
	"fmt"
	"os"

	"github.com/loreline-ai/loreline/internal/cli"
	"github.com/loreline-ai/loreline/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "loreline",
		Short: "Loreline CLI - Retrieval-augmented context for AI agents",
		Long: `Loreline CLI provides commands to manage documents and run retrieval queries.

Environment variables:
  LORELINE_API_TOKEN   API token for authentication (optional if server runs without auth)
  LORELINE_API_URL     API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-token", "", "API token for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.AugmentCmd())
	rootCmd.AddCommand(client.SyncCmd())
	rootCmd.AddCommand(client.SpacesCmd())
	rootCmd.AddCommand(client.PagesCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.EnableCmd())
	rootCmd.AddCommand(client.DisableCmd())
	rootCmd.AddCommand(client.BackendCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
