package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Stats represents the stats API response.
type Stats struct {
	DocumentCount int    `json:"document_count"`
	ChunkCount    int    `json:"chunk_count"`
	Backend       string `json:"backend"`
	Dimension     int    `json:"dimension"`
	Enabled       bool   `json:"enabled"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, outputJSON)
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/stats")
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Documents: %d\n", stats.DocumentCount)
	fmt.Printf("Chunks: %d\n", stats.ChunkCount)
	fmt.Printf("Backend: %s (dimension %d)\n", stats.Backend, stats.Dimension)
	fmt.Printf("Retrieval enabled: %t\n", stats.Enabled)

	return nil
}
