package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Context string `json:"context"`
}

// SourceDetail is one per-document attribution entry.
type SourceDetail struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// DetailedSearchResponse represents the detailed search API response.
type DetailedSearchResponse struct {
	Context string         `json:"context"`
	Sources []SourceDetail `json:"sources"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long:  "Searches stored documents by semantic similarity and prints the assembled context.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], details, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "Include per-document source attribution")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, details, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if details {
		resp, err := api.Post("/search/details", SearchRequest{Query: query})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		var result DetailedSearchResponse
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return fmt.Errorf("failed to parse search results: %w", err)
		}

		if outputJSON {
			output, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(output))
			return nil
		}

		if result.Context == "" {
			fmt.Println("No results found.")
			return nil
		}
		fmt.Println(result.Context)
		if len(result.Sources) > 0 {
			fmt.Println("Sources:")
			for _, src := range result.Sources {
				fmt.Printf("  %s (%.0f%%) - %s\n", src.Name, src.Similarity*100, src.DocumentID)
			}
		}
		return nil
	}

	resp, err := api.Post("/search", SearchRequest{Query: query})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var result SearchResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if result.Context == "" {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Println(result.Context)

	return nil
}
