package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DocumentListResponse represents the list API response.
type DocumentListResponse struct {
	Items []Document `json:"items"`
	Count int        `json:"count"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Long:  "Lists every document in the knowledge base, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents")
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp DocumentListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Printf("Found %d documents:\n\n", listResp.Count)
	for i, doc := range listResp.Items {
		fmt.Printf("%d. %s [%s]\n", i+1, doc.Name, doc.SourceType)
		if doc.CollectionKey != "" {
			fmt.Printf("   Collection: %s\n", doc.CollectionKey)
		}
		fmt.Printf("   Chunks: %d, Size: %d bytes\n", doc.ChunkCount, doc.SizeBytes)
		fmt.Printf("   ID: %s\n", doc.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
