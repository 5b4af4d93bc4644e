package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get document metadata by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			archive, _ := cmd.Flags().GetBool("archive")
			if archive {
				return runGetArchive(cmd, args[0])
			}
			return runGet(cmd, args[0], outputJSON)
		},
	}

	cmd.Flags().Bool("archive", false, "Print a download URL for the archived original instead of metadata")

	return cmd
}

func runGetArchive(cmd *cobra.Command, id string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/documents/%s/archive", id))
	if err != nil {
		return fmt.Errorf("failed to get archive URL: %w", err)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Println(result.URL)
	return nil
}

func runGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/documents/%s", id))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("ID: %s\n", doc.ID)
	fmt.Printf("Name: %s\n", doc.Name)
	fmt.Printf("Source: %s\n", doc.SourceType)
	fmt.Printf("Size: %d bytes\n", doc.SizeBytes)
	fmt.Printf("Chunks: %d\n", doc.ChunkCount)
	if doc.CollectionKey != "" {
		fmt.Printf("Collection: %s (%s)\n", doc.CollectionName, doc.CollectionKey)
	}
	if doc.SourceURL != "" {
		fmt.Printf("URL: %s\n", doc.SourceURL)
	}
	fmt.Printf("Created: %s\n", doc.CreatedAt)

	return nil
}
