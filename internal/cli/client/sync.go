package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SyncResult represents the sync API response.
type SyncResult struct {
	NewCount      int      `json:"new_count"`
	UpdateCount   int      `json:"update_count"`
	SkipCount     int      `json:"skip_count"`
	EmptyCount    int      `json:"empty_count"`
	ChunksWritten int      `json:"chunks_written"`
	FailedPages   []string `json:"failed_pages,omitempty"`
}

// SyncCmd creates the sync command.
func SyncCmd() *cobra.Command {
	var name string
	var pageIDs []string

	cmd := &cobra.Command{
		Use:   "sync <collection-key>",
		Short: "Sync a wiki collection into the knowledge base",
		Long:  "Fetches every page of the collection and ingests new or changed ones. With --pages, only the listed page ids are fetched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSync(cmd, args[0], name, pageIDs, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "collection-name", "", "Display name for the collection (defaults to the key)")
	cmd.Flags().StringSliceVar(&pageIDs, "pages", nil, "Restrict the sync to these page ids (comma-separated or repeated)")

	return cmd
}

func runSync(cmd *cobra.Command, key, name string, pageIDs []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	if len(pageIDs) > 0 {
		body["page_ids"] = pageIDs
	}

	resp, err := api.Post(fmt.Sprintf("/collections/%s/sync", key), body)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	var result SyncResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Synced collection %s:\n", key)
	fmt.Printf("  New: %d\n", result.NewCount)
	fmt.Printf("  Updated: %d\n", result.UpdateCount)
	fmt.Printf("  Skipped: %d\n", result.SkipCount)
	fmt.Printf("  Empty: %d\n", result.EmptyCount)
	fmt.Printf("  Chunks written: %d\n", result.ChunksWritten)
	if len(result.FailedPages) > 0 {
		fmt.Printf("  Failed pages (%d):\n", len(result.FailedPages))
		for _, page := range result.FailedPages {
			fmt.Printf("    - %s\n", page)
		}
	}

	return nil
}
