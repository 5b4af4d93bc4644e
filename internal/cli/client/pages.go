package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// PageNode is one node of the server's page tree as returned by the API.
type PageNode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	HasChildren bool   `json:"has_children"`
	Selected    bool   `json:"selected"`
}

// PageTreeResponse mirrors the tree endpoint payload.
type PageTreeResponse struct {
	SpaceKey string      `json:"space_key"`
	Roots    []string    `json:"roots"`
	Nodes    []*PageNode `json:"nodes"`
}

// PagesCmd creates the pages command.
func PagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages <space-key>",
		Short: "List the top-level pages of a wiki space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runPages(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runPages(cmd *cobra.Command, spaceKey string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/spaces/"+url.PathEscape(spaceKey)+"/tree", nil)
	if err != nil {
		return fmt.Errorf("failed to load pages for space %s: %w", spaceKey, err)
	}

	var tree PageTreeResponse
	if err := json.Unmarshal(resp.Data, &tree); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(tree, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(tree.Roots) == 0 {
		fmt.Printf("No pages found in space %s.\n", spaceKey)
		return nil
	}

	byID := make(map[string]*PageNode, len(tree.Nodes))
	for _, node := range tree.Nodes {
		byID[node.ID] = node
	}

	for _, id := range tree.Roots {
		node, ok := byID[id]
		if !ok {
			continue
		}
		marker := " "
		if node.HasChildren {
			marker = "+"
		}
		fmt.Printf("%s %s\t%s\n", marker, node.ID, node.Title)
	}

	return nil
}
