package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Space represents a wiki space as returned by the API.
type Space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// SpacesCmd creates the spaces command.
func SpacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "List wiki spaces available for syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSpaces(cmd, outputJSON)
		},
	}

	return cmd
}

func runSpaces(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/spaces")
	if err != nil {
		return fmt.Errorf("failed to list spaces: %w", err)
	}

	var spaces []Space
	if err := json.Unmarshal(resp.Data, &spaces); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(spaces, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(spaces) == 0 {
		fmt.Println("No spaces found.")
		return nil
	}

	for _, space := range spaces {
		fmt.Printf("%s\t%s\n", space.Key, space.Name)
	}

	return nil
}
