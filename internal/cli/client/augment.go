package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Message is one chat message of an augment request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AugmentRequest represents the augment API request.
type AugmentRequest struct {
	Messages      []Message `json:"messages"`
	Query         string    `json:"query,omitempty"`
	ReturnSources bool      `json:"return_sources,omitempty"`
}

// AugmentResponse represents the augment API response.
type AugmentResponse struct {
	Messages []Message      `json:"messages"`
	Sources  []SourceDetail `json:"sources,omitempty"`
}

// AugmentCmd creates the augment command.
func AugmentCmd() *cobra.Command {
	var (
		query   string
		sources bool
	)

	cmd := &cobra.Command{
		Use:   "augment [file]",
		Short: "Augment a chat prompt with retrieved context",
		Long: `Splices retrieved context into a chat message list.

Reads a JSON array of messages from the file argument or stdin and
prints the augmented list. When retrieval is disabled or nothing
relevant is stored, the messages come back unchanged.

Example:
  echo '[{"role":"user","content":"how do we deploy?"}]' | loreline augment --sources`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runAugment(cmd, file, query, sources)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Explicit retrieval query (defaults to the last user message)")
	cmd.Flags().BoolVar(&sources, "sources", false, "Include per-document source attribution")

	return cmd
}

func runAugment(cmd *cobra.Command, file, query string, sources bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	var messages []Message
	if err := json.Unmarshal(input, &messages); err != nil {
		return fmt.Errorf("failed to parse messages: %w - expected a JSON array", err)
	}
	if len(messages) == 0 {
		return fmt.Errorf("no messages provided")
	}

	resp, err := api.Post("/augment", AugmentRequest{
		Messages:      messages,
		Query:         query,
		ReturnSources: sources,
	})
	if err != nil {
		return fmt.Errorf("augment failed: %w", err)
	}

	var result AugmentResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))

	return nil
}
