package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// CreateDocumentRequest represents the create document API request.
type CreateDocumentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Document represents a document as returned by the API.
type Document struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SourceType     string `json:"source_type"`
	SizeBytes      int64  `json:"size_bytes"`
	ChunkCount     int    `json:"chunk_count"`
	SourceURL      string `json:"source_url,omitempty"`
	CollectionKey  string `json:"collection_key,omitempty"`
	CollectionName string `json:"collection_name,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Add a document from a file or stdin",
		Long: `Add a document to the knowledge base.

Examples:
  # Add a file (name defaults to the file name)
  loreline add notes.md

  # Add from stdin with an explicit name
  cat notes.md | loreline add --name "Team Notes"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runAdd(cmd, file, name, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Document name (defaults to file name)")

	return cmd
}

func runAdd(cmd *cobra.Command, file, name string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var content []byte
	if file != "" {
		content, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if name == "" {
			name = filepath.Base(file)
		}
	} else {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no input provided")
	}
	if name == "" {
		return fmt.Errorf("--name is required when reading from stdin")
	}

	resp, err := api.Post("/documents", CreateDocumentRequest{
		Name:    name,
		Content: string(content),
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Added document: %s\n", doc.ID)
		fmt.Printf("Name: %s\n", doc.Name)
		fmt.Printf("Chunks: %d\n", doc.ChunkCount)
	}

	return nil
}
