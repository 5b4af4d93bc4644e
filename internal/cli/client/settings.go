package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// BackendResponse represents the backend switch API response.
type BackendResponse struct {
	Backend   string `json:"backend"`
	Dimension int    `json:"dimension"`
}

// EnableCmd creates the enable command.
func EnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable prompt augmentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetEnabled(cmd, true)
		},
	}
}

// DisableCmd creates the disable command.
func DisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable prompt augmentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetEnabled(cmd, false)
		},
	}
}

func runSetEnabled(cmd *cobra.Command, enabled bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if _, err := api.Put("/settings/enabled", map[string]bool{"enabled": enabled}); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	if enabled {
		fmt.Println("Prompt augmentation enabled.")
	} else {
		fmt.Println("Prompt augmentation disabled.")
	}
	return nil
}

// BackendCmd creates the backend command.
func BackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend <openai|ollama|local>",
		Short: "Switch the embedding backend",
		Long: `Switches the active embedding backend.

Switching to a backend with a different vector dimension clears the
store; every document must be re-ingested afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetBackend(cmd, args[0])
		},
	}

	return cmd
}

func runSetBackend(cmd *cobra.Command, backend string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Put("/settings/backend", map[string]string{"backend": backend})
	if err != nil {
		return fmt.Errorf("failed to switch backend: %w", err)
	}

	var result BackendResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Active backend: %s (dimension %d)\n", result.Backend, result.Dimension)
	return nil
}
