package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	var (
		apiToken string
		apiURL   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the connection to a loreline server",
		Long:  "Saves the API URL and token to the global config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, apiToken, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiToken, "token", "", "API token (leave empty for servers without auth)")
	cmd.Flags().StringVar(&apiURL, "url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(cmd *cobra.Command, apiToken, apiURL string) error {
	if apiURL == "" {
		fmt.Printf("API URL [%s]: ", defaultAPIURL)
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read URL: %w", err)
		}
		apiURL = strings.TrimSpace(input)
		if apiURL == "" {
			apiURL = defaultAPIURL
		}
	}

	api, err := NewAPIClientWithConfig(apiToken, apiURL)
	if err != nil {
		return err
	}
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", apiURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIToken: apiToken, APIURL: apiURL}); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()
	fmt.Printf("Saved configuration to %s\n", configPath)
	return nil
}
