package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/sample-goat/internal/store"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Show the server URL and admin token",
		Long: `Show the admin token of the running server.

Use this when you've scrolled past the startup message or need to
manage presets over HTTP.

Example:
  sg token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(getTokenFilePath())
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no server running. Start with: sg serve")
				}
				return fmt.Errorf("failed to read token file: %w", err)
			}

			token := strings.TrimSpace(string(data))
			if token == "" {
				return fmt.Errorf("token file is empty. Restart the server with: sg serve")
			}

			// Try to get the server URL from settings
			serverURL := fmt.Sprintf("http://localhost:%d", defaultPort)
			s, err := store.Open(dbPath)
			if err == nil {
				defer s.Close()
				if url, err := s.GetSetting(context.Background(), "server_url"); err == nil && url != "" {
					serverURL = url
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Calculator:  %s/\n", serverURL)
			fmt.Fprintf(out, "Admin token: %s\n", token)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Example: curl -H 'Authorization: Bearer %s' %s/api/presets\n", token, serverURL)
			return nil
		},
	}
}
