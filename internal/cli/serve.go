package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/sample-goat/internal/server"
	"github.com/gkobilansky/sample-goat/internal/store"
)

const defaultPort = 8080

func newServeCmd() *cobra.Command {
	var (
		port  int
		token string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the sample-goat HTTP server.

The server provides:
  - Calculator form at /
  - JSON API at /api/calculate and /api/presets
  - Prometheus metrics at /metrics
  - Health check at /health

Saving and deleting presets over HTTP needs the admin token. Set it with
SG_ADMIN_TOKEN or let the server generate one ('sg token' prints it).

Example:
  sg serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = portFromEnv(port)
			}
			if !cmd.Flags().Changed("token") {
				token = getEnvOrDefault("SG_ADMIN_TOKEN", token)
			}

			s, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer s.Close()

			srv := server.New(s, port, getTokenFilePath(), server.WithToken(token), server.WithLogger(slog.Default()))

			serverURL := fmt.Sprintf("http://localhost:%d", port)
			if err := s.SetSetting(context.Background(), "server_url", serverURL); err != nil {
				slog.Warn("failed to store server url", "error", err)
			}

			printStartup(cmd, serverURL, srv.Token())
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", portFromEnv(defaultPort), "port to listen on")
	cmd.Flags().StringVar(&token, "token", os.Getenv("SG_ADMIN_TOKEN"), "admin token (generated when empty)")

	return cmd
}

func portFromEnv(fallback int) int {
	if p := os.Getenv("SG_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			return parsed
		}
	}
	return fallback
}

func printStartup(cmd *cobra.Command, serverURL, token string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Server running at %s\n", serverURL)
	fmt.Fprintf(out, "Admin token: %s\n", token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Try it:")
	fmt.Fprintf(out, "  curl -s %s/api/calculate -d '{\"metric\":\"binomial\",\"params\":{\"p\":0.1},\"mde\":\"0.02\"}'\n", serverURL)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Press Ctrl+C to stop")
}

// getTokenFilePath returns the path to the token file
func getTokenFilePath() string {
	// Store token file alongside the database
	dir := filepath.Dir(dbPath)
	return filepath.Join(dir, ".sg-token")
}
