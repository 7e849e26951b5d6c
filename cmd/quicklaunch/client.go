package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/client"
)

// clientFromCmd connects to the supervisor at the --addr persistent
// flag shared by every subcommand.
func clientFromCmd(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("addr")
	return client.NewClient(addr)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// printAPIError prints the server's suggestion/troubleshooting text
// when available, falling back to the bare error for anything that
// didn't reach the API (e.g. connection refused).
func printAPIError(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "✗ %s\n", apiErr.Message)
		if apiErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", apiErr.Suggestion)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "✗ %v\n", err)
}
