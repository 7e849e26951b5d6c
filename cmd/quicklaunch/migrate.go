package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// migrateCmd bulk-imports apps from a JSON file: read a manifest, push
// each entry to the running supervisor. QuickLaunch has one resource
// kind (an app), so there's no per-Kind dispatch, and the manifest is a
// plain JSON array of types.AppConfig.
var migrateCmd = &cobra.Command{
	Use:   "migrate FILE",
	Short: "Bulk-import apps from a JSON manifest",
	Long: `migrate reads a JSON array of app configs from FILE and adds each
one to the running supervisor. Conflicts (e.g. a port already in use)
are skipped rather than aborting the whole batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}

		var apps []types.AppConfig
		if err := json.Unmarshal(data, &apps); err != nil {
			return fmt.Errorf("parse manifest: %w", err)
		}

		ctx, cancel := cmdContext()
		defer cancel()
		resp, err := clientFromCmd(cmd).MigrateApps(ctx, apps)
		if err != nil {
			return fmt.Errorf("migrate apps: %w", err)
		}

		imported, skipped := 0, 0
		for _, r := range resp.Results {
			if r.Status == "imported" {
				imported++
				fmt.Printf("✓ %s imported\n", r.ID)
			} else {
				skipped++
				fmt.Printf("✗ %s skipped: %s\n", r.ID, r.Reason)
			}
		}
		fmt.Printf("\n%d imported, %d skipped\n", imported, skipped)
		return nil
	},
}
