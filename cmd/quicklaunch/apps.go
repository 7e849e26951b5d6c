package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage configured apps",
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured apps",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		resp, err := clientFromCmd(cmd).ListApps(ctx)
		if err != nil {
			return fmt.Errorf("list apps: %w", err)
		}
		if len(resp.Apps) == 0 {
			fmt.Println("No apps configured")
			return nil
		}
		fmt.Printf("%-20s %-8s %-30s %s\n", "ID", "PORT", "PATH", "COMMAND")
		for _, app := range resp.Apps {
			fmt.Printf("%-20s %-8d %-30s %s\n", truncate(app.ID, 20), app.Port, truncate(app.Path, 30), app.Command)
		}
		return nil
	},
}

var appsAddCmd = &cobra.Command{
	Use:   "add ID",
	Short: "Register a new app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		name, _ := cmd.Flags().GetString("name")
		port, _ := cmd.Flags().GetInt("port")
		path, _ := cmd.Flags().GetString("path")
		command, _ := cmd.Flags().GetString("command")
		healthCheckURL, _ := cmd.Flags().GetString("health-check-url")
		autoRestart, _ := cmd.Flags().GetBool("auto-restart")
		schedule, _ := cmd.Flags().GetString("schedule")

		ctx, cancel := cmdContext()
		defer cancel()

		app := types.AppConfig{
			ID: id, Name: name, Port: port, Path: path, Command: command,
			HealthCheckURL: healthCheckURL, AutoRestart: autoRestart, Schedule: schedule,
		}
		created, err := clientFromCmd(cmd).AddApp(ctx, app)
		if err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("✓ App added: %s\n", created.ID)
		fmt.Printf("  Port: %d\n", created.Port)
		fmt.Printf("  Path: %s\n", created.Path)
		return nil
	},
}

var appsRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a configured app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := clientFromCmd(cmd).RemoveApp(ctx, args[0]); err != nil {
			return fmt.Errorf("remove app: %w", err)
		}
		fmt.Printf("✓ App removed: %s\n", args[0])
		return nil
	},
}

var appsStartCmd = &cobra.Command{
	Use:   "start ID",
	Short: "Start an app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := clientFromCmd(cmd)
		ctx, cancel := cmdContext()
		defer cancel()

		apps, err := c.ListApps(ctx)
		if err != nil {
			return fmt.Errorf("list apps: %w", err)
		}
		var app *types.AppConfig
		for _, a := range apps.Apps {
			if a.ID == args[0] {
				app = a
				break
			}
		}
		if app == nil {
			return fmt.Errorf("app %q is not configured", args[0])
		}

		result, err := c.Start(ctx, rpc.StartAppRequest{
			ID: app.ID, Name: app.Name, Port: app.Port, Path: app.Path, Command: app.Command,
			HealthCheckURL: app.HealthCheckURL, StartupTimeoutMS: app.StartupTimeoutMS,
			AutoRestart: app.AutoRestart, MaxRestartAttempts: app.MaxRestartAttempts,
		})
		if err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("✓ Started %s: %s (pid %d, port %d)\n", args[0], result.Status, result.PID, result.Port)
		if result.Warning != "" {
			fmt.Printf("  Warning: %s\n", result.Warning)
		}
		return nil
	},
}

var appsStopCmd = &cobra.Command{
	Use:   "stop ID",
	Short: "Stop a running app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		if err := clientFromCmd(cmd).Stop(ctx, args[0]); err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("✓ Stopped %s\n", args[0])
		return nil
	},
}

var appsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show live status for every configured app",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		statuses, err := clientFromCmd(cmd).Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		fmt.Printf("%-20s %-10s %-8s %s\n", "ID", "STATUS", "PORT", "PID")
		for id, s := range statuses {
			fmt.Printf("%-20s %-10s %-8d %d\n", truncate(id, 20), s.Status, s.Port, s.PID)
		}
		return nil
	},
}

func init() {
	appsCmd.AddCommand(appsListCmd, appsAddCmd, appsRemoveCmd, appsStartCmd, appsStopCmd, appsStatusCmd)

	appsAddCmd.Flags().String("name", "", "Display name")
	appsAddCmd.Flags().Int("port", 0, "Port the app listens on")
	appsAddCmd.Flags().String("path", "", "Working directory")
	appsAddCmd.Flags().String("command", "", "Command to run")
	appsAddCmd.Flags().String("health-check-url", "", "URL to poll for readiness")
	appsAddCmd.Flags().Bool("auto-restart", false, "Restart automatically on crash")
	appsAddCmd.Flags().String("schedule", "", "Cron expression for a scheduled run")
}
