package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage an app's cron schedule",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every app with a schedule configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		items, err := clientFromCmd(cmd).ListSchedules(ctx)
		if err != nil {
			return fmt.Errorf("list schedules: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No apps have a schedule configured")
			return nil
		}
		fmt.Printf("%-20s %-8s %-20s %s\n", "ID", "ENABLED", "SCHEDULE", "DESCRIPTION")
		for _, item := range items {
			fmt.Printf("%-20s %-8v %-20s %s\n", item.AppID, item.ScheduleEnabled, item.Schedule, item.Description)
		}
		return nil
	},
}

var scheduleGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show an app's schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		resp, err := clientFromCmd(cmd).GetSchedule(ctx, args[0])
		if err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("Schedule: %s (%s)\n", resp.Schedule, resp.Description)
		fmt.Printf("  Enabled: %v\n", resp.ScheduleEnabled)
		fmt.Printf("  Run if missed: %v\n", resp.RunIfMissed)
		if resp.ScheduleCommand != "" {
			fmt.Printf("  Command override: %s\n", resp.ScheduleCommand)
		}
		return nil
	},
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Enable an app's schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setScheduleEnabled(cmd, args[0], true)
	},
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Disable an app's schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setScheduleEnabled(cmd, args[0], false)
	},
}

func setScheduleEnabled(cmd *cobra.Command, id string, enabled bool) error {
	ctx, cancel := cmdContext()
	defer cancel()
	if _, err := clientFromCmd(cmd).SetScheduleEnabled(ctx, id, enabled); err != nil {
		printAPIError(err)
		return err
	}
	if enabled {
		fmt.Printf("✓ Schedule enabled: %s\n", id)
	} else {
		fmt.Printf("✓ Schedule disabled: %s\n", id)
	}
	return nil
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run ID",
	Short: "Trigger a scheduled run immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		if err := clientFromCmd(cmd).RunSchedule(ctx, args[0]); err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("✓ Triggered scheduled run: %s\n", args[0])
		return nil
	},
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status ID",
	Short: "Show the last scheduled run's outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		resp, err := clientFromCmd(cmd).ScheduleStatus(ctx, args[0])
		if err != nil {
			printAPIError(err)
			return err
		}
		if resp.CurrentState != "" {
			fmt.Printf("Current state: %s\n", resp.CurrentState)
		}
		if resp.LastRun != nil {
			fmt.Printf("Last run: %s (exit %d)\n", resp.LastRun.LastRun.Format("2006-01-02 15:04:05"), resp.LastRun.LastExitCode)
		} else {
			fmt.Println("No run recorded yet")
		}
		for _, line := range resp.Logs {
			fmt.Printf("  [%s] %s\n", line.Stream, line.Text)
		}
		return nil
	},
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set ID CRON_EXPR",
	Short: "Change an app's cron expression",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := args[1]
		ctx, cancel := cmdContext()
		defer cancel()
		if _, err := clientFromCmd(cmd).UpdateSchedule(ctx, args[0], rpc.ScheduleUpdate{Schedule: &expr}); err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("✓ Schedule updated: %s → %s\n", args[0], expr)
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd, scheduleGetCmd, scheduleEnableCmd, scheduleDisableCmd, scheduleRunCmd, scheduleStatusCmd, scheduleSetCmd)
}
