package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/diagnostics"
	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

var todosCmd = &cobra.Command{
	Use:   "todos",
	Short: "Inspect and triage TODO.md entries",
}

var todosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List TODO.md entries, including auto-detected ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		resp, err := clientFromCmd(cmd).Todos(ctx)
		if err != nil {
			return fmt.Errorf("list todos: %w", err)
		}
		if resp.Count == 0 {
			fmt.Println("No TODO items")
			return nil
		}
		for _, item := range resp.ItemsWithPriority {
			marker := " "
			if item.IsAutoDetected {
				marker = "!"
			}
			section := item.Section
			if section == "" {
				section = "-"
			}
			fmt.Printf("%s [%s] %s\n", marker, section, item.Text)
		}
		return nil
	},
}

var todosTriageCmd = &cobra.Command{
	Use:   "triage TEXT",
	Short: "Triage a single TODO line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, _ := cmd.Flags().GetString("action")
		priority, _ := cmd.Flags().GetString("priority")

		var triageAction diagnostics.TriageAction
		switch action {
		case "parking":
			triageAction = diagnostics.ActionParking
		case "implement":
			triageAction = diagnostics.ActionImplement
		case "dont-do":
			triageAction = diagnostics.ActionDontDo
		default:
			return fmt.Errorf("unknown --action %q (want parking, implement, or dont-do)", action)
		}

		ctx, cancel := cmdContext()
		defer cancel()
		counts, err := clientFromCmd(cmd).Triage(ctx, []rpc.TriageItem{{Text: args[0], Priority: priority, Action: triageAction}})
		if err != nil {
			return fmt.Errorf("triage: %w", err)
		}
		fmt.Printf("✓ Triaged: parking=%d implement=%d dont-do=%d\n", counts.Parking, counts.Implement, counts.DontDo)
		return nil
	},
}

func init() {
	todosCmd.AddCommand(todosListCmd, todosTriageCmd)
	todosTriageCmd.Flags().String("action", "", "parking, implement, or dont-do")
	todosTriageCmd.Flags().String("priority", "", "Priority label to attach")
}
