package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/types"
)

var resolutionsCmd = &cobra.Command{
	Use:   "resolutions",
	Short: "Inspect and record issue resolutions",
}

var resolutionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded resolutions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		records, err := clientFromCmd(cmd).ListResolutions(ctx)
		if err != nil {
			return fmt.Errorf("list resolutions: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No resolutions recorded")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %-20s %-12s %s\n", r.Date.Format("2006-01-02"), r.App, r.Disposition, r.Issue)
		}
		return nil
	},
}

var resolutionsRecordCmd = &cobra.Command{
	Use:   "record APP ISSUE",
	Short: "Record a resolution for an app's issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		errorType, _ := cmd.Flags().GetString("error-type")
		disposition, _ := cmd.Flags().GetString("disposition")
		explanation, _ := cmd.Flags().GetString("explanation")
		notes, _ := cmd.Flags().GetString("notes")

		var d types.ResolutionDisposition
		switch disposition {
		case "resolved":
			d = types.DispositionResolved
		case "cancelled":
			d = types.DispositionCancelled
		default:
			return fmt.Errorf("unknown --disposition %q (want resolved or cancelled)", disposition)
		}

		ctx, cancel := cmdContext()
		defer cancel()
		resp, err := clientFromCmd(cmd).RecordResolution(ctx, types.ResolutionRecord{
			App: args[0], Issue: args[1], ErrorType: types.FailurePattern(errorType),
			Disposition: d, Explanation: explanation, Notes: notes,
		})
		if err != nil {
			return fmt.Errorf("record resolution: %w", err)
		}
		fmt.Printf("✓ Resolution recorded for %s\n", args[0])
		if resp.TodoRemoved {
			fmt.Println("  Matching TODO entry removed")
		}
		return nil
	},
}

func init() {
	resolutionsCmd.AddCommand(resolutionsListCmd, resolutionsRecordCmd)
	resolutionsRecordCmd.Flags().String("error-type", "", "Failure pattern this resolves")
	resolutionsRecordCmd.Flags().String("disposition", "resolved", "resolved or cancelled")
	resolutionsRecordCmd.Flags().String("explanation", "", "What fixed it")
	resolutionsRecordCmd.Flags().String("notes", "", "Free-form notes")
}
