package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Inspect and reserve ports",
}

var portsCheckCmd = &cobra.Command{
	Use:   "check PORT",
	Short: "Check whether a port is available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		exclude, _ := cmd.Flags().GetString("exclude")

		ctx, cancel := cmdContext()
		defer cancel()
		result, err := clientFromCmd(cmd).CheckPort(ctx, port, exclude)
		if err != nil {
			return fmt.Errorf("check port: %w", err)
		}
		if result.Available {
			fmt.Printf("✓ Port %d is available\n", port)
			return nil
		}
		fmt.Printf("✗ Port %d is not available\n", port)
		if result.RegistryUsedBy != "" {
			fmt.Printf("  Reserved by: %s (%s)\n", result.RegistryUsedBy, result.RegistryReason)
		}
		if result.SystemInUse {
			fmt.Println("  In use by another process on this machine")
		}
		fmt.Printf("  Suggested alternative: %d\n", result.SuggestedPort)
		return nil
	},
}

var portsSuggestCmd = &cobra.Command{
	Use:   "suggest BASE",
	Short: "Suggest a free port near BASE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		ctx, cancel := cmdContext()
		defer cancel()
		port, err := clientFromCmd(cmd).SuggestPort(ctx, base)
		if err != nil {
			return fmt.Errorf("suggest port: %w", err)
		}
		fmt.Println(port)
		return nil
	},
}

var portsReserveCmd = &cobra.Command{
	Use:   "reserve PORT LABEL",
	Short: "Reserve a port outside the app registry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		ctx, cancel := cmdContext()
		defer cancel()
		if err := clientFromCmd(cmd).ReservePort(ctx, port, args[1]); err != nil {
			printAPIError(err)
			return err
		}
		fmt.Printf("✓ Port %d reserved: %s\n", port, args[1])
		return nil
	},
}

var portsUnreserveCmd = &cobra.Command{
	Use:   "unreserve PORT",
	Short: "Release a reserved port",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		ctx, cancel := cmdContext()
		defer cancel()
		if err := clientFromCmd(cmd).UnreservePort(ctx, port); err != nil {
			return fmt.Errorf("unreserve port: %w", err)
		}
		fmt.Printf("✓ Port %d released\n", port)
		return nil
	},
}

func init() {
	portsCmd.AddCommand(portsCheckCmd, portsSuggestCmd, portsReserveCmd, portsUnreserveCmd)
	portsCheckCmd.Flags().String("exclude", "", "App ID to exclude from the conflict check")
}
