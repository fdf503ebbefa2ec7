package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every cached record and the change cursor",
	Long: "Empties the cache so the next sync runs a full backfill. Sync history is\n" +
		"kept. Requires --force or interactive confirmation.",
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !resetForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, "WARNING: This will delete every cached record and the change cursor.")
		fmt.Fprint(errOut, "Type 'reset' to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(input) != "reset" {
			return fmt.Errorf("confirmation did not match, aborting")
		}
	}

	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache reset. The next sync will run a full backfill.")
	return nil
}
