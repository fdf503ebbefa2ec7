package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/healthcache/internal/types"
)

var (
	syncMode       string
	syncJSONOutput bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync against the configured source",
	Long: "Runs a single sync without starting the server. The default mode picks\n" +
		"backfill for an empty cache and reconcile otherwise.",
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncMode, "mode", "auto", "Sync mode: auto, backfill or reconcile")
	syncCmd.Flags().BoolVar(&syncJSONOutput, "json", false, "Output in JSON format")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var run *types.SyncRun
	switch syncMode {
	case "auto":
		run, err = a.engine.Sync(ctx)
	case string(types.SyncModeBackfill):
		run, err = a.engine.Backfill(ctx)
	case string(types.SyncModeReconcile):
		run, err = a.engine.Reconcile(ctx)
	default:
		return fmt.Errorf("unknown sync mode %q", syncMode)
	}
	if run != nil {
		if perr := printRun(cmd.OutOrStdout(), run, syncJSONOutput); perr != nil {
			return perr
		}
	}
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

func printRun(w io.Writer, run *types.SyncRun, asJSON bool) error {
	if asJSON {
		return printJSON(w, run)
	}
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Run:\t%s\n", run.ID)
	fmt.Fprintf(tw, "Mode:\t%s\n", run.Mode)
	fmt.Fprintf(tw, "Outcome:\t%s\n", run.Outcome)
	fmt.Fprintf(tw, "Duration:\t%s\n", run.Duration())
	fmt.Fprintf(tw, "Written:\t%d\n", run.Counts.Written)
	fmt.Fprintf(tw, "Deleted:\t%d\n", run.Counts.Deleted)
	fmt.Fprintf(tw, "Skipped:\t%d own, %d unsupported\n", run.Counts.SkippedSelf, run.Counts.SkippedUnsupported)
	fmt.Fprintf(tw, "Codec errors:\t%d\n", run.Counts.CodecErrors)
	if len(run.FailedKinds) > 0 {
		fmt.Fprintf(tw, "Failed kinds:\t%s\n", strings.Join(run.FailedKinds, ", "))
	}
	if run.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", run.Error)
	}
	return tw.Flush()
}
