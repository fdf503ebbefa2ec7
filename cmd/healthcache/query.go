package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/healthcache/internal/types"
	"github.com/hyperengineering/healthcache/pkg/client"
)

var (
	queryServer     string
	queryAPIKey     string
	queryJSONOutput bool
	runsLimit       int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read from a running healthcache server",
	Long: "Query commands talk to a running server over its HTTP API. The server URL\n" +
		"defaults to HEALTHCACHE_URL and the key to HEALTHCACHE_API_KEY.",
}

var queryKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List supported record kinds with cached row counts",
	Args:  cobra.NoArgs,
	RunE:  runQueryKinds,
}

var queryLatestCmd = &cobra.Command{
	Use:   "latest <kind>",
	Short: "Show the latest normalized value of a kind",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryLatest,
}

var queryNutritionCmd = &cobra.Command{
	Use:   "nutrition <nutrient>",
	Short: "Show a nutrient summed over the last 24 hours",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryNutrition,
}

var queryCategoryCmd = &cobra.Command{
	Use:   "category [name]",
	Short: "List categories, or show every card of one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQueryCategory,
}

var queryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache and cursor state",
	Args:  cobra.NoArgs,
	RunE:  runQueryStatus,
}

var queryRunsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recent sync runs, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQueryRuns,
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryServer, "server", "",
		"Server base URL (default $HEALTHCACHE_URL or http://localhost:8080)")
	queryCmd.PersistentFlags().StringVar(&queryAPIKey, "api-key", "",
		"API key (default $HEALTHCACHE_API_KEY)")
	queryCmd.PersistentFlags().BoolVar(&queryJSONOutput, "json", false,
		"Output in JSON format")
	queryRunsCmd.Flags().IntVar(&runsLimit, "limit", 10, "Number of runs to list")

	queryCmd.AddCommand(queryKindsCmd)
	queryCmd.AddCommand(queryLatestCmd)
	queryCmd.AddCommand(queryNutritionCmd)
	queryCmd.AddCommand(queryCategoryCmd)
	queryCmd.AddCommand(queryStatusCmd)
	queryCmd.AddCommand(queryRunsCmd)
}

func newClient() (*client.Client, error) {
	server := queryServer
	if server == "" {
		server = os.Getenv("HEALTHCACHE_URL")
	}
	if server == "" {
		server = "http://localhost:8080"
	}
	key := queryAPIKey
	if key == "" {
		key = os.Getenv("HEALTHCACHE_API_KEY")
	}
	return client.New(client.Config{BaseURL: server, APIKey: key, Retries: 2})
}

func runQueryKinds(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	resp, err := c.Kinds(cmd.Context())
	if err != nil {
		return err
	}
	if queryJSONOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "KIND\tLABEL\tUNIT\tROWS")
	for _, k := range resp.Kinds {
		unit := k.Unit
		if !k.Scalar {
			unit = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", k.Kind, k.Label, unit, k.CachedRow)
	}
	return w.Flush()
}

func runQueryLatest(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	p, err := c.Latest(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if queryJSONOutput {
		return printJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.Label, formatPoint(p))
	return nil
}

func runQueryNutrition(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	a, err := c.Nutrition(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if queryJSONOutput {
		return printJSON(cmd.OutOrStdout(), a)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (24h to %s): %s %s\n",
		a.Label, a.WindowEnd.Local().Format("2006-01-02 15:04"), a.Display, a.Unit)
	return nil
}

func runQueryCategory(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		resp, err := c.Categories(cmd.Context())
		if err != nil {
			return err
		}
		if queryJSONOutput {
			return printJSON(out, resp)
		}
		w := newTabWriter(out)
		fmt.Fprintln(w, "CATEGORY\tTITLE\tCARDS")
		for _, cat := range resp.Categories {
			fmt.Fprintf(w, "%s\t%s\t%d\n", cat.Category, cat.Title, cat.Cards)
		}
		return w.Flush()
	}

	resp, err := c.Category(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if queryJSONOutput {
		return printJSON(out, resp)
	}
	fmt.Fprintln(out, resp.Title)
	w := newTabWriter(out)
	for _, card := range resp.Cards {
		switch {
		case card.Aggregate != nil:
			fmt.Fprintf(w, "  %s\t%s %s\n", card.Aggregate.Label, card.Aggregate.Display, card.Aggregate.Unit)
		case card.Point != nil:
			fmt.Fprintf(w, "  %s\t%s\n", card.Point.Label, formatPoint(card.Point))
		}
	}
	return w.Flush()
}

func runQueryStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	st, err := c.SyncStatus(cmd.Context())
	if err != nil {
		return err
	}
	if queryJSONOutput {
		return printJSON(cmd.OutOrStdout(), st)
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "Records:\t%d\n", st.RecordCount)
	fmt.Fprintf(w, "Cursor:\t%s\n", yesNo(st.HasCursor))
	fmt.Fprintf(w, "First sync needed:\t%s\n", yesNo(st.FirstSyncNeeded))
	fmt.Fprintf(w, "Sync running:\t%s\n", yesNo(st.InFlight))
	if st.LastRun != nil {
		fmt.Fprintf(w, "Last run:\t%s %s at %s\n", st.LastRun.Mode, st.LastRun.Outcome,
			st.LastRun.FinishedAt.Local().Format(time.RFC3339))
	}
	return w.Flush()
}

func runQueryRuns(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if len(args) == 1 {
		run, err := c.SyncRun(ctx, args[0])
		if err != nil {
			return err
		}
		return printRun(cmd.OutOrStdout(), run, queryJSONOutput)
	}

	resp, err := c.SyncRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if queryJSONOutput {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	return printRunTable(cmd.OutOrStdout(), resp.Runs)
}

func printRunTable(out io.Writer, runs []types.SyncRun) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No sync runs recorded.")
		return nil
	}
	w := newTabWriter(out)
	fmt.Fprintln(w, "ID\tMODE\tOUTCOME\tSTARTED\tWRITTEN\tDELETED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.Mode, r.Outcome,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Counts.Written, r.Counts.Deleted)
	}
	return w.Flush()
}

func formatPoint(p *types.PointResponse) string {
	if p.Value == nil {
		return "no data"
	}
	s := *p.Value
	if p.Unit != "" {
		s += " " + p.Unit
	}
	if p.Timestamp != nil {
		s += " (" + p.Timestamp.Local().Format("2006-01-02 15:04") + ")"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
