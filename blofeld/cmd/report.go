package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/blofeld/blofeld/datarecording"
	"github.com/blofeld/blofeld/tracing"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report FILE",
		Short: "Summarize the runs recorded in a result database.",
		Long: "`report run.sqlite3` prints, for every recorded run, its seed, " +
			"how far it got, and how often each outcome happened.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func report(ctx context.Context, w io.Writer, filename string) error {
	db, err := datarecording.OpenReader(filename)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := datarecording.Query[tracing.RunEntry](
		ctx, db, tracing.RunTable, datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, run := range runs {
		if err := reportRun(ctx, w, db, run); err != nil {
			return err
		}
	}

	return nil
}

func reportRun(
	ctx context.Context,
	w io.Writer,
	db *sql.DB,
	run tracing.RunEntry,
) error {
	byRun := datarecording.QueryParams{
		Where: "RunID = ?",
		Args:  []any{run.RunID},
	}

	ordered := byRun
	ordered.OrderBy = "Round"

	rounds, err := datarecording.Query[tracing.RoundEntry](
		ctx, db, tracing.RoundTable, ordered)
	if err != nil {
		return err
	}

	warnings, err := datarecording.Count(ctx, db, tracing.WarningTable, byRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s (seed %s)\n", run.RunID, run.Seed)
	fmt.Fprintf(w, "  rounds:   %d\n", len(rounds))

	if len(rounds) > 0 {
		fmt.Fprintf(w, "  time:     %.4f\n", rounds[len(rounds)-1].Time)
	}

	fmt.Fprintf(w, "  warnings: %d\n", warnings)

	counts := make(map[string]int)
	for _, r := range rounds {
		counts[r.Outcome]++
	}

	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	slices.Sort(outcomes)

	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-10s %d\n", o, counts[o])
	}

	return nil
}
