package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blofeld/blofeld/config"
	"github.com/blofeld/blofeld/disease"
	"github.com/blofeld/blofeld/sim"
	"github.com/blofeld/blofeld/simulation"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation.",
		Long: "`run --config scenario.yaml` runs the scenario until no event " +
			"is left, the time horizon is reached, or it is interrupted.",
		Args: cobra.NoArgs,
		RunE: runSimulation,
	}

	f := runCmd.Flags()
	f.StringP("config", "c", "", "YAML file with the scenario")
	f.Uint64("seed", 0, "Seed of the run, 0 draws one")
	f.Float64("max-time", 0, "Simulated time horizon, 0 means none")
	f.Uint64("max-rounds", 0, "Maximum number of events, 0 means no limit")
	f.Int("parallelism", 0, "Modules proposing at the same time")
	f.String("record", "", "Record rounds to this SQLite file (no extension)")
	f.Bool("monitor", false, "Serve the web monitor")
	f.Int("monitor-port", 0, "Port of the web monitor")
	f.Bool("open-browser", false, "Open the web monitor in a browser")
	f.Bool("cull", false, "Activate culling after clinical onsets")
	f.String("log-level", "", "Log level (debug, info, warn, error)")

	return runCmd
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Level())

	s, err := simulation.MakeBuilder().
		WithConfig(cfg).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	defer s.Terminate()

	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := s.Run(ctx)
	if err != nil {
		logger.Error("simulation failed", "err", err)
	}

	printSummary(cmd.OutOrStdout(), summary)

	return err
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()

	if f.Changed("seed") {
		cfg.Seed, _ = f.GetUint64("seed")
	}

	if f.Changed("max-time") {
		cfg.MaxTime, _ = f.GetFloat64("max-time")
	}

	if f.Changed("max-rounds") {
		cfg.MaxRounds, _ = f.GetUint64("max-rounds")
	}

	if f.Changed("parallelism") {
		cfg.Parallelism, _ = f.GetInt("parallelism")
	}

	if f.Changed("record") {
		cfg.Recording.Enabled = true
		cfg.Recording.Path, _ = f.GetString("record")
	}

	if f.Changed("monitor") {
		cfg.Monitor.Enabled, _ = f.GetBool("monitor")
	}

	if f.Changed("monitor-port") {
		cfg.Monitor.Port, _ = f.GetInt("monitor-port")
	}

	if f.Changed("open-browser") {
		cfg.Monitor.OpenBrowser, _ = f.GetBool("open-browser")
	}

	if f.Changed("cull") {
		cfg.Culling.Enabled, _ = f.GetBool("cull")
	}

	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
}

func printSummary(w io.Writer, s simulation.Summary) {
	fmt.Fprintf(w, "seed:    %d\n", s.Seed)
	fmt.Fprintf(w, "stopped: %s\n", s.Reason)
	fmt.Fprintf(w, "rounds:  %d\n", s.Rounds)
	fmt.Fprintf(w, "time:    %.4f\n", float64(s.Time))
	fmt.Fprintf(w, "alive:   %d\n", s.Alive)

	fmt.Fprintln(w, "stages:")
	for st := range disease.Stage(disease.NumStages) {
		fmt.Fprintf(w, "  %s %d\n", st, s.Stages[st])
	}

	outcomes := make([]sim.Outcome, 0, len(s.Outcomes))
	for o := range s.Outcomes {
		outcomes = append(outcomes, o)
	}
	slices.Sort(outcomes)

	fmt.Fprintln(w, "outcomes:")
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-10s %d\n", o, s.Outcomes[o])
	}

	if s.Dropped > 0 {
		fmt.Fprintf(w, "dropped: %d\n", s.Dropped)
	}

	if s.Activations > 0 {
		fmt.Fprintf(w, "culling: %d activations, %d culled\n",
			s.Activations, s.Culls)
	}
}
