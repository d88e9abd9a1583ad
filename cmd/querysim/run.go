package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/argus-labs/ecsquery/internal/sim"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

type runOptions struct {
	cfg     sim.Config
	json    bool
	profile string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the churn workload and report query statistics",
		Long: `Spawns entities, then applies random component and entity changes every tick
while movement, render and damage systems iterate their queries.

The dirty threshold comes from ECSQUERY_DIRTY_THRESHOLD.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSim(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.cfg.Entities, "entities", 1000, "entities spawned before the first tick")
	cmd.Flags().IntVar(&opts.cfg.Ticks, "ticks", 100, "ticks to run")
	cmd.Flags().IntVar(&opts.cfg.Churn, "churn", 50, "random changes per tick")
	cmd.Flags().Uint64Var(&opts.cfg.Seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "write a profile to the working directory (cpu|mem)")

	return cmd
}

func runSim(rootOpts *RootOptions, opts *runOptions, out io.Writer) error {
	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return eris.Errorf("invalid profile %q: must be cpu or mem", opts.profile)
	}

	cfg := opts.cfg
	cfg.DirtyThreshold = rootOpts.Config.DirtyThreshold

	rootOpts.Logger.Info().
		Int("entities", cfg.Entities).
		Int("ticks", cfg.Ticks).
		Int("churn", cfg.Churn).
		Uint64("seed", cfg.Seed).
		Msg("starting run")

	report, err := sim.Run(cfg, &rootOpts.Logger)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "failed to encode report")
	}
	return writeReport(out, report)
}

func writeReport(out io.Writer, report sim.Report) error {
	fmt.Fprintf(out, "ticks=%d alive=%d filters=%d queries=%d\n\n",
		report.Ticks, report.Alive, report.DeclaredFilters, report.DistinctQueries)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"NAME", "KEY", "MATCHES", "REBUILDS", "PATCHES", "ESCALATIONS", "SCANNED"}, "\t"))
	for _, q := range report.Queries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n", q.Name, q.Key, q.Matches,
			q.Stats.FullRebuilds, q.Stats.IncrementalPatches, q.Stats.Escalations, q.Stats.Scanned)
	}
	return tw.Flush()
}
