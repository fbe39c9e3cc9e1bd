package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/cli"
	"github.com/Veraticus/serena/internal/common"
)

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs recorded in the processing ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger := openLedger(cmd.Context(), viper.GetViper())
			if ledger == nil {
				return common.NewUserError("the processing ledger is disabled or unavailable", common.ErrMissingConfig)
			}
			defer closeLedger(ledger)

			runs, err := ledger.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			stats, err := ledger.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprint(out, cli.RenderRuns(runs))
			_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf(
				"ledger %s: %d units, %d A2P, %d P2P, %d extractions, %d runs",
				ledger.Path(), stats.Units, stats.A2P, stats.P2P, stats.Extractions, stats.Runs)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
