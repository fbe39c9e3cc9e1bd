package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/cli"
	"github.com/Veraticus/serena/internal/model"
	"github.com/Veraticus/serena/internal/pipeline"
)

func runCmd() *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "run <root>",
		Short: "Run every stage over an archive root",
		Long: `Decode the sources under <root>, classify the staged units, render the
A2P ones to HTML and extract their fields into the result cache.

Re-running over the same root is safe: decoded files are reused, answers
already in the processing ledger skip the oracle and duplicate records are
never added to the cache twice.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx, stop := handler.HandleInterrupts(cmd.Context(), "Units finished so far are kept and the cache is saved.")
			defer stop()
			cmd.SetContext(ctx)

			var opts []pipeline.Option
			if !noProgress {
				opts = append(opts, pipeline.WithObserver(cli.NewProgressObserver(cmd.ErrOrStderr())))
			}

			p, cleanup, err := newPipeline(cmd, v, true, opts...)
			if err != nil {
				return err
			}
			defer cleanup()

			result, runErr := p.Run(ctx, args[0])
			if result.Summary.RunID != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSummary(result.Summary))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "HTML: %s\nJSON: %s\nCache: %s\n",
					result.HTMLDir, result.JSONDir, result.Cache.Path())
			}
			if runErr != nil {
				if handler.WasInterrupted() {
					return fmt.Errorf("run interrupted: %w", runErr)
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().Int("workers", 1, "number of units sent to the oracle concurrently")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
	return cmd
}

type stageRunner func(p *pipeline.Pipeline, cmd *cobra.Command, root string) (model.StageStats, error)

// stageCmds builds one command per pipeline stage.
func stageCmds() []*cobra.Command {
	specs := []struct {
		use        string
		short      string
		needOracle bool
		run        stageRunner
	}{
		{
			use:   "decode <root>",
			short: "Decode mail, text-message exports and transcripts into staged units",
			run: func(p *pipeline.Pipeline, cmd *cobra.Command, root string) (model.StageStats, error) {
				return p.Decode(cmd.Context(), root)
			},
		},
		{
			use:        "classify <root>",
			short:      "Classify staged units and keep the A2P ones",
			needOracle: true,
			run: func(p *pipeline.Pipeline, cmd *cobra.Command, root string) (model.StageStats, error) {
				return p.Classify(cmd.Context(), root)
			},
		},
		{
			use:   "render <root>",
			short: "Render A2P units to HTML",
			run: func(p *pipeline.Pipeline, cmd *cobra.Command, root string) (model.StageStats, error) {
				return p.Render(cmd.Context(), root)
			},
		},
		{
			use:        "extract <root>",
			short:      "Extract fields from A2P units into the result cache",
			needOracle: true,
			run: func(p *pipeline.Pipeline, cmd *cobra.Command, root string) (model.StageStats, error) {
				return p.Extract(cmd.Context(), root)
			},
		},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmd := &cobra.Command{
			Use:   spec.use,
			Short: spec.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
				ctx, stop := handler.HandleInterrupts(cmd.Context(), "")
				defer stop()
				cmd.SetContext(ctx)

				p, cleanup, err := newPipeline(cmd, viper.GetViper(), spec.needOracle,
					pipeline.WithObserver(cli.NewProgressObserver(cmd.ErrOrStderr())))
				if err != nil {
					return err
				}
				defer cleanup()

				stats, err := spec.run(p, cmd, args[0])
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderStage(stats))
				return err
			},
		}
		if spec.needOracle {
			cmd.Flags().Int("workers", 1, "number of units sent to the oracle concurrently")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
