package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/gridworld-rl/grid"
)

func EpisodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Watch a single episode and print the path it took",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptContext()
			defer cancel()

			t, err := prepareTrainer(cmd.OutOrStdout(), flags)
			if err != nil {
				return err
			}
			env, _ := t.scheduler.Environment().(*grid.Environment)

			t.start(ctx)
			result, ok := t.scheduler.RunEpisode(ctx)
			t.stop()
			if !ok {
				return errors.New("an episode is already running")
			}

			out := cmd.OutOrStdout()
			if env != nil {
				fmt.Fprint(out, t.painter.Paint(env, -1, result.Path))
			}
			fmt.Fprintf(out, "Outcome: %s after %d steps (%d ticks), reward %.0f\n", result.Status, result.Steps, result.Ticks, result.TotalReward)
			return t.report(out, 1)
		},
	}

	return cmd
}
