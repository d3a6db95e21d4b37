package cmd

import (
	"github.com/spf13/cobra"
)

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a paced batch of training episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptContext()
			defer cancel()

			t, err := prepareTrainer(cmd.OutOrStdout(), flags)
			if err != nil {
				return err
			}
			t.start(ctx)
			completed, _ := t.scheduler.RunBatch(ctx, flags.Episodes)
			t.stop()

			return t.report(cmd.OutOrStdout(), completed)
		},
	}

	return cmd
}
