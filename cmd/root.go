package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gridrl",
		Short:        "Watch a Q-learning agent learn its way across a grid",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.LoadEnv(); err != nil {
				return err
			}
			UpdateFlags(cmd)
			if err := flags.Validate(); err != nil {
				return err
			}
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		TrainCommand(),
		EpisodeCommand(),
	)

	return cmd
}

// interruptContext is cancelled on SIGINT or when the returned cancel func
// is called.
func interruptContext() (context.Context, context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
