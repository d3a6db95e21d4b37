package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/gridworld-rl/config"
)

var (
	flags      *config.Flags = config.DefaultFlags()
	savePath   string
	difficulty string
	seed       uint64
	policy     string
	debug      bool
	live       bool

	episodes     int
	stepDelay    int
	episodeDelay int
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().StringVar(&difficulty, "difficulty", flags.Difficulty, "Grid size: small (5), medium (7) or large (10)")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", flags.Seed, "Random seed, 0 for a clock seed")
	cmd.PersistentFlags().StringVar(&policy, "policy", flags.Policy, "Agent policy: qlearning or random")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Write episode traces under the save path")
	cmd.PersistentFlags().BoolVar(&live, "live", flags.Live, "Redraw the grid while the agent moves")

	cmd.PersistentFlags().IntVar(&episodes, "episodes", flags.Episodes, "Number of episodes in a batch")
	cmd.PersistentFlags().IntVar(&stepDelay, "step-delay", int(flags.StepDelay.Milliseconds()), "Milliseconds between agent steps")
	cmd.PersistentFlags().IntVar(&episodeDelay, "episode-delay", int(flags.EpisodeDelay.Milliseconds()), "Milliseconds between episodes")
}

// UpdateFlags copies the flags given on the command line over the defaults
// and environment values already in flags.
func UpdateFlags(cmd *cobra.Command) {
	changed := func(name string) bool {
		return cmd.Flags().Changed(name)
	}
	if changed("save-path") {
		flags.SavePath = savePath
	}
	if changed("difficulty") {
		flags.Difficulty = difficulty
	}
	if changed("seed") {
		flags.Seed = seed
	}
	if changed("policy") {
		flags.Policy = policy
	}
	if changed("debug") {
		flags.Debug = debug
	}
	if changed("live") {
		flags.Live = live
	}

	if changed("episodes") {
		flags.Episodes = episodes
	}
	if changed("step-delay") {
		flags.StepDelay = time.Duration(stepDelay) * time.Millisecond
	}
	if changed("episode-delay") {
		flags.EpisodeDelay = time.Duration(episodeDelay) * time.Millisecond
	}
}
