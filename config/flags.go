package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/util"
)

type Flags struct {
	GridFlags
	SavePath string `env:"GRIDRL_SAVE_PATH"`
	RunFlags
	Policy string `env:"GRIDRL_POLICY"`
	Debug  bool   `env:"GRIDRL_DEBUG"`
	Live   bool   `env:"GRIDRL_LIVE"`
}

type GridFlags struct {
	Difficulty string `env:"GRIDRL_DIFFICULTY"`
	// Seed drives grid generation and exploration; 0 picks a clock seed
	Seed uint64 `env:"GRIDRL_SEED"`
}

type RunFlags struct {
	Episodes     int           `env:"GRIDRL_EPISODES"`
	StepDelay    time.Duration `env:"GRIDRL_STEP_DELAY"`
	EpisodeDelay time.Duration `env:"GRIDRL_EPISODE_DELAY"`
}

func DefaultFlags() *Flags {
	return &Flags{
		GridFlags: GridFlags{
			Difficulty: string(Medium),
			Seed:       0,
		},
		SavePath: "results",
		RunFlags: RunFlags{
			Episodes:     10,
			StepDelay:    200 * time.Millisecond,
			EpisodeDelay: time.Second,
		},
		Policy: "qlearning",
		Debug:  false,
		Live:   true,
	}
}

// LoadEnv overlays GRIDRL_* variables, optionally read from the given .env
// files, on top of the current values. Missing .env files are ignored.
func (f *Flags) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(f); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (f *Flags) Validate() error {
	if _, err := ParseDifficulty(f.Difficulty); err != nil {
		return err
	}
	if f.Episodes < 0 {
		return fmt.Errorf("episodes must not be negative: %d", f.Episodes)
	}
	return nil
}

// GridSize is the side length selected by the difficulty.
func (f *Flags) GridSize() (int, error) {
	d, err := ParseDifficulty(f.Difficulty)
	if err != nil {
		return 0, err
	}
	return d.Size(), nil
}

// RunConfig converts the flags into a scheduler configuration.
func (f *Flags) RunConfig() (*core.RunConfig, error) {
	size, err := f.GridSize()
	if err != nil {
		return nil, err
	}
	cfg := core.DefaultRunConfig()
	cfg.GridSize = size
	cfg.Episodes = f.Episodes
	cfg.StepDelay = f.StepDelay
	cfg.EpisodeDelay = f.EpisodeDelay
	return cfg, nil
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
