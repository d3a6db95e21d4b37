package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	cases := map[string]Difficulty{
		"small":   Small,
		"easy":    Small,
		"Medium":  Medium,
		"":        Medium,
		" large ": Large,
		"hard":    Large,
	}
	for in, want := range cases {
		got, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDifficulty("impossible")
	assert.ErrorIs(t, err, ErrUnknownDifficulty)

	assert.Equal(t, 5, Small.Size())
	assert.Equal(t, 7, Medium.Size())
	assert.Equal(t, 10, Large.Size())
}

func TestLoadEnvOverlaysDefaults(t *testing.T) {
	t.Setenv("GRIDRL_DIFFICULTY", "large")
	t.Setenv("GRIDRL_SEED", "42")
	t.Setenv("GRIDRL_STEP_DELAY", "150ms")
	t.Setenv("GRIDRL_LIVE", "false")

	f := DefaultFlags()
	require.NoError(t, f.LoadEnv(filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "large", f.Difficulty)
	assert.Equal(t, uint64(42), f.Seed)
	assert.Equal(t, 150*time.Millisecond, f.StepDelay)
	assert.False(t, f.Live)
	// unset variables keep their defaults
	assert.Equal(t, 10, f.Episodes)
	assert.Equal(t, time.Second, f.EpisodeDelay)
	assert.Equal(t, "qlearning", f.Policy)
}

func TestLoadEnvReadsDotEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("GRIDRL_EPISODES=25\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GRIDRL_EPISODES") })

	f := DefaultFlags()
	require.NoError(t, f.LoadEnv(file))
	assert.Equal(t, 25, f.Episodes)
}

func TestLoadEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("GRIDRL_EPISODES", "many")
	assert.Error(t, DefaultFlags().LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidateAndRunConfig(t *testing.T) {
	f := DefaultFlags()
	require.NoError(t, f.Validate())

	f.Difficulty = "small"
	f.Episodes = 3
	f.StepDelay = 0
	cfg, err := f.RunConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.GridSize)
	assert.Equal(t, 3, cfg.Episodes)
	assert.Zero(t, cfg.StepDelay)
	assert.Equal(t, time.Second, cfg.EpisodeDelay)
	assert.Len(t, cfg.Milestones, 2)

	f.Episodes = -1
	assert.Error(t, f.Validate())

	f.Episodes = 1
	f.Difficulty = "nightmare"
	assert.ErrorIs(t, f.Validate(), ErrUnknownDifficulty)
	_, err = f.RunConfig()
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
}

func TestRecordWritesConfig(t *testing.T) {
	f := DefaultFlags()
	f.SavePath = filepath.Join(t.TempDir(), "results")
	require.NoError(t, f.Record())

	bs, err := os.ReadFile(filepath.Join(f.SavePath, "config.json"))
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"Difficulty": "medium"`)
	assert.Contains(t, string(bs), `"Policy": "qlearning"`)
}
