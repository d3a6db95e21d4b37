package core

import "time"

type DataSet interface{}

// Analyzer inspects every completed episode.
type Analyzer interface {
	Analyze(*EpisodeContext, *Trace)
	DataSet() DataSet
	Reset()
}

// Milestone is a count of completed episodes worth announcing.
type Milestone struct {
	Episodes int
	// Complete marks the milestone that finishes the training game
	Complete bool
}

// DefaultMilestones are the fifth and the twentieth completed episode.
var DefaultMilestones = []Milestone{
	{Episodes: 5},
	{Episodes: 20, Complete: true},
}

type RunConfig struct {
	GridSize int
	// Episodes is the default batch size
	Episodes     int
	StepDelay    time.Duration
	EpisodeDelay time.Duration
	Milestones   []Milestone
}

func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		GridSize:     7,
		Episodes:     10,
		StepDelay:    200 * time.Millisecond,
		EpisodeDelay: time.Second,
		Milestones:   DefaultMilestones,
	}
}
