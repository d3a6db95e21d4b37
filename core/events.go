package core

import "github.com/google/uuid"

// Event is delivered to listeners after an episode completes.
type Event interface {
	Name() string
}

type EpisodeCompleted struct {
	Session     uuid.UUID
	Episode     int
	TotalReward float64
	// Epsilon is the exploration rate after decay
	Epsilon float64
	Status  EpisodeStatus
	Steps   int
}

func (EpisodeCompleted) Name() string { return "episode-completed" }

// MilestoneReached fires at most once per threshold for the lifetime of a
// scheduler, resets included.
type MilestoneReached struct {
	Session uuid.UUID
	Milestone
}

func (MilestoneReached) Name() string { return "milestone-reached" }

type Listener func(Event)
