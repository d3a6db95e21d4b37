package core

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zeu5/gridworld-rl/util"
)

const (
	InitialEpsilon = 1.0
	MinEpsilon     = 0.1
	EpsilonDecay   = 0.95
)

var ErrSessionBusy = errors.New("training session has an episode or batch in progress")

// DecayEpsilon applies one episode's worth of exploration decay.
func DecayEpsilon(epsilon float64) float64 {
	return util.MaxFloat(MinEpsilon, epsilon*EpsilonDecay)
}

// TrainingSession is the aggregate state of one training run. Counters only
// change when an episode completes.
type TrainingSession struct {
	ID   uuid.UUID
	Size int

	mtx        sync.Mutex
	episodes   int
	epsilon    float64
	rewards    []float64
	lastReward float64

	episodeRunning atomic.Bool
	batchRunning   atomic.Bool
}

func NewTrainingSession(size int) *TrainingSession {
	return &TrainingSession{
		ID:      uuid.New(),
		Size:    size,
		epsilon: InitialEpsilon,
		rewards: make([]float64, 0),
	}
}

func (s *TrainingSession) Episodes() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.episodes
}

func (s *TrainingSession) Epsilon() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.epsilon
}

func (s *TrainingSession) LastReward() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.lastReward
}

// Rewards returns a copy of the per-episode reward history.
func (s *TrainingSession) Rewards() []float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return util.CopySlice(s.rewards)
}

// Busy reports whether an episode or a batch is in flight.
func (s *TrainingSession) Busy() bool {
	return s.episodeRunning.Load() || s.batchRunning.Load()
}

func (s *TrainingSession) EpisodeRunning() bool {
	return s.episodeRunning.Load()
}

func (s *TrainingSession) BatchRunning() bool {
	return s.batchRunning.Load()
}

// complete folds a finished episode into the session and returns the new
// episode count and the decayed exploration rate.
func (s *TrainingSession) complete(reward float64) (int, float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.episodes++
	s.lastReward = reward
	s.rewards = append(s.rewards, reward)
	s.epsilon = DecayEpsilon(s.epsilon)
	return s.episodes, s.epsilon
}
