package core_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/grid"
	"github.com/zeu5/gridworld-rl/policies"
)

// gatePacer blocks the first Wait until released.
type gatePacer struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatePacer() *gatePacer {
	return &gatePacer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatePacer) Wait(context.Context) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
}

type countingAnalyzer struct {
	episodes []int
	resets   int
}

func (c *countingAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	c.episodes = append(c.episodes, eCtx.Episode)
}

func (c *countingAnalyzer) DataSet() core.DataSet { return len(c.episodes) }

func (c *countingAnalyzer) Reset() {
	c.episodes = nil
	c.resets++
}

func headlessConfig(size int) *core.RunConfig {
	cfg := core.DefaultRunConfig()
	cfg.GridSize = size
	cfg.StepDelay = 0
	cfg.EpisodeDelay = 0
	return cfg
}

func newTestScheduler(t *testing.T, size int, opts ...core.Option) *core.Scheduler {
	t.Helper()
	q := policies.NewQLearningPolicy(policies.DefaultAlpha, policies.DefaultGamma, 11)
	s, err := core.NewScheduler(headlessConfig(size), grid.FixedFactory(grid.Neutral), q, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSchedulerRejectsInvalidSize(t *testing.T) {
	q := policies.NewQLearningPolicy(policies.DefaultAlpha, policies.DefaultGamma, 1)
	_, err := core.NewScheduler(headlessConfig(1), grid.Factory(1), q)
	assert.ErrorIs(t, err, grid.ErrInvalidSize)
}

func TestFreshSession(t *testing.T) {
	s := newTestScheduler(t, 5)
	p := s.Snapshot()

	assert.Equal(t, 5, p.GridSize)
	assert.Zero(t, p.Episodes)
	assert.Equal(t, core.InitialEpsilon, p.Epsilon)
	assert.Zero(t, p.LastReward)
	assert.Zero(t, p.MeanReward)
	assert.Empty(t, p.Rewards)
	assert.False(t, p.EpisodeBusy)
	assert.False(t, p.BatchBusy)

	require.Len(t, p.Values, 5)
	for _, v := range p.Values {
		assert.False(t, v.Known)
	}
}

func TestEpsilonDecaysPerEpisode(t *testing.T) {
	s := newTestScheduler(t, 3)

	expected := core.InitialEpsilon
	for i := 1; i <= 60; i++ {
		_, ok := s.RunEpisode(context.Background())
		require.True(t, ok)
		expected = core.DecayEpsilon(expected)

		p := s.Snapshot()
		assert.Equal(t, i, p.Episodes)
		assert.Equal(t, expected, p.Epsilon)
		assert.InDelta(t, math.Max(0.1, math.Pow(0.95, float64(i))), p.Epsilon, 1e-9)
	}
	assert.Equal(t, core.MinEpsilon, s.Session().Epsilon())
}

func TestDecayEpsilon(t *testing.T) {
	assert.InDelta(t, 0.95, core.DecayEpsilon(1), 1e-12)
	assert.Equal(t, core.MinEpsilon, core.DecayEpsilon(0.1))
	assert.Equal(t, core.MinEpsilon, core.DecayEpsilon(0.105))
}

func TestRewardHistory(t *testing.T) {
	s := newTestScheduler(t, 3)

	var results []*core.EpisodeResult
	for i := 0; i < 4; i++ {
		r, ok := s.RunEpisode(context.Background())
		require.True(t, ok)
		results = append(results, r)
	}

	p := s.Snapshot()
	require.Len(t, p.Rewards, 4)
	sum := 0.0
	for i, r := range results {
		assert.Equal(t, i+1, r.Episode)
		assert.Equal(t, r.TotalReward, p.Rewards[i])
		sum += r.TotalReward
	}
	assert.Equal(t, results[3].TotalReward, p.LastReward)
	assert.InDelta(t, sum/4, p.MeanReward, 1e-9)

	// the copy handed out does not alias the session
	p.Rewards[0] = 1e6
	assert.NotEqual(t, 1e6, s.Session().Rewards()[0])
}

func TestBatchCompletesAllEpisodes(t *testing.T) {
	counter := &countingAnalyzer{}
	s := newTestScheduler(t, 3, core.WithAnalyzer("Count", counter))

	completed, ok := s.RunBatch(context.Background(), 10)
	require.True(t, ok)
	assert.Equal(t, 10, completed)
	assert.Equal(t, 10, s.Session().Episodes())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, counter.episodes)
	assert.Equal(t, map[string]core.DataSet{"Count": 10}, s.DataSets())

	completed, ok = s.RunBatch(context.Background(), 0)
	assert.True(t, ok)
	assert.Zero(t, completed)
}

func TestBatchStopsOnCancelledContext(t *testing.T) {
	s := newTestScheduler(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completed, ok := s.RunBatch(ctx, 5)
	assert.True(t, ok)
	assert.Zero(t, completed)
	assert.Zero(t, s.Session().Episodes())
}

func TestCancelledEpisodeRunsToTerminalOutcome(t *testing.T) {
	cfg := headlessConfig(3)
	cfg.StepDelay = time.Hour
	q := policies.NewQLearningPolicy(policies.DefaultAlpha, policies.DefaultGamma, 1)
	s, err := core.NewScheduler(cfg, grid.FixedFactory(grid.Neutral), q)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, ok := s.RunEpisode(ctx)
	require.True(t, ok)
	assert.True(t, result.Status.Terminated())
	assert.Equal(t, 1, s.Session().Episodes())
}

func TestEpisodeIsNotReentrant(t *testing.T) {
	gate := newGatePacer()
	s := newTestScheduler(t, 3, core.WithStepPacer(gate))

	done := make(chan bool)
	go func() {
		_, ok := s.RunEpisode(context.Background())
		done <- ok
	}()
	<-gate.started

	result, ok := s.RunEpisode(context.Background())
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.True(t, s.Snapshot().EpisodeBusy)
	assert.ErrorIs(t, s.Reset(3), core.ErrSessionBusy)
	assert.Zero(t, s.Session().Episodes())

	close(gate.release)
	assert.True(t, <-done)
	assert.Equal(t, 1, s.Session().Episodes())
	assert.False(t, s.Session().Busy())
}

func TestBatchIsNotReentrant(t *testing.T) {
	gate := newGatePacer()
	s := newTestScheduler(t, 3, core.WithStepPacer(gate))

	done := make(chan int)
	go func() {
		completed, _ := s.RunBatch(context.Background(), 3)
		done <- completed
	}()
	<-gate.started

	completed, ok := s.RunBatch(context.Background(), 3)
	assert.False(t, ok)
	assert.Zero(t, completed)
	assert.True(t, s.Snapshot().BatchBusy)
	assert.ErrorIs(t, s.Reset(3), core.ErrSessionBusy)

	close(gate.release)
	assert.Equal(t, 3, <-done)
	assert.Equal(t, 3, s.Session().Episodes())
}

func TestListenerCannotStartEpisode(t *testing.T) {
	var s *core.Scheduler
	var nested []bool
	listener := func(e core.Event) {
		if _, ok := e.(core.EpisodeCompleted); ok {
			_, started := s.RunEpisode(context.Background())
			nested = append(nested, started)
		}
	}
	s = newTestScheduler(t, 3, core.WithListener(listener))

	_, ok := s.RunEpisode(context.Background())
	require.True(t, ok)
	assert.Equal(t, []bool{false}, nested)
	assert.Equal(t, 1, s.Session().Episodes())
}

func TestEventsAndMilestones(t *testing.T) {
	var events []core.Event
	s := newTestScheduler(t, 3, core.WithListener(func(e core.Event) {
		events = append(events, e)
	}))
	session := s.Session().ID

	completed, _ := s.RunBatch(context.Background(), 25)
	require.Equal(t, 25, completed)

	var milestones []core.MilestoneReached
	episode := 0
	for i, e := range events {
		switch ev := e.(type) {
		case core.EpisodeCompleted:
			episode++
			assert.Equal(t, episode, ev.Episode)
			assert.Equal(t, session, ev.Session)
			assert.True(t, ev.Status.Terminated())
		case core.MilestoneReached:
			// milestones follow the episode that crossed them
			prev, ok := events[i-1].(core.EpisodeCompleted)
			require.True(t, ok)
			assert.Equal(t, prev.Episode, ev.Episodes)
			milestones = append(milestones, ev)
		}
	}
	require.Len(t, milestones, 2)
	assert.Equal(t, core.Milestone{Episodes: 5}, milestones[0].Milestone)
	assert.Equal(t, core.Milestone{Episodes: 20, Complete: true}, milestones[1].Milestone)

	// a fresh session does not announce the same milestones again
	require.NoError(t, s.Reset(3))
	events = nil
	completed, _ = s.RunBatch(context.Background(), 25)
	require.Equal(t, 25, completed)
	for _, e := range events {
		_, isMilestone := e.(core.MilestoneReached)
		assert.False(t, isMilestone)
	}
	assert.Len(t, events, 25)
}

func TestResetStartsNewSession(t *testing.T) {
	counter := &countingAnalyzer{}
	s := newTestScheduler(t, 3, core.WithAnalyzer("Count", counter))
	first := s.Session().ID

	_, ok := s.RunBatch(context.Background(), 5)
	require.True(t, ok)
	q := s.Policy().(*policies.QLearningPolicy)
	require.NotZero(t, q.QTable().Size())

	require.NoError(t, s.Reset(5))
	p := s.Snapshot()
	assert.NotEqual(t, first, p.Session)
	assert.Equal(t, 5, p.GridSize)
	assert.Equal(t, 5, s.Environment().Size())
	assert.Zero(t, p.Episodes)
	assert.Equal(t, core.InitialEpsilon, p.Epsilon)
	assert.Empty(t, p.Rewards)
	assert.Zero(t, q.QTable().Size())
	assert.Empty(t, counter.episodes)
	assert.Equal(t, 2, counter.resets)
}

func TestFailedResetKeepsSession(t *testing.T) {
	s := newTestScheduler(t, 3)
	_, ok := s.RunEpisode(context.Background())
	require.True(t, ok)
	before := s.Session()

	err := s.Reset(0)
	assert.ErrorIs(t, err, grid.ErrInvalidSize)
	assert.Same(t, before, s.Session())
	assert.Equal(t, 3, s.Environment().Size())
	assert.Equal(t, 1, s.Session().Episodes())
}

func TestSnapshotValues(t *testing.T) {
	s := newTestScheduler(t, 5)
	q := s.Policy().(*policies.QLearningPolicy)
	q.QTable().Set(1, core.Right, 2.5)

	p := s.Snapshot()
	require.Len(t, p.Values, 5)
	assert.Equal(t, core.State(1), p.Values[1].State)
	assert.True(t, p.Values[1].Known)
	assert.Equal(t, 2.5, p.Values[1].Values[core.Right])
	assert.False(t, p.Values[0].Known)
}

func TestSampleStates(t *testing.T) {
	assert.Equal(t, []core.State{0, 1, 2, 3}, core.SampleStates(2))
	assert.Equal(t, []core.State{0, 1, 2, 3, 8}, core.SampleStates(3))
	assert.Equal(t, []core.State{0, 1, 2, 5, 24}, core.SampleStates(5))
	assert.Equal(t, []core.State{0, 1, 2, 10, 99}, core.SampleStates(10))
}

func TestEachEpisodeGetsFreshGridAndKeepsTable(t *testing.T) {
	q := policies.NewQLearningPolicy(policies.DefaultAlpha, policies.DefaultGamma, 5)
	s, err := core.NewScheduler(headlessConfig(7), grid.Factory(5), q)
	require.NoError(t, err)

	prev := s.Environment().(*grid.Environment).Cells()
	known := q.QTable().Size()
	for i := 0; i < 5; i++ {
		_, ok := s.RunEpisode(context.Background())
		require.True(t, ok)

		cells := s.Environment().(*grid.Environment).Cells()
		assert.NotEqual(t, prev, cells, "episode %d reused the grid", i+1)
		prev = cells

		assert.GreaterOrEqual(t, q.QTable().Size(), known)
		known = q.QTable().Size()
	}
	assert.NotZero(t, known)

	// a reset draws a new grid and forgets the table
	require.NoError(t, s.Reset(7))
	assert.NotEqual(t, prev, s.Environment().(*grid.Environment).Cells())
	assert.Zero(t, q.QTable().Size())
}

func TestBatchSkipsIterationsThatCollideWithEpisode(t *testing.T) {
	gate := newGatePacer()
	s := newTestScheduler(t, 3, core.WithStepPacer(gate))

	done := make(chan bool)
	go func() {
		_, ok := s.RunEpisode(context.Background())
		done <- ok
	}()
	<-gate.started

	completed, ok := s.RunBatch(context.Background(), 2)
	assert.True(t, ok)
	assert.Zero(t, completed)

	close(gate.release)
	require.True(t, <-done)
	assert.Equal(t, 1, s.Session().Episodes())
}

func TestDataSetsDuringBatch(t *testing.T) {
	counter := &countingAnalyzer{}
	s := newTestScheduler(t, 3, core.WithAnalyzer("Count", counter))

	stop := make(chan struct{})
	reads := make(chan int)
	go func() {
		n := 0
		for {
			_ = s.DataSets()
			n++
			select {
			case <-stop:
				reads <- n
				return
			default:
			}
		}
	}()

	completed, ok := s.RunBatch(context.Background(), 20)
	close(stop)
	require.True(t, ok)
	assert.Equal(t, 20, completed)
	assert.Positive(t, <-reads)
	assert.Equal(t, map[string]core.DataSet{"Count": 20}, s.DataSets())
}
