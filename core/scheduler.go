package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// StateValues is one row of the learned-values display.
type StateValues struct {
	State  State
	Values [NumActions]float64
	// Known is false when the agent has never updated the state
	Known bool
}

// Progress is a read-only view of the training session.
type Progress struct {
	Session     uuid.UUID
	GridSize    int
	Episodes    int
	Epsilon     float64
	LastReward  float64
	MeanReward  float64
	Rewards     []float64
	Values      []StateValues
	EpisodeBusy bool
	BatchBusy   bool
}

type Option func(*Scheduler)

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

func WithAnalyzer(name string, a Analyzer) Option {
	return func(s *Scheduler) { s.analyzers[name] = a }
}

func WithListener(l Listener) Option {
	return func(s *Scheduler) { s.listeners = append(s.listeners, l) }
}

func WithObserver(o StepObserver) Option {
	return func(s *Scheduler) { s.runner.Observer = o }
}

// WithStepPacer overrides the pacer built from RunConfig.StepDelay.
func WithStepPacer(p Pacer) Option {
	return func(s *Scheduler) { s.runner.Pacer = p }
}

// WithEpisodePacer overrides the pacer built from RunConfig.EpisodeDelay.
func WithEpisodePacer(p Pacer) Option {
	return func(s *Scheduler) { s.episodePacer = p }
}

// Scheduler sequences episodes of one training session. It is the only
// component callers interact with; at most one episode and one batch run
// at a time.
type Scheduler struct {
	config       *RunConfig
	factory      EnvironmentFactory
	policy       *guardedPolicy
	runner       *Runner
	episodePacer Pacer
	logger       *log.Logger
	listeners    []Listener

	// amtx guards analyzer state against DataSets readers
	amtx      sync.Mutex
	analyzers map[string]Analyzer

	mtx     sync.Mutex
	session *TrainingSession
	envs    EnvironmentConstructor
	env     Environment
	fired   map[int]bool
}

func NewScheduler(config *RunConfig, factory EnvironmentFactory, policy Policy, opts ...Option) (*Scheduler, error) {
	if config == nil {
		config = DefaultRunConfig()
	}
	guarded := &guardedPolicy{mtx: new(sync.RWMutex), policy: policy}
	s := &Scheduler{
		config:       config,
		factory:      factory,
		policy:       guarded,
		runner:       NewRunner(guarded, NewPacer(config.StepDelay)),
		episodePacer: NewPacer(config.EpisodeDelay),
		logger:       log.New(io.Discard, "", 0),
		analyzers:    make(map[string]Analyzer),
		listeners:    make([]Listener, 0),
		fired:        make(map[int]bool),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.Reset(config.GridSize); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset starts a new session on a grid of the given side length. The
// learned table and the session counters are cleared; milestones already
// announced stay announced.
func (s *Scheduler) Reset(size int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.session != nil && s.session.Busy() {
		return ErrSessionBusy
	}
	envs, err := s.factory(size)
	if err != nil {
		return fmt.Errorf("reset grid of size %d: %w", size, err)
	}
	s.envs = envs
	s.env = envs.NewEnvironment(0)
	s.session = NewTrainingSession(size)
	s.policy.Reset()
	s.amtx.Lock()
	for _, a := range s.analyzers {
		a.Reset()
	}
	s.amtx.Unlock()
	s.logger.Printf("[SCHEDULER] [INFO] session %s reset with %dx%d grid", s.session.ID, size, size)
	return nil
}

func (s *Scheduler) Session() *TrainingSession {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.session
}

// Policy returns the agent being trained.
func (s *Scheduler) Policy() Policy {
	return s.policy.policy
}

// Environment returns the grid the next episode will run on.
func (s *Scheduler) Environment() Environment {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.env
}

func (s *Scheduler) Subscribe(l Listener) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.listeners = append(s.listeners, l)
}

// RunEpisode plays one episode to a terminal outcome. It returns false
// without touching any state when another episode is already running.
func (s *Scheduler) RunEpisode(ctx context.Context) (*EpisodeResult, bool) {
	s.mtx.Lock()
	session := s.session
	if !session.episodeRunning.CompareAndSwap(false, true) {
		s.mtx.Unlock()
		return nil, false
	}
	env := s.env
	s.mtx.Unlock()
	defer session.episodeRunning.Store(false)

	eCtx := NewEpisodeContext(ctx)
	eCtx.Session = session.ID
	eCtx.Episode = session.Episodes() + 1
	eCtx.Epsilon = session.Epsilon()
	eCtx.StepCap = StepCap(env.Size())

	s.policy.ResetEpisode(eCtx)
	result := s.runner.Run(eCtx, env)
	s.policy.UpdateEpisode(eCtx)

	episodes, epsilon := session.complete(result.TotalReward)
	eCtx.NextEpsilon = epsilon

	s.mtx.Lock()
	if s.session == session {
		s.env = s.envs.NewEnvironment(episodes)
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mtx.Unlock()

	s.amtx.Lock()
	for _, name := range s.analyzerNames() {
		s.analyzers[name].Analyze(eCtx, eCtx.Trace)
	}
	s.amtx.Unlock()

	s.logger.Printf(
		"[SCHEDULER] [INFO] episode %d finished (%s) reward=%.1f steps=%d ticks=%d epsilon=%.3f",
		episodes, result.Status, result.TotalReward, result.Steps, result.Ticks, epsilon,
	)

	// listeners run while the episode guard is still held so a display
	// refresh that triggers another episode is ignored
	s.emit(listeners, EpisodeCompleted{
		Session:     session.ID,
		Episode:     episodes,
		TotalReward: result.TotalReward,
		Epsilon:     epsilon,
		Status:      result.Status,
		Steps:       result.Steps,
	})
	for _, m := range s.crossed(episodes) {
		s.logger.Printf("[SCHEDULER] [INFO] milestone: %d episodes", m.Episodes)
		s.emit(listeners, MilestoneReached{Session: session.ID, Milestone: m})
	}
	return result, true
}

// RunBatch plays n episodes back to back with the episode delay between
// them. It returns false when a batch is already running. A done context
// stops the batch before the next episode starts. The count returned is the
// number of episodes actually completed: an iteration that collides with an
// episode started through RunEpisode is skipped, not retried.
func (s *Scheduler) RunBatch(ctx context.Context, n int) (int, bool) {
	s.mtx.Lock()
	session := s.session
	if !session.batchRunning.CompareAndSwap(false, true) {
		s.mtx.Unlock()
		return 0, false
	}
	s.mtx.Unlock()
	defer session.batchRunning.Store(false)

	completed := 0
BatchLoop:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			s.logger.Printf("[SCHEDULER] [INFO] batch stopped after %d/%d episodes: %v", completed, n, ctx.Err())
			break BatchLoop
		default:
		}
		if _, ok := s.RunEpisode(ctx); ok {
			completed++
		}
		if i < n-1 {
			s.episodePacer.Wait(ctx)
		}
	}
	return completed, true
}

// Snapshot reports the session counters and the action-values of the
// sample states.
func (s *Scheduler) Snapshot() Progress {
	session := s.Session()
	p := Progress{
		Session:     session.ID,
		GridSize:    session.Size,
		Episodes:    session.Episodes(),
		Epsilon:     session.Epsilon(),
		LastReward:  session.LastReward(),
		Rewards:     session.Rewards(),
		EpisodeBusy: session.EpisodeRunning(),
		BatchBusy:   session.BatchRunning(),
	}
	if len(p.Rewards) > 0 {
		p.MeanReward = stat.Mean(p.Rewards, nil)
	}
	if vr, ok := s.policy.policy.(ValueReader); ok {
		s.policy.mtx.RLock()
		for _, state := range SampleStates(session.Size) {
			values, known := vr.Values(state)
			p.Values = append(p.Values, StateValues{State: state, Values: values, Known: known})
		}
		s.policy.mtx.RUnlock()
	}
	return p
}

// SampleStates are the landmark cells shown in the learned-values table:
// start, its two right neighbours, the cell below start and the goal.
func SampleStates(size int) []State {
	candidates := []int{0, 1, 2, size, size*size - 1}
	seen := make(map[int]bool)
	out := make([]State, 0, len(candidates))
	for _, c := range candidates {
		if c < 0 || c >= size*size || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, State(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DataSets collects every analyzer's data. It may be called while an
// episode runs; analyzers are never read mid-update.
func (s *Scheduler) DataSets() map[string]DataSet {
	s.amtx.Lock()
	defer s.amtx.Unlock()
	out := make(map[string]DataSet)
	for name, a := range s.analyzers {
		out[name] = a.DataSet()
	}
	return out
}

func (s *Scheduler) crossed(episodes int) []Milestone {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]Milestone, 0)
	for _, m := range s.config.Milestones {
		if m.Episodes == episodes && !s.fired[m.Episodes] {
			s.fired[m.Episodes] = true
			out = append(out, m)
		}
	}
	return out
}

func (s *Scheduler) analyzerNames() []string {
	names := make([]string, 0, len(s.analyzers))
	for name := range s.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) emit(listeners []Listener, e Event) {
	for _, l := range listeners {
		l(e)
	}
}

// guardedPolicy serialises policy calls so Snapshot may read learned values
// from a display goroutine while an episode runs.
type guardedPolicy struct {
	mtx    *sync.RWMutex
	policy Policy
}

var _ Policy = &guardedPolicy{}

func (g *guardedPolicy) ResetEpisode(eCtx *EpisodeContext) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.policy.ResetEpisode(eCtx)
}

func (g *guardedPolicy) UpdateEpisode(eCtx *EpisodeContext) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.policy.UpdateEpisode(eCtx)
}

func (g *guardedPolicy) PickAction(sCtx *StepContext, state State) Action {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.policy.PickAction(sCtx, state)
}

func (g *guardedPolicy) UpdateStep(sCtx *StepContext, state State, action Action, reward float64, next State) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.policy.UpdateStep(sCtx, state, action, reward, next)
}

func (g *guardedPolicy) Reset() {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.policy.Reset()
}
