package policies

import (
	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/util"
	"golang.org/x/exp/rand"
)

const (
	DefaultAlpha = 0.1
	DefaultGamma = 0.9
)

// QLearningPolicy is a tabular one-step Q-learning agent with an
// epsilon-greedy behaviour policy.
type QLearningPolicy struct {
	qTable *QTable
	alpha  float64
	gamma  float64
	rand   *rand.Rand
}

var _ core.Policy = &QLearningPolicy{}
var _ core.ValueReader = &QLearningPolicy{}

func NewQLearningPolicy(alpha, gamma float64, seed uint64) *QLearningPolicy {
	return &QLearningPolicy{
		qTable: NewQTable(),
		alpha:  alpha,
		gamma:  gamma,
		rand:   rand.New(rand.NewSource(util.Seed(seed))),
	}
}

func (q *QLearningPolicy) QTable() *QTable {
	return q.qTable
}

func (q *QLearningPolicy) Record(path string) error {
	return q.qTable.Record(path)
}

// Reset forgets everything learned. The random source is kept so seeded
// runs stay reproducible across resets.
func (q *QLearningPolicy) Reset() {
	q.qTable = NewQTable()
}

func (q *QLearningPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (q *QLearningPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (q *QLearningPolicy) PickAction(step *core.StepContext, state core.State) core.Action {
	return q.SelectAction(state, step.Epsilon)
}

// SelectAction explores uniformly with probability epsilon and otherwise
// takes the best known action, preferring the lowest index on ties.
func (q *QLearningPolicy) SelectAction(state core.State, epsilon float64) core.Action {
	if q.rand.Float64() < epsilon {
		return core.Action(q.rand.Intn(core.NumActions))
	}
	action, _ := q.qTable.Max(state)
	return action
}

func (q *QLearningPolicy) UpdateStep(_ *core.StepContext, state core.State, action core.Action, reward float64, nextState core.State) {
	q.Update(state, action, reward, nextState)
}

// Update applies Q(s,a) += alpha * (r + gamma * max Q(s') - Q(s,a)).
func (q *QLearningPolicy) Update(state core.State, action core.Action, reward float64, nextState core.State) {
	if !q.qTable.HasState(state) {
		q.qTable.Set(state, action, 0)
	}
	curVal := q.qTable.Get(state, action)
	_, maxNext := q.qTable.Max(nextState)
	q.qTable.Set(state, action, curVal+q.alpha*(reward+q.gamma*maxNext-curVal))
}

func (q *QLearningPolicy) Values(state core.State) ([core.NumActions]float64, bool) {
	return q.qTable.GetAll(state)
}

type QLearningPolicyConstructor struct {
	alpha float64
	gamma float64
}

var _ core.PolicyConstructor = &QLearningPolicyConstructor{}

func NewQLearningPolicyConstructor(alpha, gamma float64) *QLearningPolicyConstructor {
	return &QLearningPolicyConstructor{
		alpha: alpha,
		gamma: gamma,
	}
}

func (c *QLearningPolicyConstructor) NewPolicy(seed uint64) core.Policy {
	return NewQLearningPolicy(c.alpha, c.gamma, seed)
}
