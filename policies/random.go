package policies

import (
	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/util"
	"golang.org/x/exp/rand"
)

// RandomPolicy wanders uniformly and never learns. It is the baseline the
// learning curve of QLearningPolicy is compared against.
type RandomPolicy struct {
	rand *rand.Rand
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(util.Seed(seed))),
	}
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (r *RandomPolicy) PickAction(_ *core.StepContext, _ core.State) core.Action {
	return core.Action(r.rand.Intn(core.NumActions))
}

func (r *RandomPolicy) UpdateStep(_ *core.StepContext, _ core.State, _ core.Action, _ float64, _ core.State) {
}

func (r *RandomPolicy) ResetEpisode(_ *core.EpisodeContext) {}

type RandomPolicyConstructor struct{}

var _ core.PolicyConstructor = &RandomPolicyConstructor{}

func (r *RandomPolicyConstructor) NewPolicy(seed uint64) core.Policy {
	return NewRandomPolicy(seed)
}
