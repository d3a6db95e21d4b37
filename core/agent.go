package core

type Policy interface {
	ResetEpisode(*EpisodeContext)
	UpdateEpisode(*EpisodeContext)
	// PickAction chooses the next move; the exploration rate is
	// sCtx.Epsilon.
	PickAction(*StepContext, State) Action
	// UpdateStep is called for every accepted transition with the reward
	// of the state reached.
	UpdateStep(*StepContext, State, Action, float64, State)
	Reset()
}

type PolicyConstructor interface {
	NewPolicy(seed uint64) Policy
}

// ValueReader is implemented by policies that expose their learned
// action-values for display.
type ValueReader interface {
	Values(State) ([NumActions]float64, bool)
}
