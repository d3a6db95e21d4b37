package core

// StepObserver is called after every tick, accepted or not. It is meant for
// display refreshes and must not start episodes itself.
type StepObserver func(*StepContext, Environment)

type EpisodeResult struct {
	Episode     int
	Status      EpisodeStatus
	TotalReward float64
	Path        []State
	// Steps counts accepted moves, Ticks counts every policy decision
	Steps int
	Ticks int
}

// Runner drives a single episode tick by tick.
type Runner struct {
	Policy   Policy
	Pacer    Pacer
	Observer StepObserver
}

func NewRunner(policy Policy, pacer Pacer) *Runner {
	if pacer == nil {
		pacer = NoDelay{}
	}
	return &Runner{
		Policy: policy,
		Pacer:  pacer,
	}
}

// Run plays one episode on env until the goal is reached or the step cap
// is spent. eCtx.Epsilon is used for every decision; eCtx.StepCap defaults
// to StepCap(env.Size()). There is no cancellation: a done context only
// collapses the pacing delays.
func (r *Runner) Run(eCtx *EpisodeContext, env Environment) *EpisodeResult {
	if eCtx.StepCap <= 0 {
		eCtx.StepCap = StepCap(env.Size())
	}
	pos := env.Start()
	goal := env.Goal()
	eCtx.Position = pos
	eCtx.Trace = NewTrace(pos)
	eCtx.Status = Running

	for tick := 1; tick <= eCtx.StepCap; tick++ {
		r.Pacer.Wait(eCtx.Context)

		eCtx.Ticks = tick
		sCtx := &StepContext{Tick: tick, EpisodeContext: eCtx}
		action := r.Policy.PickAction(sCtx, pos)
		next := env.Step(pos, action)
		if next == pos {
			// wall bump: the tick is spent, nothing is learned
			r.observe(sCtx, env)
			continue
		}

		reward := env.RewardAt(next)
		r.Policy.UpdateStep(sCtx, pos, action, reward, next)
		eCtx.Trace.AddStep(&Step{
			Tick:      tick,
			State:     pos,
			Action:    action,
			Reward:    reward,
			NextState: next,
		})
		eCtx.TotalReward += reward
		pos = next
		eCtx.Position = pos
		r.observe(sCtx, env)

		if pos == goal {
			eCtx.Status = TerminatedGoal
			return r.result(eCtx)
		}
	}
	eCtx.Status = TerminatedStepCap
	return r.result(eCtx)
}

func (r *Runner) observe(sCtx *StepContext, env Environment) {
	if r.Observer != nil {
		r.Observer(sCtx, env)
	}
}

func (r *Runner) result(eCtx *EpisodeContext) *EpisodeResult {
	return &EpisodeResult{
		Episode:     eCtx.Episode,
		Status:      eCtx.Status,
		TotalReward: eCtx.TotalReward,
		Path:        eCtx.Trace.Path(),
		Steps:       eCtx.Trace.Len(),
		Ticks:       eCtx.Ticks,
	}
}
