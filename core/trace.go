package core

import "sync"

type Step struct {
	Tick      int
	State     State
	Action    Action
	Reward    float64
	NextState State
}

// Trace records the accepted transitions of one episode. Rejected moves
// never appear in it.
type Trace struct {
	mtx   *sync.Mutex
	start State
	steps []*Step
}

func NewTrace(start State) *Trace {
	return &Trace{
		start: start,
		steps: make([]*Step, 0),
		mtx:   &sync.Mutex{},
	}
}

func (t *Trace) AddStep(s *Step) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.steps[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// Path returns every visited position, starting with the start cell.
func (t *Trace) Path() []State {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	path := make([]State, 0, len(t.steps)+1)
	path = append(path, t.start)
	for _, s := range t.steps {
		path = append(path, s.NextState)
	}
	return path
}
