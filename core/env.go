package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// State is the linear index of a grid cell.
type State int

// Action is one of the four grid moves.
type Action int

const (
	Up Action = iota
	Right
	Down
	Left
)

// NumActions is the length of every action-value vector.
const NumActions = 4

// Actions lists every move in action-index order.
var Actions = []Action{Up, Right, Down, Left}

func (a Action) Hash() string {
	return a.String()
}

func (a Action) String() string {
	switch a {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Environment is a square lattice the agent walks on. Implementations are
// immutable for the duration of an episode; the agent position is owned by
// the runner.
type Environment interface {
	Size() int
	Start() State
	Goal() State
	// Step returns the position reached by taking the action. Moves that
	// would leave the grid return the input position.
	Step(State, Action) State
	RewardAt(State) float64
}

type EnvironmentConstructor interface {
	// NewEnvironment creates the grid used by the given episode number.
	NewEnvironment(int) Environment
}

// EnvironmentFactory builds the constructor for a grid of the given side
// length. It is called on every scheduler reset.
type EnvironmentFactory func(size int) (EnvironmentConstructor, error)

// StepCap is the hard bound on ticks per episode for a grid of side size.
func StepCap(size int) int {
	return 2 * size * size
}

// EpisodeStatus tracks an episode through its state machine.
type EpisodeStatus int

const (
	Idle EpisodeStatus = iota
	Running
	TerminatedGoal
	TerminatedStepCap
)

func (s EpisodeStatus) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case TerminatedGoal:
		return "goal"
	case TerminatedStepCap:
		return "step-cap"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminated reports whether the status is one of the two terminal outcomes.
func (s EpisodeStatus) Terminated() bool {
	return s == TerminatedGoal || s == TerminatedStepCap
}

type EpisodeContext struct {
	Context context.Context
	Session uuid.UUID
	// Episode is the 1-based number of the episode within its session
	Episode int
	Epsilon float64
	StepCap int

	Status      EpisodeStatus
	Position    State
	TotalReward float64
	Ticks       int
	// NextEpsilon is the exploration rate after decay, set on completion
	NextEpsilon float64

	Trace *Trace
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &EpisodeContext{
		Context: ctx,
		Status:  Idle,
	}
}

type StepContext struct {
	Tick int
	*EpisodeContext
}
