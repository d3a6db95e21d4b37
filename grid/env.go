package grid

import (
	"errors"
	"fmt"

	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/util"
	"golang.org/x/exp/rand"
)

var (
	ErrInvalidSize    = errors.New("grid size must be at least 2")
	ErrLayoutMismatch = errors.New("layout does not match grid size")
)

// Environment is an N×N grid with the start in the top-left corner and the
// goal in the bottom-right one.
type Environment struct {
	size  int
	cells []Cell
}

var _ core.Environment = &Environment{}

// Generate draws a fresh layout from r. Every non-terminal cell consumes
// exactly one draw, so a given source always yields the same layout.
func Generate(size int, r *rand.Rand) (*Environment, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	n := size * size
	cells := make([]Cell, n)
	for i := 0; i < n; i++ {
		switch i {
		case 0:
			cells[i] = newCell(i, Start)
		case n - 1:
			cells[i] = newCell(i, Goal)
		default:
			cells[i] = newCell(i, typeForDraw(r.Float64()))
		}
	}
	return &Environment{size: size, cells: cells}, nil
}

// FromTypes builds a fixed layout. The first and last entries are forced to
// start and goal whatever they hold.
func FromTypes(size int, types []CellType) (*Environment, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	n := size * size
	if len(types) != n {
		return nil, fmt.Errorf("%w: %d cells for size %d", ErrLayoutMismatch, len(types), size)
	}
	cells := make([]Cell, n)
	for i, t := range types {
		switch {
		case i == 0:
			t = Start
		case i == n-1:
			t = Goal
		case t == Start || t == Goal:
			t = Neutral
		}
		cells[i] = newCell(i, t)
	}
	return &Environment{size: size, cells: cells}, nil
}

// Uniform is a layout where every intermediate cell has type t.
func Uniform(size int, t CellType) (*Environment, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	types := make([]CellType, size*size)
	for i := range types {
		types[i] = t
	}
	return FromTypes(size, types)
}

func (e *Environment) Size() int {
	return e.size
}

func (e *Environment) Start() core.State {
	return 0
}

func (e *Environment) Goal() core.State {
	return core.State(len(e.cells) - 1)
}

func (e *Environment) Cell(s core.State) Cell {
	return e.cells[s]
}

func (e *Environment) Cells() []Cell {
	return util.CopySlice(e.cells)
}

func (e *Environment) Step(s core.State, a core.Action) core.State {
	row := int(s) / e.size
	col := int(s) % e.size

	switch a {
	case core.Up:
		row--
	case core.Right:
		col++
	case core.Down:
		row++
	case core.Left:
		col--
	}
	if row < 0 || row >= e.size || col < 0 || col >= e.size {
		return s
	}
	return core.State(row*e.size + col)
}

func (e *Environment) RewardAt(s core.State) float64 {
	if s == e.Goal() {
		return GoalReward
	}
	return e.cells[s].Reward
}

// Generator hands out a freshly drawn grid for every episode.
type Generator struct {
	size int
	rand *rand.Rand
}

var _ core.EnvironmentConstructor = &Generator{}

func NewGenerator(size int, r *rand.Rand) (*Generator, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return &Generator{size: size, rand: r}, nil
}

func (g *Generator) NewEnvironment(_ int) core.Environment {
	// size was validated by NewGenerator
	env, _ := Generate(g.size, g.rand)
	return env
}

// Factory returns an environment factory whose generators all share one
// source seeded with seed, so a seeded run is reproducible across resets.
func Factory(seed uint64) core.EnvironmentFactory {
	r := rand.New(rand.NewSource(util.Seed(seed)))
	return func(size int) (core.EnvironmentConstructor, error) {
		return NewGenerator(size, r)
	}
}

// Fixed replays the same layout for every episode.
type Fixed struct {
	Env *Environment
}

var _ core.EnvironmentConstructor = &Fixed{}

func (f *Fixed) NewEnvironment(_ int) core.Environment {
	return f.Env
}

// FixedFactory resets onto a uniform layout of the requested size.
func FixedFactory(t CellType) core.EnvironmentFactory {
	return func(size int) (core.EnvironmentConstructor, error) {
		env, err := Uniform(size, t)
		if err != nil {
			return nil, err
		}
		return &Fixed{Env: env}, nil
	}
}
