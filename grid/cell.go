package grid

import "fmt"

type CellType int

const (
	Neutral CellType = iota
	Start
	Goal
	Good
	Bad
)

func (t CellType) String() string {
	switch t {
	case Neutral:
		return "neutral"
	case Start:
		return "start"
	case Goal:
		return "goal"
	case Good:
		return "good"
	case Bad:
		return "bad"
	}
	return fmt.Sprintf("celltype(%d)", int(t))
}

const (
	GoodReward    = 10.0
	BadReward     = -5.0
	NeutralReward = -1.0
	// GoalReward is awarded on arrival; goal cells store no reward
	GoalReward = 20.0
)

// Draw thresholds for non-terminal cells: below GoodThreshold is good,
// below BadThreshold is bad, anything else is neutral.
const (
	GoodThreshold = 0.30
	BadThreshold  = 0.45
)

// Cell is one square of the grid. Cells never change once generated.
type Cell struct {
	Index  int
	Type   CellType
	Reward float64
}

func newCell(index int, t CellType) Cell {
	c := Cell{Index: index, Type: t}
	switch t {
	case Good:
		c.Reward = GoodReward
	case Bad:
		c.Reward = BadReward
	case Neutral:
		c.Reward = NeutralReward
	}
	return c
}

// typeForDraw maps a uniform draw in [0,1) to a cell type.
func typeForDraw(r float64) CellType {
	switch {
	case r < GoodThreshold:
		return Good
	case r < BadThreshold:
		return Bad
	default:
		return Neutral
	}
}
