package grid

import (
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/zeu5/gridworld-rl/core"
)

// Painter renders a grid as text, one row per line.
//
//	A agent   S start   G goal   + good   - bad   . neutral   * path
type Painter struct {
	au aurora.Aurora
}

// NewPainter returns a painter; colors can be turned off for plain output.
func NewPainter(colors bool) *Painter {
	return &Painter{au: aurora.NewAurora(colors)}
}

func (p *Painter) Paint(env *Environment, agent core.State, path []core.State) string {
	onPath := make(map[core.State]bool, len(path))
	for _, s := range path {
		onPath[s] = true
	}

	var b strings.Builder
	for row := 0; row < env.Size(); row++ {
		for col := 0; col < env.Size(); col++ {
			s := core.State(row*env.Size() + col)
			if col > 0 {
				b.WriteString(" ")
			}
			b.WriteString(p.cell(env.Cell(s), s == agent, onPath[s]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *Painter) cell(c Cell, agent, onPath bool) string {
	if agent {
		return p.au.Bold(p.au.Magenta("A")).String()
	}
	switch c.Type {
	case Start:
		return p.au.Cyan("S").String()
	case Goal:
		return p.au.Yellow("G").String()
	}
	symbol := "."
	if onPath {
		symbol = "*"
	}
	switch c.Type {
	case Good:
		if !onPath {
			symbol = "+"
		}
		return p.au.Green(symbol).String()
	case Bad:
		if !onPath {
			symbol = "-"
		}
		return p.au.Red(symbol).String()
	}
	return p.au.Blue(symbol).String()
}
