package policies

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/util"
	"gonum.org/v1/gonum/floats"
)

// QTable maps a state to its action-value vector. States never updated are
// absent and read as the zero vector.
type QTable struct {
	table map[core.State]*[core.NumActions]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[core.State]*[core.NumActions]float64),
	}
}

// GetAll returns the vector of state and whether the state is known.
func (q *QTable) GetAll(state core.State) ([core.NumActions]float64, bool) {
	values, ok := q.table[state]
	if !ok {
		return [core.NumActions]float64{}, false
	}
	return *values, true
}

func (q *QTable) Get(state core.State, action core.Action) float64 {
	values, ok := q.table[state]
	if !ok {
		return 0
	}
	return values[action]
}

func (q *QTable) Set(state core.State, action core.Action, val float64) {
	values, ok := q.table[state]
	if !ok {
		values = &[core.NumActions]float64{}
		q.table[state] = values
	}
	values[action] = val
}

func (q *QTable) HasState(state core.State) bool {
	_, ok := q.table[state]
	return ok
}

// Max returns the best action of state and its value. Ties go to the lowest
// action index; unknown states yield (Up, 0).
func (q *QTable) Max(state core.State) (core.Action, float64) {
	values, ok := q.table[state]
	if !ok {
		return core.Up, 0
	}
	i := floats.MaxIdx(values[:])
	return core.Action(i), values[i]
}

func (q *QTable) Size() int {
	return len(q.table)
}

// States returns the known states in ascending order.
func (q *QTable) States() []core.State {
	states := make([]core.State, 0, len(q.table))
	for s := range q.table {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

type qTableEntry struct {
	State   core.State         `json:"state"`
	Entries map[string]float64 `json:"entries"`
}

// Record writes the table as JSON lines to path + ".jsonl". It is an export
// for inspection; tables are never loaded back.
func (q *QTable) Record(path string) error {
	bs := new(bytes.Buffer)

	for _, state := range q.States() {
		entries := make(map[string]float64, core.NumActions)
		for _, a := range core.Actions {
			entries[a.Hash()] = q.table[state][a]
		}
		stateBS, err := json.Marshal(qTableEntry{State: state, Entries: entries})
		if err != nil {
			return fmt.Errorf("error encoding state %d: %s", state, err)
		}
		bs.Write(stateBS)
		bs.Write([]byte("\n"))
	}

	if bs.Len() == 0 {
		return nil
	}
	file := path + ".jsonl"
	if err := util.EnsureDir(file); err != nil {
		return err
	}
	return os.WriteFile(file, bs.Bytes(), 0644)
}
