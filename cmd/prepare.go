package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/zeu5/gridworld-rl/analysis"
	"github.com/zeu5/gridworld-rl/config"
	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/grid"
	"github.com/zeu5/gridworld-rl/policies"
	"github.com/zeu5/gridworld-rl/util"
)

var policyConstructors = map[string]core.PolicyConstructor{
	"qlearning": policies.NewQLearningPolicyConstructor(policies.DefaultAlpha, policies.DefaultGamma),
	"random":    &policies.RandomPolicyConstructor{},
}

// trainer wires a scheduler to the terminal display and the result files.
type trainer struct {
	flags     *config.Flags
	scheduler *core.Scheduler
	rewards   *analysis.RewardAnalyzer
	painter   *grid.Painter
	logger    *log.Logger

	printer     *util.TerminalPrinter
	gridPanel   *util.Panel
	statusPanel *util.Panel
	logPanel    *util.Panel
}

func prepareTrainer(out io.Writer, f *config.Flags) (*trainer, error) {
	pc, ok := policyConstructors[f.Policy]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q", f.Policy)
	}
	runConfig, err := f.RunConfig()
	if err != nil {
		return nil, err
	}

	t := &trainer{
		flags:   f,
		rewards: analysis.NewRewardAnalyzer(fmt.Sprintf("%s agent on a %dx%d grid", f.Policy, runConfig.GridSize, runConfig.GridSize)),
		painter: grid.NewPainter(f.Live),
	}

	opts := []core.Option{
		core.WithAnalyzer("Rewards", t.rewards),
	}

	if f.Live {
		t.printer = util.NewTerminalPrinter(out, 50*time.Millisecond)
		t.gridPanel = t.printer.NewPanel()
		t.statusPanel = t.printer.NewPanel()
		t.logPanel = t.printer.NewPanel()
		t.logger = log.New(newPanelWriter(t.logPanel, 6), "", log.Ltime)
		opts = append(opts, core.WithObserver(t.observe))
	} else {
		t.logger = log.New(out, "", log.LstdFlags)
	}
	if f.Debug {
		tracer, err := analysis.NewPrintDebugAnalyzer(f.SavePath, 0, t.logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithAnalyzer("Debug", tracer))
	}
	opts = append(opts,
		core.WithLogger(t.logger),
		core.WithListener(analysis.NewMilestoneLogger(t.logger, !f.Live)),
	)

	policySeed := f.Seed
	if policySeed != 0 {
		policySeed++
	}
	t.scheduler, err = core.NewScheduler(runConfig, grid.Factory(f.Seed), pc.NewPolicy(policySeed), opts...)
	if err != nil {
		return nil, err
	}
	if f.Live {
		t.scheduler.Subscribe(t.onEvent)
		t.refresh(t.scheduler.Environment(), -1, nil)
		t.statusPanel.Set(t.status(nil))
	}
	return t, nil
}

func (t *trainer) start(ctx context.Context) {
	if t.printer != nil {
		t.printer.Start(ctx)
	}
}

func (t *trainer) stop() {
	if t.printer != nil {
		t.printer.Stop()
	}
}

func (t *trainer) observe(sCtx *core.StepContext, env core.Environment) {
	t.refresh(env, sCtx.Position, sCtx.Trace.Path())
	t.statusPanel.TrySet(t.status(sCtx))
}

func (t *trainer) onEvent(e core.Event) {
	if _, ok := e.(core.EpisodeCompleted); ok {
		t.statusPanel.Set(t.status(nil))
	}
}

func (t *trainer) refresh(env core.Environment, agent core.State, path []core.State) {
	g, ok := env.(*grid.Environment)
	if !ok {
		return
	}
	t.gridPanel.TrySet(t.painter.Paint(g, agent, path))
}

func (t *trainer) status(sCtx *core.StepContext) string {
	p := t.scheduler.Snapshot()
	b := new(strings.Builder)
	fmt.Fprintf(b, "Episodes: %d  Epsilon: %.2f  Last reward: %.0f  Mean reward: %.2f\n", p.Episodes, p.Epsilon, p.LastReward, p.MeanReward)
	if sCtx != nil {
		fmt.Fprintf(b, "Episode %d  tick %d/%d  reward so far %.0f\n", sCtx.Episode, sCtx.Tick, sCtx.StepCap, sCtx.TotalReward)
	}
	b.WriteString(valuesTable(p.Values))
	return b.String()
}

// report prints the session summary and writes the chart and the table.
func (t *trainer) report(out io.Writer, completed int) error {
	p := t.scheduler.Snapshot()
	fmt.Fprintf(out, "Session %s\n", p.Session)
	fmt.Fprintf(out, "Completed %d episodes this run (%d reached the goal)\n", completed, t.rewards.Goals())
	fmt.Fprintf(out, "Episodes: %d  Epsilon: %.2f  Last reward: %.0f  Mean reward: %.2f\n", p.Episodes, p.Epsilon, p.LastReward, p.MeanReward)
	fmt.Fprint(out, valuesTable(p.Values))

	dir := path.Join(t.flags.SavePath, p.Session.String())
	chart := path.Join(dir, "rewards.html")
	if err := t.rewards.Save(chart); err != nil {
		return fmt.Errorf("saving reward chart: %w", err)
	}
	fmt.Fprintf(out, "Reward chart written to %s\n", chart)

	if q, ok := t.scheduler.Policy().(*policies.QLearningPolicy); ok {
		if err := q.Record(path.Join(dir, "qtable")); err != nil {
			return fmt.Errorf("saving q-table: %w", err)
		}
	}
	return nil
}

func valuesTable(values []core.StateValues) string {
	b := new(strings.Builder)
	if len(values) == 0 {
		return ""
	}
	fmt.Fprintf(b, "%6s %8s %8s %8s %8s\n", "Pos", "up", "right", "down", "left")
	for _, v := range values {
		if !v.Known {
			fmt.Fprintf(b, "%6d %8s %8s %8s %8s\n", v.State, "-", "-", "-", "-")
			continue
		}
		fmt.Fprintf(b, "%6d %8.2f %8.2f %8.2f %8.2f\n", v.State, v.Values[core.Up], v.Values[core.Right], v.Values[core.Down], v.Values[core.Left])
	}
	return b.String()
}

// panelWriter keeps the last few log lines of a logger in a panel.
type panelWriter struct {
	mu    sync.Mutex
	panel *util.Panel
	max   int
	lines []string
}

func newPanelWriter(panel *util.Panel, max int) *panelWriter {
	return &panelWriter{panel: panel, max: max}
}

func (w *panelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		w.lines = append(w.lines, string(line))
	}
	if len(w.lines) > w.max {
		w.lines = w.lines[len(w.lines)-w.max:]
	}
	w.panel.Set(strings.Join(w.lines, "\n"))
	return len(p), nil
}
