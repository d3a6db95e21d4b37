package analysis

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path"

	"github.com/zeu5/gridworld-rl/core"
)

type PrintDebugAnalyzer struct {
	// savePath is the directory the traces are written to
	savePath string
	// traces are written from this episode number on
	thresholdEpisode int
	logger           *log.Logger
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

// NewPrintDebugAnalyzer creates the traces directory under savePath. Write
// failures during training are reported to logger.
func NewPrintDebugAnalyzer(savePath string, threshold int, logger *log.Logger) (*PrintDebugAnalyzer, error) {
	tracesPath := path.Join(savePath, "traces")
	if err := os.MkdirAll(tracesPath, 0755); err != nil {
		return nil, fmt.Errorf("create traces directory: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PrintDebugAnalyzer{
		savePath:         tracesPath,
		thresholdEpisode: threshold,
		logger:           logger,
	}, nil
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf(
		"Episode %d\nOutcome: %s\nReward: %.2f\nEpsilon: %.4f\nTicks: %d/%d\n",
		ctx.Episode, ctx.Status, ctx.TotalReward, ctx.Epsilon, ctx.Ticks, ctx.StepCap,
	))
	if last := trace.Last(); last != nil {
		buf.WriteString("Last move: " + stepToString(last))
	}
	buf.WriteString("\n")
	buf.WriteString(traceToString(trace))

	fileName := fmt.Sprintf("%s_trace_%d.txt", ctx.Session, ctx.Episode)
	file := path.Join(a.savePath, fileName)
	if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
		a.logger.Printf("[DEBUG] [ERROR] writing trace of episode %d: %v", ctx.Episode, err)
	}
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(stepToString(trace.Step(i)))
	}
	buf.WriteString(fmt.Sprintf("Path: %v\n", trace.Path()))
	return buf.String()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"Tick %d: %d -%s-> %d (%+.0f)\n",
		step.Tick, step.State, step.Action, step.NextState, step.Reward,
	)
}

func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *PrintDebugAnalyzer) Reset() {
	// do nothing
}
