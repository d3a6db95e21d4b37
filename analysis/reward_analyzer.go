package analysis

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/zeu5/gridworld-rl/core"
	"github.com/zeu5/gridworld-rl/util"
)

type rewardAnalyzerDataset struct {
	Episodes []int
	Rewards  []float64
	Epsilons []float64
	Goals    int
}

func (r *rewardAnalyzerDataset) Copy() *rewardAnalyzerDataset {
	return &rewardAnalyzerDataset{
		Episodes: util.CopySlice(r.Episodes),
		Rewards:  util.CopySlice(r.Rewards),
		Epsilons: util.CopySlice(r.Epsilons),
		Goals:    r.Goals,
	}
}

// RewardAnalyzer keeps the reward-vs-episode series of a session and
// renders it as a line chart.
type RewardAnalyzer struct {
	title   string
	dataset *rewardAnalyzerDataset
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer(title string) *RewardAnalyzer {
	r := &RewardAnalyzer{title: title}
	r.Reset()
	return r
}

func (r *RewardAnalyzer) Reset() {
	r.dataset = &rewardAnalyzerDataset{
		Episodes: make([]int, 0),
		Rewards:  make([]float64, 0),
		Epsilons: make([]float64, 0),
	}
}

func (r *RewardAnalyzer) Analyze(eCtx *core.EpisodeContext, _ *core.Trace) {
	r.dataset.Episodes = append(r.dataset.Episodes, eCtx.Episode)
	r.dataset.Rewards = append(r.dataset.Rewards, eCtx.TotalReward)
	r.dataset.Epsilons = append(r.dataset.Epsilons, eCtx.NextEpsilon)
	if eCtx.Status == core.TerminatedGoal {
		r.dataset.Goals++
	}
}

func (r *RewardAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

// Series returns the rewards in episode order.
func (r *RewardAnalyzer) Series() []float64 {
	return util.CopySlice(r.dataset.Rewards)
}

// Goals is the number of episodes that reached the goal.
func (r *RewardAnalyzer) Goals() int {
	return r.dataset.Goals
}

// Render writes an HTML page with the reward and exploration-rate curves.
func (r *RewardAnalyzer) Render(w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    r.title,
			Subtitle: fmt.Sprintf("%d episodes, %d reached the goal", len(r.dataset.Episodes), r.dataset.Goals),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Reward"}),
	)

	episodes := make([]string, 0, len(r.dataset.Episodes))
	rewards := make([]opts.LineData, 0, len(r.dataset.Rewards))
	epsilons := make([]opts.LineData, 0, len(r.dataset.Epsilons))
	for i, e := range r.dataset.Episodes {
		episodes = append(episodes, strconv.Itoa(e))
		rewards = append(rewards, opts.LineData{Value: r.dataset.Rewards[i]})
		epsilons = append(epsilons, opts.LineData{Value: r.dataset.Epsilons[i]})
	}

	line.SetXAxis(episodes).
		AddSeries("Reward", rewards).
		AddSeries("Epsilon", epsilons)

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

// Save renders the chart into the file at path.
func (r *RewardAnalyzer) Save(path string) error {
	if err := util.EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Render(f)
}
