package analysis

import (
	"log"

	"github.com/zeu5/gridworld-rl/core"
)

// NewMilestoneLogger returns a listener that writes milestones to l. With
// verbose set every completed episode is logged too.
func NewMilestoneLogger(l *log.Logger, verbose bool) core.Listener {
	return func(e core.Event) {
		switch ev := e.(type) {
		case core.MilestoneReached:
			if ev.Complete {
				l.Printf("[MILESTONE] [INFO] %d episodes completed, training game complete", ev.Episodes)
				return
			}
			l.Printf("[MILESTONE] [INFO] %d episodes completed", ev.Episodes)
		case core.EpisodeCompleted:
			if verbose {
				l.Printf("[EPISODE] [INFO] #%d %s reward=%.1f epsilon=%.3f", ev.Episode, ev.Status, ev.TotalReward, ev.Epsilon)
			}
		}
	}
}
