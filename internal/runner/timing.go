package runner

import (
	"time"

	"github.com/agentic-research/proflow/api"
)

// Timing is the debug-mode record of one standard process invocation.
type Timing struct {
	ID     string
	Group  string
	Type   api.ProcessType
	Row    int
	Input  time.Duration // input resolution
	Call   time.Duration // step function
	Output time.Duration // output commit
	Total  time.Duration
}

// Totals sums Total per process ID.
func Totals(timings []Timing) map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, t := range timings {
		out[t.ID] += t.Total
	}
	return out
}
