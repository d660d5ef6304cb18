package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/hexcaster/internal/model"
)

// WeakestTemplates returns up to top template indices ordered by lowest
// match ratio. Templates that were never cast against are skipped.
func WeakestTemplates(aggs []model.TemplateAggregate, top int) []int {
	candidates := make([]model.TemplateAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Casts > 0 {
			candidates = append(candidates, agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := matchRatio(candidates[i]), matchRatio(candidates[j])
		if ri == rj {
			return candidates[i].Template < candidates[j].Template
		}
		return ri < rj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]int, top)
	for i := range out {
		out[i] = candidates[i].Template
	}
	return out
}

func matchRatio(agg model.TemplateAggregate) float64 {
	return float64(agg.Matches) / float64(agg.Casts)
}

func formatTemplates(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprintf("#%d", idx)
	}
	return strings.Join(parts, ", ")
}
