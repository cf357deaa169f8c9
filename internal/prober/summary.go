package prober

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"edgepick/internal/models"
)

// Summarize counts verdicts and reports the median and fastest healthy
// latency. It is display-only and plays no part in selection.
func Summarize(results []models.ProbeResult) models.Summary {
	s := models.Summary{Total: len(results)}

	var ms []float64
	for _, r := range results {
		if !r.Healthy {
			s.Unhealthy++
			continue
		}
		s.Healthy++
		ms = append(ms, float64(r.Latency)/float64(time.Millisecond))
	}
	if len(ms) == 0 {
		return s
	}

	sort.Float64s(ms)
	median := stat.Quantile(0.5, stat.Empirical, ms, nil)
	fastest := ms[0]
	s.MedianLatencyMS = &median
	s.FastestLatencyMS = &fastest
	return s
}
