package prober

import (
	"testing"
	"time"

	"edgepick/internal/models"
)

func TestSummarize(t *testing.T) {
	t.Run("no healthy results", func(t *testing.T) {
		s := Summarize([]models.ProbeResult{models.Down("a"), models.Down("b")})
		if s.Total != 2 || s.Healthy != 0 || s.Unhealthy != 2 {
			t.Errorf("unexpected counts: %+v", s)
		}
		if s.MedianLatencyMS != nil || s.FastestLatencyMS != nil {
			t.Errorf("expected nil latencies, got %+v", s)
		}
	})

	t.Run("median and fastest", func(t *testing.T) {
		s := Summarize([]models.ProbeResult{
			{Endpoint: "a", Healthy: true, Latency: 30 * time.Millisecond},
			{Endpoint: "b", Healthy: true, Latency: 10 * time.Millisecond},
			{Endpoint: "c", Healthy: true, Latency: 20 * time.Millisecond},
			models.Down("d"),
		})
		if s.Total != 4 || s.Healthy != 3 || s.Unhealthy != 1 {
			t.Errorf("unexpected counts: %+v", s)
		}
		if s.MedianLatencyMS == nil || *s.MedianLatencyMS != 20 {
			t.Errorf("expected median 20ms, got %v", s.MedianLatencyMS)
		}
		if s.FastestLatencyMS == nil || *s.FastestLatencyMS != 10 {
			t.Errorf("expected fastest 10ms, got %v", s.FastestLatencyMS)
		}
	})
}
