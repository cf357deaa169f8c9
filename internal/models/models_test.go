package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestProbeResultJSON(t *testing.T) {
	t.Run("unreachable encodes null latency", func(t *testing.T) {
		data, err := json.Marshal(Down("https://a.example"))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"latency_ms":null`) {
			t.Errorf("expected null latency, got %s", data)
		}

		var back ProbeResult
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.Latency != Unreachable || back.Healthy {
			t.Errorf("expected unreachable result, got %+v", back)
		}
	})

	t.Run("healthy encodes milliseconds", func(t *testing.T) {
		r := ProbeResult{Endpoint: "https://a.example", Healthy: true, Latency: 1500 * time.Microsecond, Strategy: "plain-get"}
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"latency_ms":1.5`) {
			t.Errorf("expected 1.5ms, got %s", data)
		}
	})
}
