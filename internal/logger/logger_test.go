package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewSelectsHandler(t *testing.T) {
	t.Run("production writes json", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Environment: "production", AppName: "edgepick"}, &buf)
		log.Info("hello", "k", "v")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
		}
		if entry["msg"] != "hello" || entry["app"] != "edgepick" || entry["k"] != "v" {
			t.Errorf("unexpected entry: %v", entry)
		}
	})

	t.Run("development writes text", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Environment: "development"}, &buf)
		log.Info("hello")
		if !strings.Contains(buf.String(), "msg=hello") {
			t.Errorf("expected text log line, got %q", buf.String())
		}
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Level: "warn"}, &buf)
		log.Info("quiet")
		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Environment: "production"}, &buf)

	h := Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	if entry["path"] != "/healthz" {
		t.Errorf("expected path /healthz, got %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", entry["status"])
	}
}
