package storage

import (
	"context"
	"log/slog"
	"time"

	"edgepick/internal/models"
)

// Recorder writes completed scans to a Storer. Failures are logged and
// never reach the caller. A Recorder with a nil store records nothing.
type Recorder struct {
	store   Storer
	log     *slog.Logger
	timeout time.Duration
}

// NewRecorder creates a Recorder.
func NewRecorder(store Storer, log *slog.Logger) *Recorder {
	return &Recorder{store: store, log: log, timeout: 5 * time.Second}
}

// Enabled reports whether scans are persisted.
func (r *Recorder) Enabled() bool { return r != nil && r.store != nil }

// Record stores scan. It does not block on the caller's context so a scan
// finished just before the client disconnected is still recorded.
func (r *Recorder) Record(scan models.Scan) {
	if !r.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.CreateScan(ctx, &scan); err != nil {
		r.log.Error("failed to record scan", "scan", scan.ID, "error", err)
		return
	}
	r.log.Debug("scan recorded", "scan", scan.ID, "best", scan.Best)
}
