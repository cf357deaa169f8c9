package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"edgepick/internal/models"
	"edgepick/internal/storage"
)

func TestScanKey(t *testing.T) {
	if got := scanKey("s_abc"); got != "edgepick:scan:s_abc" {
		t.Errorf("unexpected key %q", got)
	}
}

// TestRedisStorage runs against a live server when REDIS_TEST_ADDR is set.
func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	store, err := New(ctx, addr, "", 15)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer store.Close()
	t.Cleanup(func() { store.client.FlushDB(context.Background()) })

	base := time.Now().UTC()
	for i, id := range []string{"s_1", "s_2"} {
		scan := &models.Scan{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Second),
			FinishedAt: base.Add(time.Duration(i)*time.Second + time.Millisecond),
			Results:    []models.ProbeResult{models.Down("https://a.example")},
		}
		if err := store.CreateScan(ctx, scan); err != nil {
			t.Fatalf("failed to create scan: %v", err)
		}
	}

	scans, err := store.ListScans(ctx, storage.ListScansParams{Limit: 10})
	if err != nil {
		t.Fatalf("failed to list scans: %v", err)
	}
	if len(scans) != 2 || scans[0].ID != "s_2" {
		t.Fatalf("expected s_2 first, got %+v", scans)
	}
	if scans[0].Results[0].Latency != models.Unreachable {
		t.Errorf("expected unreachable latency to survive encoding, got %v", scans[0].Results[0].Latency)
	}

	if _, err := store.GetScan(ctx, "s_missing"); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
