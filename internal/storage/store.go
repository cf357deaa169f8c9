package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"edgepick/internal/models"
)

var (
	// ErrNotFound is returned when a requested scan is not found
	ErrNotFound = errors.New("not found")
)

// DefaultListLimit applies when ListScansParams.Limit is not positive.
const DefaultListLimit = 20

// ListScansParams contains parameters for listing scans, newest first
type ListScansParams struct {
	Before time.Time // Zero means no upper bound
	Limit  int
}

// Storer records completed scans for operators. The prober never reads it.
type Storer interface {
	CreateScan(ctx context.Context, scan *models.Scan) error
	GetScan(ctx context.Context, id string) (*models.Scan, error)
	ListScans(ctx context.Context, params ListScansParams) ([]models.Scan, error)
	Close() error
}

// NewID returns a random identifier with the given prefix.
func NewID(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return prefix + time.Now().UTC().Format("20060102150405")
	}
	return prefix + hex.EncodeToString(b)
}

// EffectiveLimit returns the page size, applying the default.
func (p ListScansParams) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultListLimit
	}
	return p.Limit
}
