package mysql

import (
	"strings"
	"testing"
)

func TestNormalizeDSN(t *testing.T) {
	got, err := NormalizeDSN("user:pass@tcp(db:3306)/edgepick")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "parseTime=true") {
		t.Errorf("expected parseTime=true in %q", got)
	}
	if !strings.HasPrefix(got, "user:pass@tcp(db:3306)/edgepick") {
		t.Errorf("expected address and database preserved, got %q", got)
	}

	if _, err := NormalizeDSN("user:pass@tcp(db:3306)edgepick"); err == nil {
		t.Error("expected error for malformed dsn")
	}
}
