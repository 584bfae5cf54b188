package dlt

import (
	"strings"
	"testing"
)

func TestVersionIsStableRelease(t *testing.T) {
	if Version() != EngineVersion {
		t.Fatalf("Version() = %q, want %q", Version(), EngineVersion)
	}
	parts := strings.Split(Version(), ".")
	if len(parts) != 3 {
		t.Fatalf("expected major.minor.patch, got %q", Version())
	}
	for _, p := range parts {
		if p == "" {
			t.Fatalf("empty version component in %q", Version())
		}
	}
}
