package imagegen

import (
	"strings"
	"testing"
)

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription("a sunset over the ocean"); err != nil {
		t.Fatalf("valid description rejected: %v", err)
	}
	if err := ValidateDescription("   "); err == nil {
		t.Fatal("empty description accepted")
	}
	if err := ValidateDescription(strings.Repeat("x", 1001)); err == nil {
		t.Fatal("oversized description accepted")
	}
	if err := ValidateDescription("a soldier holding a GUN"); err == nil {
		t.Fatal("forbidden term accepted")
	}
}

func TestEnhancePrompt(t *testing.T) {
	got := EnhancePrompt("a red dragon", "cartoon")
	if !strings.HasPrefix(got, "a red dragon, cartoon style") {
		t.Fatalf("EnhancePrompt = %q", got)
	}
	if !strings.HasSuffix(got, "high quality") {
		t.Fatalf("EnhancePrompt = %q", got)
	}

	// Unknown styles fall back to realistic.
	got = EnhancePrompt("a cat", "vaporwave")
	if !strings.Contains(got, "photorealistic") {
		t.Fatalf("EnhancePrompt fallback = %q", got)
	}
}
