package textutil

import "testing"

func TestNormalizeMetaTrimsKeys(t *testing.T) {
	in := map[string]any{
		"  season ": "spring",
		"":          "dropped",
		"   ":       "dropped",
		"rank":      3,
	}
	out := NormalizeMeta(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(out), out)
	}
	if out["season"] != "spring" {
		t.Errorf("expected trimmed key season, got %v", out)
	}
	if out["rank"] != 3 {
		t.Errorf("expected rank preserved, got %v", out)
	}
	if _, ok := in["season"]; ok {
		t.Error("input map was mutated")
	}
}

func TestNormalizeMetaEmpty(t *testing.T) {
	if NormalizeMeta(nil) != nil {
		t.Error("expected nil for nil input")
	}
	if NormalizeMeta(map[string]any{" ": 1}) != nil {
		t.Error("expected nil when every key is empty")
	}
}
