package flow

import (
	"testing"
	"time"
)

func TestBindSettings_AllTypes(t *testing.T) {
	keys := []ConfigKey{
		{Name: "count", Type: TypeInt, Description: "a count"},
		{Name: "enabled", Type: TypeBool, Description: "a flag"},
		{Name: "label", Type: TypeString, Description: "a label"},
		{Name: "deadline", Type: TypeTime, Description: "a deadline"},
	}
	deadline := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"count":    3,
		"enabled":  true,
		"label":    "lab1",
		"deadline": deadline,
		"_comment": "ignored by binding",
	}
	s, err := bindSettings("step", keys, raw)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if s.Int("count") != 3 || !s.Bool("enabled") || s.String("label") != "lab1" {
		t.Fatalf("bound values wrong: %+v", s)
	}
	if !s.Time("deadline").Equal(deadline) {
		t.Fatalf("bound deadline wrong: %v", s.Time("deadline"))
	}
}

func TestBindSettings_CoercedForms(t *testing.T) {
	keys := []ConfigKey{
		{Name: "count", Type: TypeInt, Description: "a count"},
		{Name: "deadline", Type: TypeTime, Description: "a deadline"},
	}
	// viper hands back int64 for large ints and RFC 3339 strings for
	// timestamps.
	raw := map[string]any{
		"count":    int64(7),
		"deadline": "2025-09-01T09:00:00Z",
	}
	s, err := bindSettings("step", keys, raw)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if s.Int("count") != 7 {
		t.Fatalf("int64 not coerced: %d", s.Int("count"))
	}
	want := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	if !s.Time("deadline").Equal(want) {
		t.Fatalf("string timestamp not coerced: %v", s.Time("deadline"))
	}
}

func TestBindSettings_RejectsReservedDeclaredKey(t *testing.T) {
	keys := []ConfigKey{{Name: "_hidden", Type: TypeString, Description: "nope"}}
	if _, err := bindSettings("step", keys, map[string]any{"_hidden": "x"}); err == nil {
		t.Fatal("expected error for a declared key with the reserved prefix")
	}
}

func TestBindSettings_UndeclaredKeysIgnored(t *testing.T) {
	keys := []ConfigKey{{Name: "label", Type: TypeString, Description: "a label"}}
	s, err := bindSettings("step", keys, map[string]any{"label": "x", "extra": 1})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if s.Has("extra") {
		t.Fatal("undeclared keys must not be bound")
	}
}
