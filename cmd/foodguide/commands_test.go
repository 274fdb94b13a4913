package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"streetfood-backend/internal/shared/config"
	"streetfood-backend/internal/shared/telemetry"
)

const fixturePath = "../../internal/knowledge/testdata/product.md"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer telemetry.SetOutput(os.Stdout)
	load := func() (config.Config, error) {
		return config.Config{Env: "dev", LogLevel: "error", KnowledgePath: fixturePath}, nil
	}
	cmd := newRootCmd(load)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecommendCommand(t *testing.T) {
	out, err := run(t, "recommend", "--offline", "--area", "Karol Bagh", "--pref", "chole")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !strings.HasPrefix(out, "Karol Bagh\n") || !strings.Contains(out, "1. Momos [Green]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRecommendCommandJSON(t *testing.T) {
	out, err := run(t, "recommend", "--offline", "--json", "-a", "Lajpat Nagar", "-t", "Late Night")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload["area"] != "Lajpat Nagar" {
		t.Fatalf("unexpected area %v", payload["area"])
	}
}

func TestRecommendCommandRejectsInvalidQuery(t *testing.T) {
	_, err := run(t, "recommend", "--offline", "--area", "Lajpat ngr")
	if err == nil || !strings.Contains(err.Error(), "Did you mean: Lajpat Nagar") {
		t.Fatalf("expected suggestion error, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "--area", "Chandni Chowk")
	if err != nil || strings.TrimSpace(out) != "valid" {
		t.Fatalf("expected valid, got %q err=%v", out, err)
	}
	out, err = run(t, "validate", "--json", "--area", "Mumbai", "--budget", "Cheap")
	if err != nil {
		t.Fatalf("validate json: %v", err)
	}
	var payload struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Valid || payload.Errors["area"] == "" || payload.Errors["budget_category"] == "" {
		t.Fatalf("unexpected validation payload %+v", payload)
	}
}

func TestAreasCommand(t *testing.T) {
	out, err := run(t, "areas")
	if err != nil {
		t.Fatalf("areas: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 8 || lines[0] != "Alaknanda" {
		t.Fatalf("unexpected areas %v", lines)
	}
}

func TestAreaCommand(t *testing.T) {
	out, err := run(t, "area", "Karol Bagh")
	if err != nil {
		t.Fatalf("area: %v", err)
	}
	if !strings.Contains(out, "Chole Kulche") || !strings.Contains(out, "Gol Gappe") {
		t.Fatalf("unexpected area output:\n%s", out)
	}
	out, err = run(t, "area", "Pitampura")
	if err != nil || !strings.Contains(out, "no foods listed") {
		t.Fatalf("expected empty food list, got %q err=%v", out, err)
	}
	out, err = run(t, "area", "Mumbai")
	if err != nil || !strings.Contains(out, "not in the knowledge document") {
		t.Fatalf("expected unavailable area, got %q err=%v", out, err)
	}
	if _, err := run(t, "area"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestPromptCommand(t *testing.T) {
	out, err := run(t, "prompt", "--area", "connaught place", "--pref", "momos")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if !strings.HasPrefix(out, "# fingerprint ") {
		t.Fatalf("missing fingerprint header:\n%s", out)
	}
	for _, want := range []string{"SYSTEM INSTRUCTIONS", "USER QUERY", "Area: Connaught Place", "RESPONSE FORMAT"} {
		if !strings.Contains(out, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}

	again, err := run(t, "prompt", "--area", "Connaught Place", "--pref", "momos")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if firstLine(out) != firstLine(again) {
		t.Fatalf("resolved area should compose the same payload")
	}
}

func TestKnowledgeFlagOverridesConfig(t *testing.T) {
	_, err := run(t, "areas", "--knowledge", "does/not/exist.md", "--json")
	if err != nil {
		t.Fatalf("areas should fall back to defaults: %v", err)
	}
	_, err = run(t, "prompt", "--knowledge", "does/not/exist.md", "--area", "Karol Bagh")
	if err == nil {
		t.Fatalf("expected load error")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
