package svg

import (
	"strings"
	"testing"

	"github.com/yungbote/kydy-backend/internal/types"
)

func TestGenerateFallbackDeterministic(t *testing.T) {
	params := map[string]any{"points": []any{10.0, 20.0, 30.0}, "title": "Trend"}
	first := GenerateFallback(types.PrimitiveGraph, params)
	second := GenerateFallback(types.PrimitiveGraph, params)
	if first != second {
		t.Fatalf("graph generation not deterministic")
	}
}

func TestGenerateFallbackResistor(t *testing.T) {
	out := GenerateFallback(types.PrimitiveResistor, nil)
	if !strings.Contains(out, "10kΩ") {
		t.Fatalf("default resistance missing: %s", out)
	}
	// Color bands on the body.
	for _, band := range []string{"#8B0000", "#FFD700", "#C0C0C0"} {
		if !strings.Contains(out, band) {
			t.Fatalf("band %s missing", band)
		}
	}

	out = GenerateFallback(types.PrimitiveResistor, map[string]any{"resistance_ohms": 220.0})
	if !strings.Contains(out, "220Ω") {
		t.Fatalf("numeric resistance not rendered: %s", out)
	}

	out = GenerateFallback(types.PrimitiveResistor, map[string]any{"value": "4.7kΩ"})
	if !strings.Contains(out, "4.7kΩ") {
		t.Fatalf("string value not rendered: %s", out)
	}
}

func TestGenerateFallbackBattery(t *testing.T) {
	out := GenerateFallback(types.PrimitiveBattery, map[string]any{"voltage": "12V"})
	if !strings.Contains(out, "12V") {
		t.Fatalf("voltage not rendered: %s", out)
	}
	if GenerateFallback(types.PrimitiveBattery, nil) == out {
		t.Fatalf("default and custom voltage should differ")
	}
}

func TestGenerateFallbackGraphPoints(t *testing.T) {
	custom := GenerateFallback(types.PrimitiveGraph, map[string]any{"points": []any{5.0, 50.0}})
	defaults := GenerateFallback(types.PrimitiveGraph, nil)
	if custom == defaults {
		t.Fatalf("points parameter ignored")
	}

	malformed := GenerateFallback(types.PrimitiveGraph, map[string]any{"points": "not-a-list"})
	if malformed != defaults {
		t.Fatalf("malformed points should fall back to defaults")
	}
}

func TestGenerateFallbackUnknownKind(t *testing.T) {
	out := GenerateFallback("warp-drive", nil)
	if !strings.Contains(out, "warp-drive") {
		t.Fatalf("placeholder should carry the kind label: %s", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "<svg") {
		t.Fatalf("placeholder is not svg: %s", out)
	}
}

func TestGenerateFallbackPlaceholderScrubsLabel(t *testing.T) {
	out := GenerateFallback(`<script>"x"&`, nil)
	if strings.Contains(out, "<script") || strings.Contains(out, `"x"`) {
		t.Fatalf("label not scrubbed: %s", out)
	}
}

func TestGenerateFallbackSurvivesSanitization(t *testing.T) {
	kinds := []string{
		types.PrimitiveResistor,
		types.PrimitiveBattery,
		types.PrimitiveStethoscope,
		types.PrimitiveGraph,
		"something-else",
	}
	for _, kind := range kinds {
		out := GenerateFallback(kind, nil)
		clean := Sanitize(out)
		if clean == MinimalSVG {
			t.Fatalf("%s fallback collapsed under sanitization", kind)
		}
		if Sanitize(clean) != clean {
			t.Fatalf("%s fallback not stable under repeated sanitization", kind)
		}
	}
}
