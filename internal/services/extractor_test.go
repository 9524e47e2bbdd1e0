package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/kydy-backend/internal/types"
)

func newHeuristicExtractor(t *testing.T) SkeletonExtractor {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	return NewGeminiExtractor(testLogger())
}

func TestExtractHeuristicOhmsLaw(t *testing.T) {
	extractor := newHeuristicExtractor(t)
	skeleton := extractor.Extract(context.Background(), "Teach me Ohm's law with a resistor")

	if len(skeleton.SuggestedSteps) != 3 {
		t.Fatalf("got %d steps, want 3", len(skeleton.SuggestedSteps))
	}
	if skeleton.SuggestedSteps[0].Formula != "V = I × R" {
		t.Fatalf("first step formula = %q", skeleton.SuggestedSteps[0].Formula)
	}
	if len(skeleton.Primitives) == 0 || skeleton.Primitives[0].PrimitiveID != types.PrimitiveResistor {
		t.Fatalf("resistor primitive missing: %+v", skeleton.Primitives)
	}
	if v, _ := skeleton.Primitives[0].Params["value"].(string); v != "10kΩ" {
		t.Fatalf("resistor value param = %q", v)
	}
}

func TestExtractHeuristicKeywordGroups(t *testing.T) {
	extractor := newHeuristicExtractor(t)

	cases := []struct {
		prompt string
		kind   string
	}{
		{"how does a battery store power", types.PrimitiveBattery},
		{"using a stethoscope to hear the heart", types.PrimitiveStethoscope},
		{"the history of jazz", types.PrimitiveGraph},
	}
	for _, tc := range cases {
		skeleton := extractor.Extract(context.Background(), tc.prompt)
		if len(skeleton.Primitives) == 0 {
			t.Fatalf("%q: no primitives", tc.prompt)
		}
		if skeleton.Primitives[0].PrimitiveID != tc.kind {
			t.Fatalf("%q: first primitive = %s, want %s", tc.prompt, skeleton.Primitives[0].PrimitiveID, tc.kind)
		}
		if len(skeleton.SuggestedSteps) == 0 {
			t.Fatalf("%q: no steps", tc.prompt)
		}
	}
}

func TestExtractHeuristicDefaultGraphPoints(t *testing.T) {
	extractor := newHeuristicExtractor(t)
	skeleton := extractor.Extract(context.Background(), "the history of jazz")

	if len(skeleton.Primitives) != 2 {
		t.Fatalf("default group should carry two graphs, got %d", len(skeleton.Primitives))
	}
	if _, ok := skeleton.Primitives[1].Params["points"]; !ok {
		t.Fatalf("second default graph should carry points: %+v", skeleton.Primitives[1].Params)
	}
}

func TestExtractScrubsMarkup(t *testing.T) {
	extractor := newHeuristicExtractor(t)
	skeleton := extractor.Extract(context.Background(), `<b>photosynthesis</b> <script>alert(1)</script>`)

	if strings.Contains(skeleton.Topic, "<") || strings.Contains(skeleton.Topic, "script") {
		t.Fatalf("topic not scrubbed: %q", skeleton.Topic)
	}
	if !strings.Contains(skeleton.Topic, "photosynthesis") {
		t.Fatalf("topic text lost: %q", skeleton.Topic)
	}
}

func TestExtractModelPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Here you go:\n{\"topic\":\"Gravity\",\"subtopic\":\"Free fall\",\"intent\":\"educational\",\"audience\":\"beginner\",\"suggested_steps\":[{\"title\":\"Intro\",\"description\":\"Things fall.\",\"key_points\":[\"g is constant\"],\"duration_seconds\":20}],\"primitives\":[{\"primitive_id\":\"graph\",\"params\":{}}],\"learning_objectives\":[\"Understand gravity\"]}"}]}}]}`))
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_API_URL", srv.URL)
	extractor := NewGeminiExtractor(testLogger())

	skeleton := extractor.Extract(context.Background(), "why do things fall")
	if skeleton.Topic != "Gravity" {
		t.Fatalf("topic = %q, want Gravity", skeleton.Topic)
	}
	if len(skeleton.SuggestedSteps) != 1 || skeleton.SuggestedSteps[0].Title != "Intro" {
		t.Fatalf("steps not parsed: %+v", skeleton.SuggestedSteps)
	}
}

func TestExtractModelFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_API_URL", srv.URL)
	extractor := NewGeminiExtractor(testLogger())

	skeleton := extractor.Extract(context.Background(), "resistor basics")
	if len(skeleton.SuggestedSteps) == 0 {
		t.Fatalf("fallback skeleton has no steps")
	}
	if skeleton.Primitives[0].PrimitiveID != types.PrimitiveResistor {
		t.Fatalf("fallback did not use keyword heuristic: %+v", skeleton.Primitives)
	}
}
