package render

import (
	"strings"
	"testing"

	"github.com/yungbote/kydy-backend/internal/types"
)

func sampleDocument() *types.LessonDocument {
	return &types.LessonDocument{
		LessonID: "abc12345",
		Topic:    "Ohm's Law",
		Timeline: []types.TimelineStep{
			{
				StepIndex:       0,
				Title:           "Introduction",
				Description:     "Voltage, current, resistance.",
				KeyPoints:       []string{"V = I × R", "Measured in volts"},
				Formula:         "V = I × R",
				DurationSeconds: 20,
				Assets: []types.AssetRef{
					{
						AssetID:     "res12345",
						PrimitiveID: "resistor",
						URL:         "/assets/resistor_res12345.svg",
						SVG:         `<svg xmlns="http://www.w3.org/2000/svg"><rect width="10" height="10"/></svg>`,
					},
				},
			},
			{
				StepIndex:       1,
				Title:           "Practice",
				Description:     "Apply the formula.",
				DurationSeconds: 25,
				Assets: []types.AssetRef{
					{AssetID: "g1", PrimitiveID: "graph", URL: "/assets/graph_g1.svg"},
				},
			},
		},
	}
}

func TestCompileDeterministic(t *testing.T) {
	doc := sampleDocument()
	for _, mode := range []string{ModeFull, ModeEmbed} {
		first, err := Compile(doc, mode)
		if err != nil {
			t.Fatalf("Compile %s: %v", mode, err)
		}
		second, err := Compile(doc, mode)
		if err != nil {
			t.Fatalf("Compile %s again: %v", mode, err)
		}
		if first != second {
			t.Fatalf("%s mode output not byte-identical", mode)
		}
	}
}

func TestCompileStepContainers(t *testing.T) {
	out, err := Compile(sampleDocument(), ModeFull)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if got := strings.Count(out, "data-step-index="); got != 2 {
		t.Fatalf("got %d step containers, want 2", got)
	}
	first := strings.Index(out, `data-step-index="0"`)
	second := strings.Index(out, `data-step-index="1"`)
	if first < 0 || second < 0 || first > second {
		t.Fatalf("steps out of order: %d / %d", first, second)
	}
	if !strings.Contains(out, `data-duration="20"`) || !strings.Contains(out, `data-duration="25"`) {
		t.Fatalf("durations missing")
	}
	if !strings.Contains(out, "Step 1 of 2 • Duration: 20s") {
		t.Fatalf("step indicator missing")
	}
}

func TestCompileFullScaffolding(t *testing.T) {
	out, err := Compile(sampleDocument(), ModeFull)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>", "<html>", "<head>",
		"Ohm&#39;s Law", "abc12345",
		`id="play-btn"`, `id="progress-fill"`,
		"const totalSteps", "anime",
		"formula-box",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("full page missing %q", want)
		}
	}
	// Inline asset carried through unescaped.
	if !strings.Contains(out, `<rect width="10" height="10"/>`) {
		t.Fatalf("inline svg escaped or dropped")
	}
	// URL-only asset renders a pending note.
	if !strings.Contains(out, "Loading asset from /assets/graph_g1.svg") {
		t.Fatalf("url-only asset placeholder missing")
	}
}

func TestCompileEmbedOmitsScaffolding(t *testing.T) {
	doc := &types.LessonDocument{
		LessonID: "solo",
		Topic:    "Single",
		Timeline: []types.TimelineStep{
			{StepIndex: 0, Title: "Only", DurationSeconds: 30, Assets: []types.AssetRef{{AssetID: "a", PrimitiveID: "graph"}}},
		},
	}
	out, err := Compile(doc, ModeEmbed)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, banned := range []string{"<html", "<head", "<script", "play-btn", `class="progress-bar"`} {
		if strings.Contains(out, banned) {
			t.Fatalf("embed output contains %q", banned)
		}
	}
	if !strings.Contains(out, `data-duration="30"`) {
		t.Fatalf("embed output missing dwell time attribute")
	}
	if !strings.Contains(out, "<style>") {
		t.Fatalf("embed output missing stylesheet")
	}
}

func TestCompileEscapesText(t *testing.T) {
	doc := sampleDocument()
	doc.Timeline[0].Title = `<img src=x onerror=alert(1)>`
	out, err := Compile(doc, ModeFull)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(out, "<img") {
		t.Fatalf("step title not escaped")
	}
}

func TestCompileRejectsBadInput(t *testing.T) {
	if _, err := Compile(nil, ModeFull); err == nil {
		t.Fatalf("nil document should error")
	}
	if _, err := Compile(sampleDocument(), "pdf"); err == nil {
		t.Fatalf("unknown mode should error")
	}
}

func TestCompileSanitizesInlineAssets(t *testing.T) {
	doc := sampleDocument()
	doc.Timeline[0].Assets[0].SVG = `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script><rect width="4" height="4"/></svg>`
	out, err := Compile(doc, ModeEmbed)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(out, "alert(1)") {
		t.Fatalf("unsafe inline asset reached output")
	}
}
