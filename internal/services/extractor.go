package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/types"
	"github.com/yungbote/kydy-backend/internal/utils"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

const extractionSystemPrompt = `You are an educational content generator. Extract structured lesson information from the user's prompt.

Return ONLY valid JSON (no markdown, no code blocks) with this exact structure:
{
  "topic": "Main topic name",
  "subtopic": "Specific subtopic",
  "intent": "educational|tutorial|demonstration",
  "audience": "beginner|intermediate|advanced",
  "suggested_steps": [
    {
      "title": "Step title",
      "description": "Detailed step description explaining the concept clearly",
      "key_points": ["Point 1", "Point 2", "Point 3"],
      "formula": "Optional formula if applicable",
      "duration_seconds": 30
    }
  ],
  "primitives": [
    {
      "primitive_id": "resistor|battery|stethoscope|graph",
      "params": {}
    }
  ],
  "learning_objectives": ["Objective 1", "Objective 2"]
}

IMPORTANT:
- Generate 3-5 detailed steps with rich descriptions
- Each step should have key_points array with 2-4 bullet points
- Include formulas if the topic involves calculations
- Make descriptions educational and clear (at least 50 words per step)
- For primitives, choose from: resistor, battery, stethoscope, graph
- Add params if needed (e.g., {"value": "10k"} for resistor, {"voltage": "9V"} for battery)
- Distribute primitives across steps (each step should have at least one)`

// SkeletonExtractor turns a free-text prompt into a structured lesson
// skeleton. Extraction never fails outright: when the LLM path is
// unconfigured or misbehaves, a keyword heuristic over the embedded lesson
// library supplies the skeleton.
type SkeletonExtractor interface {
	Extract(ctx context.Context, prompt string) *types.LessonSkeleton
}

//go:embed lessonlib.yaml
var lessonLibRaw []byte

type lessonLibrary struct {
	TopicGroups []topicGroup             `yaml:"topic_groups"`
	Default     topicGroup               `yaml:"default_group"`
	Objectives  []string                 `yaml:"learning_objectives"`
	StepSets    map[string][]libraryStep `yaml:"step_sets"`
}

type topicGroup struct {
	Name       string                `yaml:"name"`
	Keywords   []string              `yaml:"keywords"`
	StepSet    string                `yaml:"step_set"`
	Primitives []types.PrimitiveSpec `yaml:"primitives"`
}

type libraryStep struct {
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	KeyPoints       []string `yaml:"key_points"`
	Formula         string   `yaml:"formula"`
	DurationSeconds int      `yaml:"duration_seconds"`
}

var (
	libraryOnce sync.Once
	library     lessonLibrary
	libraryErr  error
)

func loadLessonLibrary() (lessonLibrary, error) {
	libraryOnce.Do(func() {
		libraryErr = yaml.Unmarshal(lessonLibRaw, &library)
	})
	return library, libraryErr
}

type geminiExtractor struct {
	log        *logger.Logger
	apiKey     string
	apiURL     string
	httpClient *http.Client
	scrubber   *bluemonday.Policy
}

func NewGeminiExtractor(log *logger.Logger) SkeletonExtractor {
	extractorLog := log.With("service", "GeminiExtractor")
	apiKey := strings.TrimSpace(utils.GetEnv("GEMINI_API_KEY", "", nil))
	apiURL := strings.TrimSpace(utils.GetEnv("GEMINI_API_URL", defaultGeminiURL, nil))
	timeoutSec := utils.GetEnvAsInt("GEMINI_TIMEOUT_SECONDS", 30, nil)
	if apiKey == "" {
		extractorLog.Info("GEMINI_API_KEY not set, using heuristic extraction")
	}
	return &geminiExtractor{
		log:        extractorLog,
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		scrubber:   bluemonday.StrictPolicy(),
	}
}

func (e *geminiExtractor) Extract(ctx context.Context, prompt string) *types.LessonSkeleton {
	prompt = strings.TrimSpace(prompt)
	if e.apiKey != "" {
		skeleton, err := e.extractViaModel(ctx, prompt)
		if err == nil {
			e.scrubSkeleton(skeleton)
			return skeleton
		}
		e.log.Warn("Model extraction failed, using heuristic", "error", err)
	}
	skeleton := heuristicSkeleton(prompt, e.log)
	e.scrubSkeleton(skeleton)
	return skeleton
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// firstJSONObject returns the first balanced top-level JSON object in text.
// Models wrap their JSON in prose and code fences often enough that a plain
// Unmarshal of the whole response is not an option.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func (e *geminiExtractor) extractViaModel(ctx context.Context, prompt string) (*types.LessonSkeleton, error) {
	fullPrompt := fmt.Sprintf("%s\n\nUser prompt: %s\n\nJSON:", extractionSystemPrompt, prompt)
	payload := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: fullPrompt}}}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL+"?key="+e.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini http %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode gemini envelope: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in gemini response")
	}
	text := parsed.Candidates[0].Content.Parts[0].Text

	jsonBlock := firstJSONObject(text)
	if jsonBlock == "" {
		jsonBlock = text
	}
	var skeleton types.LessonSkeleton
	if err := json.Unmarshal([]byte(jsonBlock), &skeleton); err != nil {
		return nil, fmt.Errorf("parse skeleton json: %w", err)
	}
	if len(skeleton.SuggestedSteps) == 0 {
		return nil, fmt.Errorf("skeleton has no steps")
	}
	if skeleton.Topic == "" {
		skeleton.Topic = truncatePrompt(prompt, 60)
	}
	return &skeleton, nil
}

func heuristicSkeleton(prompt string, log *logger.Logger) *types.LessonSkeleton {
	lib, err := loadLessonLibrary()
	if err != nil {
		// The embedded library is part of the binary; failing to parse it
		// is a programming error, but an empty lesson beats a panic.
		if log != nil {
			log.Error("Embedded lesson library failed to parse", "error", err)
		}
		return &types.LessonSkeleton{Topic: truncatePrompt(prompt, 60)}
	}

	lower := strings.ToLower(prompt)
	group := lib.Default
	matched := false
	for _, g := range lib.TopicGroups {
		for _, kw := range g.Keywords {
			if strings.Contains(lower, kw) {
				group = g
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	topic := truncatePrompt(prompt, 60)
	steps := make([]types.SkeletonStep, 0, len(lib.StepSets[group.StepSet]))
	for _, s := range lib.StepSets[group.StepSet] {
		steps = append(steps, types.SkeletonStep{
			Title:           s.Title,
			Description:     strings.ReplaceAll(s.Description, "%TOPIC%", truncatePrompt(prompt, 50)),
			KeyPoints:       append([]string(nil), s.KeyPoints...),
			Formula:         s.Formula,
			DurationSeconds: s.DurationSeconds,
		})
	}

	primitives := make([]types.PrimitiveSpec, 0, len(group.Primitives))
	for _, p := range group.Primitives {
		params := make(map[string]any, len(p.Params))
		for k, v := range p.Params {
			params[k] = v
		}
		primitives = append(primitives, types.PrimitiveSpec{PrimitiveID: p.PrimitiveID, Params: params})
	}

	return &types.LessonSkeleton{
		Topic:              topic,
		Subtopic:           "Introduction",
		Intent:             "educational",
		Audience:           "beginner",
		SuggestedSteps:     steps,
		Primitives:         primitives,
		LearningObjectives: append([]string(nil), lib.Objectives...),
	}
}

// scrubSkeleton strips markup from every text field. StrictPolicy escapes
// entities after stripping, so unescape to get plain text back; the render
// layer re-escapes on output.
func (e *geminiExtractor) scrubSkeleton(s *types.LessonSkeleton) {
	scrub := func(v string) string {
		return strings.TrimSpace(html.UnescapeString(e.scrubber.Sanitize(v)))
	}
	s.Topic = scrub(s.Topic)
	s.Subtopic = scrub(s.Subtopic)
	s.Intent = scrub(s.Intent)
	s.Audience = scrub(s.Audience)
	for i := range s.SuggestedSteps {
		step := &s.SuggestedSteps[i]
		step.Title = scrub(step.Title)
		step.Description = scrub(step.Description)
		step.Formula = scrub(step.Formula)
		for j := range step.KeyPoints {
			step.KeyPoints[j] = scrub(step.KeyPoints[j])
		}
	}
	for i := range s.LearningObjectives {
		s.LearningObjectives[i] = scrub(s.LearningObjectives[i])
	}
}

func truncatePrompt(prompt string, limit int) string {
	runes := []rune(prompt)
	if len(runes) <= limit {
		return prompt
	}
	return string(runes[:limit])
}
