package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/observability"
	"github.com/yungbote/kydy-backend/internal/types"
	"github.com/yungbote/kydy-backend/internal/utils"
)

// SVG bodies at or above this size are referenced by URL only.
const inlineSVGLimit = 5000

var ErrEmptySkeleton = errors.New("assembler: skeleton has no steps")

// LessonAssembler resolves a skeleton's primitives and produces the full
// lesson document: timeline order matches skeleton order, every step gets at
// least one asset when any primitives exist, and durations are floored.
type LessonAssembler interface {
	Assemble(ctx context.Context, prompt string, skeleton *types.LessonSkeleton) (*types.LessonDocument, error)
}

type lessonAssembler struct {
	log      *logger.Logger
	resolver PrimitiveResolver
	assets   AssetStore
	workers  int
}

func NewLessonAssembler(resolver PrimitiveResolver, assets AssetStore, log *logger.Logger) LessonAssembler {
	workers := utils.GetEnvAsInt("ASSEMBLER_WORKERS", 4, nil)
	if workers < 1 {
		workers = 1
	}
	return &lessonAssembler{
		log:      log.With("service", "LessonAssembler"),
		resolver: resolver,
		assets:   assets,
		workers:  workers,
	}
}

func (a *lessonAssembler) Assemble(ctx context.Context, prompt string, skeleton *types.LessonSkeleton) (*types.LessonDocument, error) {
	if skeleton == nil || len(skeleton.SuggestedSteps) == 0 {
		return nil, ErrEmptySkeleton
	}

	lessonID := uuid.NewString()[:8]
	primitives := skeleton.Primitives
	if len(primitives) == 0 {
		primitives = defaultPrimitives(prompt)
	}

	perStep := distributePrimitives(primitives, len(skeleton.SuggestedSteps))

	// Resolve every primitive concurrently but keep results addressable by
	// (step, slot) so timeline order never depends on completion order.
	type slot struct {
		step, idx int
		spec      types.PrimitiveSpec
	}
	var slots []slot
	for stepIdx, specs := range perStep {
		for i, spec := range specs {
			slots = append(slots, slot{step: stepIdx, idx: i, spec: spec})
		}
	}

	resolved := make([][]types.AssetRef, len(perStep))
	for i, specs := range perStep {
		resolved[i] = make([]types.AssetRef, len(specs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, s := range slots {
		g.Go(func() error {
			ref, err := a.resolveAsset(gctx, s.spec)
			if err != nil {
				return err
			}
			resolved[s.step][s.idx] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble lesson %s: %w", lessonID, err)
	}

	timeline := make([]types.TimelineStep, 0, len(skeleton.SuggestedSteps))
	for stepIdx, step := range skeleton.SuggestedSteps {
		title := step.Title
		if title == "" {
			title = fmt.Sprintf("Step %d", stepIdx+1)
		}
		duration := step.DurationSeconds
		if duration < 15 {
			duration = 15
		}
		timeline = append(timeline, types.TimelineStep{
			StepIndex:       stepIdx,
			Title:           title,
			Description:     step.Description,
			KeyPoints:       step.KeyPoints,
			Formula:         step.Formula,
			DurationSeconds: duration,
			Assets:          resolved[stepIdx],
		})
	}

	topic := skeleton.Topic
	if topic == "" {
		topic = "General Lesson"
	}
	doc := &types.LessonDocument{
		LessonID:           lessonID,
		Topic:              topic,
		Subtopic:           skeleton.Subtopic,
		Intent:             skeleton.Intent,
		Audience:           skeleton.Audience,
		LearningObjectives: skeleton.LearningObjectives,
		Timeline:           timeline,
	}

	if m := observability.Current(); m != nil {
		m.ObserveLessonAssembled()
	}
	a.log.Info("Lesson assembled",
		"lesson_id", lessonID,
		"steps", len(timeline),
		"primitives", len(primitives),
	)
	return doc, nil
}

func (a *lessonAssembler) resolveAsset(ctx context.Context, spec types.PrimitiveSpec) (types.AssetRef, error) {
	kind := spec.PrimitiveID
	if kind == "" {
		kind = types.PrimitiveGraph
	}
	res := a.resolver.Resolve(ctx, kind, spec.Params, "")

	// The cache key prefix doubles as the asset id, so equal primitives
	// always map to the same served file.
	assetID := res.CacheKey[:8]
	url, err := a.assets.Ensure(assetSlug(kind), assetID, res.SVG)
	if err != nil {
		return types.AssetRef{}, err
	}

	confidence := 0.8
	if res.Provenance == types.ProvenanceFallback {
		confidence = 0.5
	}
	ref := types.AssetRef{
		AssetID:     assetID,
		PrimitiveID: kind,
		URL:         url,
		Provenance:  res.Provenance,
		RenderMeta:  types.RenderMeta{Confidence: confidence, Width: res.Width, Height: res.Height},
	}
	if len(res.SVG) < inlineSVGLimit {
		ref.SVG = res.SVG
	}
	return ref, nil
}

// distributePrimitives splits the primitive list evenly across steps in
// order. The last step absorbs the remainder; a step left without any gets
// one round-robin from the full list so every step has something to animate.
func distributePrimitives(primitives []types.PrimitiveSpec, stepCount int) [][]types.PrimitiveSpec {
	out := make([][]types.PrimitiveSpec, stepCount)
	if len(primitives) == 0 {
		return out
	}

	perStep := len(primitives) / stepCount
	if perStep < 1 {
		perStep = 1
	}
	for stepIdx := 0; stepIdx < stepCount; stepIdx++ {
		start := stepIdx * perStep
		if start > len(primitives) {
			start = len(primitives)
		}
		end := start + perStep
		if end > len(primitives) {
			end = len(primitives)
		}
		if stepIdx == stepCount-1 {
			end = len(primitives)
		}
		chunk := primitives[start:end]
		if len(chunk) == 0 {
			chunk = []types.PrimitiveSpec{primitives[stepIdx%len(primitives)]}
		}
		out[stepIdx] = append([]types.PrimitiveSpec(nil), chunk...)
	}
	return out
}

// assetSlug reduces a primitive kind to a filename-safe slug. Kinds are model
// output, so anything outside a plain lowercase slug is dropped rather than
// handed to the asset store's filename.
func assetSlug(kind string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, kind)
	if slug == "" {
		return "primitive"
	}
	return slug
}

// defaultPrimitives covers skeletons that arrived without any illustration
// hints, picking a plausible set from the prompt wording.
func defaultPrimitives(prompt string) []types.PrimitiveSpec {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "resistor") || strings.Contains(lower, "ohm") || strings.Contains(lower, "circuit"):
		return []types.PrimitiveSpec{
			{PrimitiveID: types.PrimitiveResistor, Params: map[string]any{}},
			{PrimitiveID: types.PrimitiveBattery, Params: map[string]any{}},
			{PrimitiveID: types.PrimitiveGraph, Params: map[string]any{}},
		}
	case strings.Contains(lower, "medical") || strings.Contains(lower, "stethoscope"):
		return []types.PrimitiveSpec{
			{PrimitiveID: types.PrimitiveStethoscope, Params: map[string]any{}},
			{PrimitiveID: types.PrimitiveGraph, Params: map[string]any{}},
		}
	default:
		return []types.PrimitiveSpec{
			{PrimitiveID: types.PrimitiveGraph, Params: map[string]any{}},
			{PrimitiveID: types.PrimitiveGraph, Params: map[string]any{"points": []any{20.0, 40.0, 30.0, 50.0, 45.0, 60.0}}},
		}
	}
}
