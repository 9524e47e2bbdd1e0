package types

// Known primitive kinds. Anything else is still accepted and resolves to the
// generic placeholder art, so this list can grow without touching call sites.
const (
	PrimitiveResistor    = "resistor"
	PrimitiveBattery     = "battery"
	PrimitiveStethoscope = "stethoscope"
	PrimitiveGraph       = "graph"
)

// Provenance records where a resolved primitive's SVG came from.
type Provenance string

const (
	ProvenanceCached   Provenance = "cached"
	ProvenanceExternal Provenance = "external"
	ProvenanceFallback Provenance = "fallback"
)

// PrimitiveSpec is one requested illustration inside a lesson skeleton.
type PrimitiveSpec struct {
	PrimitiveID string         `json:"primitive_id" yaml:"primitive_id"`
	Params      map[string]any `json:"params" yaml:"params"`
}

// SkeletonStep is one unresolved lesson step as produced by the extractor.
type SkeletonStep struct {
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description" yaml:"description"`
	KeyPoints       []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`
	Formula         string   `json:"formula,omitempty" yaml:"formula,omitempty"`
	DurationSeconds int      `json:"duration_seconds" yaml:"duration_seconds"`
}

// LessonSkeleton is the extractor output: steps plus requested primitives,
// before any asset resolution has happened.
type LessonSkeleton struct {
	Topic              string          `json:"topic" yaml:"topic"`
	Subtopic           string          `json:"subtopic" yaml:"subtopic"`
	Intent             string          `json:"intent" yaml:"intent"`
	Audience           string          `json:"audience" yaml:"audience"`
	SuggestedSteps     []SkeletonStep  `json:"suggested_steps" yaml:"suggested_steps"`
	Primitives         []PrimitiveSpec `json:"primitives" yaml:"primitives"`
	LearningObjectives []string        `json:"learning_objectives,omitempty" yaml:"learning_objectives,omitempty"`
}
