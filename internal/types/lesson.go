package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RenderMeta carries sizing hints extracted from a resolved SVG body.
type RenderMeta struct {
	Confidence float64 `json:"confidence"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// AssetRef is a resolved illustration attached to a timeline step. Small SVGs
// are inlined; larger ones are reachable through URL only.
type AssetRef struct {
	AssetID     string     `json:"asset_id"`
	PrimitiveID string     `json:"primitive_id"`
	URL         string     `json:"url,omitempty"`
	SVG         string     `json:"svg,omitempty"`
	Provenance  Provenance `json:"provenance"`
	RenderMeta  RenderMeta `json:"render_meta"`
}

// TimelineStep is one fully resolved lesson step. StepIndex is 0-based and
// contiguous; timeline order is render order.
type TimelineStep struct {
	StepIndex       int        `json:"step_index"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	KeyPoints       []string   `json:"key_points,omitempty"`
	Formula         string     `json:"formula,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	Assets          []AssetRef `json:"assets"`
}

// LessonDocument is the boundary format shared with storage and rendering.
type LessonDocument struct {
	LessonID           string         `json:"lesson_id"`
	Topic              string         `json:"topic"`
	Subtopic           string         `json:"subtopic,omitempty"`
	Intent             string         `json:"intent,omitempty"`
	Audience           string         `json:"audience,omitempty"`
	LearningObjectives []string       `json:"learning_objectives,omitempty"`
	Timeline           []TimelineStep `json:"timeline"`
}

// Lesson rows are write-once: an update inserts a new row with the same
// lesson_id and version+1, reads take the highest version.
type Lesson struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID     string         `gorm:"column:lesson_id;not null;uniqueIndex:idx_lesson_version,priority:1" json:"lesson_id"`
	Version      int            `gorm:"column:version;not null;default:1;uniqueIndex:idx_lesson_version,priority:2" json:"version"`
	Topic        string         `gorm:"column:topic;not null" json:"topic"`
	Document     datatypes.JSON `gorm:"column:document" json:"document"`
	RenderedHTML string         `gorm:"column:rendered_html" json:"-"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
