package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID    string         `gorm:"column:session_id;not null;uniqueIndex" json:"session_id"`
	Topic        string         `gorm:"column:topic;not null" json:"topic"`
	LessonID     string         `gorm:"column:lesson_id;index" json:"lesson_id,omitempty"`
	Messages     datatypes.JSON `gorm:"column:messages" json:"messages,omitempty"`
	Notes        datatypes.JSON `gorm:"column:notes" json:"notes,omitempty"`
	SessionTime  int            `gorm:"column:session_time;not null;default:0" json:"session_time"`
	RenderedHTML string         `gorm:"column:rendered_html" json:"-"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Session) TableName() string { return "session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
