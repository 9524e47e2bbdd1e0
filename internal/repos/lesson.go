package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/types"
)

// LessonRepo persists lesson rows. Rows are append-only per lesson_id: every
// write is a Create with a bumped version, reads take the highest version.
type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error)
	GetLatestByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) (*types.Lesson, error)
	MaxVersion(ctx context.Context, tx *gorm.DB, lessonID string) (int, error)
	ListLatest(ctx context.Context, tx *gorm.DB) ([]*types.Lesson, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

func (r *lessonRepo) GetLatestByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Lesson
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("version DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *lessonRepo) MaxVersion(ctx context.Context, tx *gorm.DB, lessonID string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var version int
	err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Where("lesson_id = ?", lessonID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		return 0, err
	}
	return version, nil
}

// ListLatest returns the highest version of every lesson, newest first.
func (r *lessonRepo) ListLatest(ctx context.Context, tx *gorm.DB) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var all []*types.Lesson
	if err := transaction.WithContext(ctx).
		Order("lesson_id, version DESC").
		Find(&all).Error; err != nil {
		return nil, err
	}

	results := make([]*types.Lesson, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, lesson := range all {
		if seen[lesson.LessonID] {
			continue
		}
		seen[lesson.LessonID] = true
		results = append(results, lesson)
	}
	return results, nil
}
