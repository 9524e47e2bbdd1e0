package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/render"
	"github.com/yungbote/kydy-backend/internal/repos"
	"github.com/yungbote/kydy-backend/internal/types"
)

var ErrLessonNotFound = errors.New("lesson not found")

// Concurrent saves of the same lesson_id race on the next version number; the
// unique (lesson_id, version) index turns the loser into a conflict we retry.
const saveVersionRetries = 3

// LessonSummary is the listing view of a lesson: latest version only, no
// document body.
type LessonSummary struct {
	LessonID  string    `json:"lesson_id"`
	Topic     string    `json:"topic"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonService is the generate → persist → render pipeline. Lesson rows are
// never mutated: Save always inserts the next version under the same
// lesson_id, so a generated document stays reproducible forever.
type LessonService interface {
	Generate(ctx context.Context, prompt string) (*types.LessonDocument, error)
	Get(ctx context.Context, lessonID string) (*types.LessonDocument, error)
	List(ctx context.Context) ([]LessonSummary, error)
	Save(ctx context.Context, doc *types.LessonDocument) error
	Render(ctx context.Context, lessonID, mode string) (string, error)
}

type lessonService struct {
	log       *logger.Logger
	extractor SkeletonExtractor
	assembler LessonAssembler
	lessons   repos.LessonRepo
	assets    AssetStore
	rendered  RenderedStore
}

func NewLessonService(
	extractor SkeletonExtractor,
	assembler LessonAssembler,
	lessons repos.LessonRepo,
	assets AssetStore,
	rendered RenderedStore,
	log *logger.Logger,
) LessonService {
	return &lessonService{
		log:       log.With("service", "LessonService"),
		extractor: extractor,
		assembler: assembler,
		lessons:   lessons,
		assets:    assets,
		rendered:  rendered,
	}
}

func (s *lessonService) Generate(ctx context.Context, prompt string) (*types.LessonDocument, error) {
	skeleton := s.extractor.Extract(ctx, prompt)
	doc, err := s.assembler.Assemble(ctx, prompt, skeleton)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *lessonService) Save(ctx context.Context, doc *types.LessonDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal lesson document: %w", err)
	}

	// Rendering failure must not lose the generated document; the preview
	// endpoints recompile on demand anyway.
	var renderedHTML string
	if html, renderErr := render.Compile(doc, render.ModeFull); renderErr == nil {
		renderedHTML = html
		if writeErr := s.rendered.WriteLesson(doc.LessonID, html); writeErr != nil {
			s.log.Warn("Failed to write rendered lesson file", "lesson_id", doc.LessonID, "error", writeErr)
		}
	} else {
		s.log.Warn("Failed to compile lesson", "lesson_id", doc.LessonID, "error", renderErr)
	}

	for attempt := 1; ; attempt++ {
		version, err := s.lessons.MaxVersion(ctx, nil, doc.LessonID)
		if err != nil {
			return fmt.Errorf("read lesson version: %w", err)
		}

		row := &types.Lesson{
			LessonID:     doc.LessonID,
			Version:      version + 1,
			Topic:        doc.Topic,
			Document:     raw,
			RenderedHTML: renderedHTML,
		}
		_, err = s.lessons.Create(ctx, nil, row)
		if err == nil {
			s.log.Info("Lesson saved", "lesson_id", doc.LessonID, "version", row.Version)
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < saveVersionRetries {
			s.log.Warn("Lesson version conflict, retrying", "lesson_id", doc.LessonID, "version", row.Version)
			continue
		}
		return fmt.Errorf("persist lesson %s: %w", doc.LessonID, err)
	}
}

func (s *lessonService) List(ctx context.Context) ([]LessonSummary, error) {
	rows, err := s.lessons.ListLatest(ctx, nil)
	if err != nil {
		return nil, err
	}
	summaries := make([]LessonSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, LessonSummary{
			LessonID:  row.LessonID,
			Topic:     row.Topic,
			Version:   row.Version,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return summaries, nil
}

func (s *lessonService) Get(ctx context.Context, lessonID string) (*types.LessonDocument, error) {
	row, err := s.lessons.GetLatestByLessonID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}

	var doc types.LessonDocument
	if err := json.Unmarshal(row.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode lesson %s: %w", lessonID, err)
	}
	return &doc, nil
}

func (s *lessonService) Render(ctx context.Context, lessonID, mode string) (string, error) {
	doc, err := s.Get(ctx, lessonID)
	if err != nil {
		return "", err
	}
	s.hydrateAssets(doc)
	return render.Compile(doc, mode)
}

// hydrateAssets re-reads large SVG bodies that were persisted by URL only, so
// the compiled page is self-contained.
func (s *lessonService) hydrateAssets(doc *types.LessonDocument) {
	for si := range doc.Timeline {
		for ai := range doc.Timeline[si].Assets {
			asset := &doc.Timeline[si].Assets[ai]
			if asset.SVG != "" || asset.URL == "" {
				continue
			}
			name := filepath.Base(asset.URL)
			raw, err := os.ReadFile(filepath.Join(s.assets.Dir(), name))
			if err != nil {
				s.log.Warn("Failed to hydrate asset", "url", asset.URL, "error", err)
				continue
			}
			asset.SVG = string(raw)
		}
	}
}
