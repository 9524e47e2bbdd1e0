package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/kydy-backend/internal/types"
)

type fakeLessonRepo struct {
	mu         sync.Mutex
	rows       []*types.Lesson
	creates    int
	failNext   error
	failAlways error
}

func (f *fakeLessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failAlways != nil {
		return nil, f.failAlways
	}
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	row := *lesson
	f.rows = append(f.rows, &row)
	return lesson, nil
}

func (f *fakeLessonRepo) GetLatestByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) (*types.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *types.Lesson
	for _, row := range f.rows {
		if row.LessonID != lessonID {
			continue
		}
		if latest == nil || row.Version > latest.Version {
			latest = row
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeLessonRepo) MaxVersion(ctx context.Context, tx *gorm.DB, lessonID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	version := 0
	for _, row := range f.rows {
		if row.LessonID == lessonID && row.Version > version {
			version = row.Version
		}
	}
	return version, nil
}

func (f *fakeLessonRepo) ListLatest(ctx context.Context, tx *gorm.DB) ([]*types.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest := map[string]*types.Lesson{}
	for _, row := range f.rows {
		if cur, ok := latest[row.LessonID]; !ok || row.Version > cur.Version {
			latest[row.LessonID] = row
		}
	}
	out := make([]*types.Lesson, 0, len(latest))
	for _, row := range latest {
		out = append(out, row)
	}
	return out, nil
}

func newTestLessonService(t *testing.T, repo *fakeLessonRepo) LessonService {
	t.Helper()
	t.Setenv("RENDERED_DIR", t.TempDir())
	return NewLessonService(nil, nil, repo, nil, NewFileRenderedStore(testLogger()), testLogger())
}

func sampleLessonDoc(id string) *types.LessonDocument {
	return &types.LessonDocument{
		LessonID: id,
		Topic:    "Ohm's Law",
		Timeline: []types.TimelineStep{
			{StepIndex: 0, Title: "Intro", DurationSeconds: 20},
		},
	}
}

func TestLessonSaveBumpsVersion(t *testing.T) {
	repo := &fakeLessonRepo{}
	svc := newTestLessonService(t, repo)

	doc := sampleLessonDoc("abc12345")
	if err := svc.Save(context.Background(), doc); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := svc.Save(context.Background(), doc); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	row, err := repo.GetLatestByLessonID(context.Background(), nil, "abc12345")
	if err != nil {
		t.Fatalf("GetLatestByLessonID: %v", err)
	}
	if row.Version != 2 {
		t.Fatalf("latest version = %d, want 2", row.Version)
	}
}

func TestLessonSaveRetriesOnVersionConflict(t *testing.T) {
	repo := &fakeLessonRepo{failNext: gorm.ErrDuplicatedKey}
	repo.rows = append(repo.rows, &types.Lesson{LessonID: "abc12345", Version: 1, Topic: "Ohm's Law"})
	svc := newTestLessonService(t, repo)

	if err := svc.Save(context.Background(), sampleLessonDoc("abc12345")); err != nil {
		t.Fatalf("Save should recover from a version conflict: %v", err)
	}
	if repo.creates != 2 {
		t.Fatalf("got %d create attempts, want 2", repo.creates)
	}
	row, err := repo.GetLatestByLessonID(context.Background(), nil, "abc12345")
	if err != nil || row.Version != 2 {
		t.Fatalf("latest after retry: %v version=%d, want 2", err, row.Version)
	}
}

func TestLessonSaveExhaustsConflictRetries(t *testing.T) {
	repo := &fakeLessonRepo{failAlways: gorm.ErrDuplicatedKey}
	svc := newTestLessonService(t, repo)

	err := svc.Save(context.Background(), sampleLessonDoc("abc12345"))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("got %v, want wrapped ErrDuplicatedKey", err)
	}
	if repo.creates != saveVersionRetries {
		t.Fatalf("got %d create attempts, want %d", repo.creates, saveVersionRetries)
	}
}

func TestLessonList(t *testing.T) {
	repo := &fakeLessonRepo{}
	repo.rows = append(repo.rows,
		&types.Lesson{LessonID: "abc12345", Version: 1, Topic: "Ohm's Law"},
		&types.Lesson{LessonID: "abc12345", Version: 2, Topic: "Ohm's Law"},
		&types.Lesson{LessonID: "def67890", Version: 1, Topic: "Gravity"},
	)
	svc := newTestLessonService(t, repo)

	summaries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	versions := map[string]int{}
	for _, s := range summaries {
		versions[s.LessonID] = s.Version
	}
	if versions["abc12345"] != 2 || versions["def67890"] != 1 {
		t.Fatalf("latest versions wrong: %v", versions)
	}
}

func TestLessonGetNotFound(t *testing.T) {
	svc := newTestLessonService(t, &fakeLessonRepo{})
	if _, err := svc.Get(context.Background(), "missing1"); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("got %v, want ErrLessonNotFound", err)
	}
}
