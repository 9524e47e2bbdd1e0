package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/utils"
)

// RenderedFile describes one compiled HTML document on disk.
type RenderedFile struct {
	Filename  string    `json:"filename"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	URL       string    `json:"url"`
	RenderURL string    `json:"render_url"`
}

// RenderedStore keeps compiled lesson and session HTML as flat files, named
// lesson_<id>.html / session_<id>.html under the rendered directory.
type RenderedStore interface {
	WriteLesson(lessonID, html string) error
	WriteSession(sessionID, html string) error
	ReadSession(sessionID string) (string, bool)
	Read(filename string) (string, error)
	List() ([]RenderedFile, error)
}

type fileRenderedStore struct {
	log *logger.Logger
	dir string
}

func NewFileRenderedStore(log *logger.Logger) RenderedStore {
	dir := utils.GetEnv("RENDERED_DIR", filepath.Join("data", "rendered"), nil)
	return &fileRenderedStore{log: log.With("service", "RenderedStore"), dir: dir}
}

func (s *fileRenderedStore) WriteLesson(lessonID, html string) error {
	return s.write(fmt.Sprintf("lesson_%s.html", lessonID), html)
}

func (s *fileRenderedStore) WriteSession(sessionID, html string) error {
	return s.write(fmt.Sprintf("session_%s.html", sessionID), html)
}

func (s *fileRenderedStore) write(name, html string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create rendered dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(html), 0o644); err != nil {
		return fmt.Errorf("write rendered file %s: %w", name, err)
	}
	return nil
}

func (s *fileRenderedStore) ReadSession(sessionID string) (string, bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, fmt.Sprintf("session_%s.html", sessionID)))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Read rejects anything that is not a plain .html filename so the rendered
// directory cannot be escaped through the URL path.
func (s *fileRenderedStore) Read(filename string) (string, error) {
	if filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".html") {
		return "", fmt.Errorf("invalid rendered filename %q", filename)
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *fileRenderedStore) List() ([]RenderedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RenderedFile{}, nil
		}
		return nil, err
	}

	files := make([]RenderedFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".html") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fileType := "session"
		if strings.HasPrefix(name, "lesson_") {
			fileType = "lesson"
		}
		id := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(name, "lesson_"), "session_"), ".html")
		renderURL := "/sessions/" + id + "/render"
		if fileType == "lesson" {
			renderURL = "/render/" + id
		}
		files = append(files, RenderedFile{
			Filename:  name,
			ID:        id,
			Type:      fileType,
			Size:      info.Size(),
			Modified:  info.ModTime(),
			URL:       "/rendered/" + name,
			RenderURL: renderURL,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })
	return files, nil
}
