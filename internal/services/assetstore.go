package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/utils"
)

// Filename components come from model output upstream; anything beyond a
// plain lowercase slug is rejected before it can reach the filesystem.
var reAssetName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// AssetStore persists resolved SVG bodies as files served under /assets.
// Filenames are derived from the primitive kind and asset id, so repeated
// resolutions of the same cache key land on the same file.
type AssetStore interface {
	Ensure(kind, assetID, body string) (url string, err error)
	Dir() string
}

type fileAssetStore struct {
	log *logger.Logger
	dir string
}

func NewFileAssetStore(log *logger.Logger) AssetStore {
	dir := utils.GetEnv("ASSETS_DIR", filepath.Join("data", "assets"), nil)
	return &fileAssetStore{log: log.With("service", "AssetStore"), dir: dir}
}

func (s *fileAssetStore) Dir() string { return s.dir }

func (s *fileAssetStore) Ensure(kind, assetID, body string) (string, error) {
	if !reAssetName.MatchString(kind) || !reAssetName.MatchString(assetID) {
		return "", fmt.Errorf("unsafe asset name %q_%q", kind, assetID)
	}
	name := fmt.Sprintf("%s_%s.svg", kind, assetID)
	path := filepath.Join(s.dir, name)
	url := "/assets/" + name

	if _, err := os.Stat(path); err == nil {
		return url, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create assets dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write asset %s: %w", name, err)
	}
	return url, nil
}
