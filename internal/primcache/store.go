package primcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/types"
)

// Entry is one cached primitive body. Entries are never mutated after insert.
type Entry struct {
	SVG        string           `json:"svg"`
	Provenance types.Provenance `json:"provenance"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Store is the durable backing for the cache. Implementations must make Put
// crash-atomic at single-entry granularity: a failed write may lose the new
// entry but never corrupts previously written ones.
type Store interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
}

// FileStore persists the whole cache as one JSON document: key → entry,
// loaded wholesale at startup and rewritten (tmp + rename) on each insert.
type FileStore struct {
	path string
	log  *logger.Logger

	mu  sync.Mutex
	doc map[string]json.RawMessage
}

func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, log: log.With("store", "FileStore")}
}

func (s *FileStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = map[string]json.RawMessage{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(raw) == 0 {
		return map[string]Entry{}, nil
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		// A wholly unreadable document is treated as empty rather than
		// failing startup; it will be rewritten on the next insert.
		s.log.Warn("Cache document unreadable, starting empty", "path", s.path, "error", err)
		s.doc = map[string]json.RawMessage{}
		return map[string]Entry{}, nil
	}

	entries := make(map[string]Entry, len(s.doc))
	for key, msg := range s.doc {
		var entry Entry
		if err := json.Unmarshal(msg, &entry); err != nil || entry.SVG == "" {
			s.log.Warn("Discarding unreadable cache entry", "key", key, "error", err)
			delete(s.doc, key)
			continue
		}
		entries[key] = entry
	}
	return entries, nil
}

func (s *FileStore) Put(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		s.doc = map[string]json.RawMessage{}
	}
	msg, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	s.doc[key] = msg

	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache document: %w", err)
	}
	return nil
}

// RedisStore keeps entries in a hash, one field per cache key. Same entry
// JSON as FileStore, for deployments that already run the shared cache.
type RedisStore struct {
	client  *redis.Client
	hashKey string
	log     *logger.Logger
}

func NewRedisStore(client *redis.Client, hashKey string, log *logger.Logger) *RedisStore {
	if hashKey == "" {
		hashKey = "kydy:primitives"
	}
	return &RedisStore{client: client, hashKey: hashKey, log: log.With("store", "RedisStore")}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]Entry, error) {
	raw, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load: %w", err)
	}
	entries := make(map[string]Entry, len(raw))
	for key, msg := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(msg), &entry); err != nil || entry.SVG == "" {
			s.log.Warn("Discarding unreadable cache entry", "key", key, "error", err)
			continue
		}
		entries[key] = entry
	}
	return entries, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, entry Entry) error {
	msg, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.HSet(ctx, s.hashKey, key, string(msg)).Err(); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// MemStore is the in-memory stub used in tests.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	putErr  error
}

func NewMemStore() *MemStore {
	return &MemStore{entries: map[string]Entry{}}
}

// FailPuts makes every subsequent Put return err.
func (s *MemStore) FailPuts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

func (s *MemStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Put(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[key] = entry
	return nil
}
