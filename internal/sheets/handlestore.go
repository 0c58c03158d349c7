package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// HandleStore persists the resolved spreadsheet id across restarts so a new
// process can skip the title search. Both operations are best-effort from
// the provisioner's point of view.
type HandleStore interface {
	Load(ctx context.Context) (string, error) // "" when nothing stored
	Save(ctx context.Context, id string) error
}

// FileStore keeps the id in a small JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed handle store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type handleFile struct {
	SpreadsheetID string `json:"spreadsheet_id"`
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sheets: reading handle file: %w", err)
	}
	var f handleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("sheets: parsing handle file: %w", err)
	}
	return f.SpreadsheetID, nil
}

func (s *FileStore) Save(ctx context.Context, id string) error {
	data, err := json.Marshal(handleFile{SpreadsheetID: id})
	if err != nil {
		return fmt.Errorf("sheets: encoding handle file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("sheets: writing handle file: %w", err)
	}
	return nil
}

// RedisStore shares the id across replicas through Redis. The key is scoped
// by organization so deployments can share an instance.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a Redis-backed handle store for organization.
func NewRedisStore(redisClient *redis.Client, organization string) *RedisStore {
	return &RedisStore{
		redis: redisClient,
		key:   fmt.Sprintf("leadrelay:spreadsheet:%s", slugify(organization)),
	}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	id, err := s.redis.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sheets: redis get: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Save(ctx context.Context, id string) error {
	if err := s.redis.Set(ctx, s.key, id, 0).Err(); err != nil {
		return fmt.Errorf("sheets: redis set: %w", err)
	}
	return nil
}

// slugify lowers the organization name to a stable key fragment.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var (
	_ HandleStore = (*FileStore)(nil)
	_ HandleStore = (*RedisStore)(nil)
)
