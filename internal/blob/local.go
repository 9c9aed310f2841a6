package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"arcade-inventory-backend/config"
)

// LocalURLPrefix is where the router serves the local upload directory.
const LocalURLPrefix = "/uploads"

// LocalStore keeps objects as files under a directory. It cannot sign direct
// uploads.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	dir := cfg.LocalDir
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = LocalURLPrefix
	}
	return &LocalStore{dir: dir, baseURL: base}, nil
}

// Dir is the directory the files live in.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) SignUpload(context.Context, string, string) (*SignedUpload, error) {
	return nil, ErrSigningUnsupported
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	p := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", key, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid object key %q", key)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *LocalStore) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, s.baseURL+"/") {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, s.baseURL+"/")
	return key, validKey(key)
}
