package localfs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/legaldocflow/internal/models"
)

// Store implements the object store on the local filesystem. Objects live at
// {BaseDir}/{bucket}/{path} and are published under {BaseURL}/{bucket}/{path}.
type Store struct {
	BaseDir string
	BaseURL string
}

// NewStore creates a new Store instance.
func NewStore(baseDir, baseURL string) *Store {
	return &Store{BaseDir: baseDir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// PublicURL returns the URL the object is served under.
func (s *Store) PublicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", s.BaseURL, bucket, strings.Join(segments, "/"))
}

// Put writes the object, refusing to replace an existing one.
func (s *Store) Put(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", full, err)
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%s/%s: %w", bucket, path, models.ErrObjectExists)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", full, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write %s: %w", full, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to finalize %s: %w", full, err)
	}
	return s.PublicURL(bucket, path), nil
}

// Delete removes the object; a missing object is not an error.
func (s *Store) Delete(ctx context.Context, bucket, path string) error {
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", full, err)
	}
	return nil
}

func (s *Store) objectPath(bucket, path string) (string, error) {
	root := filepath.Join(s.BaseDir, bucket)
	full := filepath.Join(root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return full, nil
}
