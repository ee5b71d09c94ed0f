package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readObject(t *testing.T, s *Store, bucket, path string) ([]byte, error) {
	t.Helper()
	return os.ReadFile(filepath.Join(s.BaseDir, bucket, filepath.FromSlash(path)))
}

func TestStore_Put(t *testing.T) {
	s := NewStore(t.TempDir(), "http://localhost:8080/files/")
	ctx := context.Background()

	u, err := s.Put(ctx, "pdfs", "original/abc123.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/pdfs/original/abc123.pdf", u)
	assert.Equal(t, u, s.PublicURL("pdfs", "original/abc123.pdf"))

	got, err := readObject(t, s, "pdfs", "original/abc123.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), got)

	_, err = s.Put(ctx, "pdfs", "original/abc123.pdf", []byte("other"), "application/pdf")
	assert.ErrorIs(t, err, models.ErrObjectExists)

	got, err = readObject(t, s, "pdfs", "original/abc123.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), got, "existing object must not be clobbered")
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(t.TempDir(), "http://x")
	ctx := context.Background()

	_, err := s.Put(ctx, "qrcodes", "abc123.png", []byte{1}, "image/png")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "qrcodes", "abc123.png"))
	require.NoError(t, s.Delete(ctx, "qrcodes", "abc123.png"))

	_, err = readObject(t, s, "qrcodes", "abc123.png")
	assert.Error(t, err)
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	s := NewStore(t.TempDir(), "http://x")
	_, err := s.Put(context.Background(), "videos", "../../etc/passwd", []byte{1}, "video/mp4")
	assert.Error(t, err)
}
