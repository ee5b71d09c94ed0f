package services

import (
	"context"

	"github.com/Lllllllleong/legaldocflow/internal/models"
)

// Logical buckets. Backends map them to physical bucket names.
const (
	BucketVideos  = "videos"
	BucketPDFs    = "pdfs"
	BucketQRCodes = "qrcodes"
)

// ObjectStore stores blobs by path and hands back their public URL. Put must
// refuse to overwrite and report that with models.ErrObjectExists.
type ObjectStore interface {
	Put(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	PublicURL(bucket, path string) string
	Delete(ctx context.Context, bucket, path string) error
}

// RecordStore persists one record per document. Insert must report a slug
// collision with models.ErrDuplicateSlug; FindBySlug reports a miss with
// models.ErrNotFound.
type RecordStore interface {
	Insert(ctx context.Context, doc *models.Document) error
	FindBySlug(ctx context.Context, slug string) (*models.Document, error)
	List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error)
}

// SlugSource yields candidate slugs.
type SlugSource interface {
	Next() (string, error)
}

// QREncoder renders a URL as a square PNG.
type QREncoder interface {
	Encode(ctx context.Context, url string, sizePx int) ([]byte, error)
}

// Compositor stamps the QR image on the first page of a PDF.
type Compositor interface {
	StampQR(src, img []byte) ([]byte, error)
}

// EventPublisher is told about committed documents.
type EventPublisher interface {
	DocumentProcessed(ctx context.Context, e models.DocumentProcessedEvent) error
}
