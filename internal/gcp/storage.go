package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/legaldocflow/internal/models"
	"google.golang.org/api/googleapi"
)

// DefaultPublicBaseURL serves objects of publicly readable buckets.
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ObjectStore writes blobs to Cloud Storage. Buckets passed to it are logical
// names ("videos", "pdfs", "qrcodes") translated through BucketNames.
type ObjectStore struct {
	client        *storage.Client
	bucketNames   map[string]string
	publicBaseURL string
	maxRetries    int
	backoff       time.Duration
}

// NewObjectStore wraps an existing storage client. An empty publicBaseURL
// falls back to DefaultPublicBaseURL.
func NewObjectStore(client *storage.Client, bucketNames map[string]string, publicBaseURL string) *ObjectStore {
	if publicBaseURL == "" {
		publicBaseURL = DefaultPublicBaseURL
	}
	return &ObjectStore{
		client:        client,
		bucketNames:   bucketNames,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		maxRetries:    4,
		backoff:       time.Second,
	}
}

func (s *ObjectStore) bucket(logical string) string {
	if name, ok := s.bucketNames[logical]; ok && name != "" {
		return name
	}
	return logical
}

// PublicURL is a pure function of bucket and path.
func (s *ObjectStore) PublicURL(bucket, path string) string {
	return publicURL(s.publicBaseURL, s.bucket(bucket), path)
}

func publicURL(base, bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, strings.Join(segments, "/"))
}

// Put uploads data only if the object doesn't already exist. An existing
// object yields models.ErrObjectExists and is never retried.
func (s *ObjectStore) Put(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	bkt := s.client.Bucket(s.bucket(bucket))
	backoff := s.backoff
	var lastErr error

	for i := 0; i < s.maxRetries; i++ {
		err := SaveToGCSAtomically(ctx, bkt, path, data, contentType)
		if err == nil {
			return s.PublicURL(bucket, path), nil
		}
		if errors.Is(err, models.ErrObjectExists) {
			return "", err
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsBucket", s.bucket(bucket),
			"gcsObject", path,
			"attempt", i+1,
			"maxRetries", s.maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("upload for %s/%s failed after all retries: %w", s.bucket(bucket), path, lastErr)
}

// Delete removes an object. A missing object is not an error.
func (s *ObjectStore) Delete(ctx context.Context, bucket, path string) error {
	err := s.client.Bucket(s.bucket(bucket)).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", s.bucket(bucket), path, err)
	}
	return nil
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte, contentType string) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(writeCtx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return classifyWriteError(objectName, err)
	}
	if err := writer.Close(); err != nil {
		return classifyWriteError(objectName, err)
	}
	return nil
}

func classifyWriteError(objectName string, err error) error {
	if isPreconditionFailed(err) {
		return fmt.Errorf("%s: %w", objectName, models.ErrObjectExists)
	}
	return fmt.Errorf("failed to write %s to GCS: %w", objectName, err)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
