package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/legaldocflow/internal/gcp"
	"github.com/Lllllllleong/legaldocflow/internal/localfs"
	"github.com/Lllllllleong/legaldocflow/internal/notify"
	"github.com/Lllllllleong/legaldocflow/internal/pdf"
	"github.com/Lllllllleong/legaldocflow/internal/qr"
	"github.com/Lllllllleong/legaldocflow/internal/slug"
	"github.com/Lllllllleong/legaldocflow/internal/sqlstore"
)

// Config holds all configuration read from the environment.
type Config struct {
	ProjectID        string
	StorageBackend   string
	LocalStorageDir  string
	PublicBaseURL    string
	Buckets          map[string]string
	RecordBackend    string
	RecordCollection string
	DatabaseDSN      string
	QRProvider       string
	QRProviderURL    string
	EventSinkURL     string
	MaxUploadBytes   int64
	Processor        ProcessorConfig
}

// LoadConfig loads and validates all necessary environment variables.
func LoadConfig() (*Config, error) {
	defaults := DefaultProcessorConfig()
	maxAttempts, err := envInt("MAX_SLUG_ATTEMPTS", defaults.MaxSlugAttempts)
	if err != nil {
		return nil, err
	}
	maxUpload, err := envInt("MAX_UPLOAD_BYTES", 512<<20)
	if err != nil {
		return nil, err
	}
	cleanup, err := strconv.ParseBool(gcp.GetEnv("CLEANUP_ON_FAILURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("CLEANUP_ON_FAILURE must be a boolean: %w", err)
	}

	config := &Config{
		ProjectID:       gcp.GetEnv("PROJECT_ID", ""),
		StorageBackend:  gcp.GetEnv("STORAGE_BACKEND", "gcs"),
		LocalStorageDir: gcp.GetEnv("LOCAL_STORAGE_DIR", "./data/objects"),
		PublicBaseURL:   gcp.GetEnv("PUBLIC_BASE_URL", ""),
		Buckets: map[string]string{
			BucketVideos:  gcp.GetEnv("VIDEOS_BUCKET", BucketVideos),
			BucketPDFs:    gcp.GetEnv("PDFS_BUCKET", BucketPDFs),
			BucketQRCodes: gcp.GetEnv("QRCODES_BUCKET", BucketQRCodes),
		},
		RecordBackend:    gcp.GetEnv("RECORD_BACKEND", "firestore"),
		RecordCollection: gcp.GetEnv("RECORD_COLLECTION", "documents"),
		DatabaseDSN:      gcp.GetEnv("DATABASE_DSN", "./data/documents.db"),
		QRProvider:       gcp.GetEnv("QR_PROVIDER", "local"),
		QRProviderURL:    gcp.GetEnv("QR_PROVIDER_URL", qr.DefaultProviderURL),
		EventSinkURL:     gcp.GetEnv("EVENT_SINK_URL", ""),
		MaxUploadBytes:   int64(maxUpload),
		Processor: ProcessorConfig{
			MaxSlugAttempts:  maxAttempts,
			QRSizePx:         defaults.QRSizePx,
			CleanupOnFailure: cleanup,
		},
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks backend names and their required settings.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "gcs", "local":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be gcs or local, got %q", c.StorageBackend)
	}
	switch c.RecordBackend {
	case "firestore":
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID environment variable must be set for the firestore backend")
		}
	case "sqlite", "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN environment variable must be set for the %s backend", c.RecordBackend)
		}
	default:
		return fmt.Errorf("RECORD_BACKEND must be firestore, sqlite or postgres, got %q", c.RecordBackend)
	}
	switch c.QRProvider {
	case "local", "qrserver":
	default:
		return fmt.Errorf("QR_PROVIDER must be local or qrserver, got %q", c.QRProvider)
	}
	if c.Processor.MaxSlugAttempts <= 0 {
		return fmt.Errorf("MAX_SLUG_ATTEMPTS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// Services bundles the pipeline and the read side built from one Config.
type Services struct {
	Processor *DocumentProcessor
	Query     *DocumentQuery
	Config    *Config
	closers   []func() error
}

// New creates every client named by config once; the result is shared by
// all requests of the process.
func New(ctx context.Context, config *Config) (*Services, error) {
	s := &Services{Config: config}

	objects, err := s.newObjectStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	records, err := s.newRecordStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	var encoder QREncoder = qr.NewLocalEncoder()
	if config.QRProvider == "qrserver" {
		encoder = qr.NewRemoteEncoder(config.QRProviderURL, nil)
	}

	deps := Dependencies{
		Objects:    objects,
		Records:    records,
		Slugs:      slug.NewGenerator(),
		QR:         encoder,
		Compositor: pdf.NewCompositor(),
	}
	if config.EventSinkURL != "" {
		publisher, err := notify.NewPublisher(config.EventSinkURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		deps.Events = publisher
	}

	processor, err := NewProcessor(config.Processor, deps)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Processor = processor
	s.Query = NewDocumentQuery(records)

	slog.Info("Document services initialized.",
		"storageBackend", config.StorageBackend,
		"recordBackend", config.RecordBackend,
		"qrProvider", config.QRProvider,
		"events", config.EventSinkURL != "",
	)
	return s, nil
}

func (s *Services) newObjectStore(ctx context.Context) (ObjectStore, error) {
	if s.Config.StorageBackend == "local" {
		baseURL := s.Config.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080/files"
		}
		return localfs.NewStore(s.Config.LocalStorageDir, baseURL), nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	s.closers = append(s.closers, client.Close)
	return gcp.NewObjectStore(client, s.Config.Buckets, s.Config.PublicBaseURL), nil
}

func (s *Services) newRecordStore(ctx context.Context) (RecordStore, error) {
	if s.Config.RecordBackend == "firestore" {
		client, err := gcp.NewFirestoreClient(ctx, s.Config.ProjectID)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		return gcp.NewRecordStore(client, s.Config.RecordCollection), nil
	}

	db, err := sqlstore.Open(s.Config.RecordBackend, s.Config.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	s.closers = append(s.closers, sqlDB.Close)
	return sqlstore.NewStore(db), nil
}

// Close releases every client created by New.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
