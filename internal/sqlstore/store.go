package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to a sqlite or postgres database and migrates the schema.
func Open(dialect, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case "sqlite":
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the documents table and its unique slug index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Document{}); err != nil {
		return fmt.Errorf("failed to migrate documents: %w", err)
	}
	return nil
}

// Store persists records through gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore returns a Store over an opened, migrated database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Insert fails with models.ErrDuplicateSlug when the unique index rejects the slug.
func (s *Store) Insert(ctx context.Context, doc *models.Document) error {
	doc.ID = 0
	doc.CreatedAt = s.now().UTC()
	err := s.db.WithContext(ctx).Create(doc).Error
	if isDuplicate(err) {
		return fmt.Errorf("slug %q: %w", doc.Slug, models.ErrDuplicateSlug)
	}
	if err != nil {
		return fmt.Errorf("failed to insert record %q: %w", doc.Slug, err)
	}
	return nil
}

// FindBySlug returns models.ErrNotFound when no record exists.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record %q: %w", slug, err)
	}
	return &doc, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error) {
	query := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if opts.ProcessNumberContains != "" {
		query = query.Where("LOWER(process_number) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(opts.ProcessNumberContains))+"%")
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	docs := []*models.Document{}
	if err := query.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return docs, nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
