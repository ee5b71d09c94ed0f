package services

import (
	"context"
	"errors"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/Lllllllleong/legaldocflow/internal/slug"
)

// MaxListLimit caps a single history page.
const MaxListLimit = 1000

// ErrInvalidSlug is returned for lookups with a malformed slug.
var ErrInvalidSlug = errors.New("invalid slug")

// DocumentQuery serves the read-only landing viewer and the history page.
type DocumentQuery struct {
	records RecordStore
}

// NewDocumentQuery returns a query service over records.
func NewDocumentQuery(records RecordStore) *DocumentQuery {
	return &DocumentQuery{records: records}
}

// Get returns the record for s, or models.ErrNotFound.
func (q *DocumentQuery) Get(ctx context.Context, s string) (*models.Document, error) {
	if !slug.Valid(s) {
		return nil, ErrInvalidSlug
	}
	return q.records.FindBySlug(ctx, s)
}

// List returns records newest first.
func (q *DocumentQuery) List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error) {
	if opts.Limit <= 0 || opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	return q.records.List(ctx, opts)
}
