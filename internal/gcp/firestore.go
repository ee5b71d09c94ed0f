package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/legaldocflow/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// RecordStore keeps one Firestore document per record, keyed by slug. Using
// the slug as document ID makes Create the unique constraint.
type RecordStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewRecordStore returns a store over the given collection.
func NewRecordStore(client *firestore.Client, collection string) *RecordStore {
	if collection == "" {
		collection = "documents"
	}
	return &RecordStore{client: client, collection: collection, now: time.Now}
}

// Insert creates the record. It fails with models.ErrDuplicateSlug when a
// record with the same slug exists.
func (s *RecordStore) Insert(ctx context.Context, doc *models.Document) error {
	doc.CreatedAt = s.now().UTC()
	_, err := s.client.Collection(s.collection).Doc(doc.Slug).Create(ctx, doc)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("slug %q: %w", doc.Slug, models.ErrDuplicateSlug)
	}
	if err != nil {
		return fmt.Errorf("failed to create record %q: %w", doc.Slug, err)
	}
	return nil
}

// FindBySlug returns models.ErrNotFound when no record exists.
func (s *RecordStore) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	snap, err := s.client.Collection(s.collection).Doc(slug).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %q: %w", slug, err)
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode record %q: %w", slug, err)
	}
	return &doc, nil
}

// List returns records newest first. Firestore has no substring match, so the
// process-number filter runs over the ordered stream.
func (s *RecordStore) List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error) {
	query := s.client.Collection(s.collection).OrderBy("createdAt", firestore.Desc)
	filter := strings.ToLower(opts.ProcessNumberContains)
	if filter == "" && opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	docs := []*models.Document{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", snap.Ref.ID, err)
		}
		if filter != "" && !strings.Contains(strings.ToLower(doc.ProcessNumber), filter) {
			continue
		}
		docs = append(docs, &doc)
		if opts.Limit > 0 && len(docs) >= opts.Limit {
			break
		}
	}
	return docs, nil
}
