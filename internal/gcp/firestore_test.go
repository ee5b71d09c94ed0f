package gcp

import (
	"context"
	"os"
	"testing"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests talk to the Firestore emulator and are skipped without it.
func newEmulatorStore(t *testing.T) *RecordStore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := NewFirestoreClient(ctx, "legaldocflow-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRecordStore(client, "documents-"+uuid.NewString())
}

func TestRecordStore_Emulator(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	author := "Dra. Silva"
	doc := &models.Document{
		Slug: "abc123", ProcessNumber: "0001234-56.2024.8.26.0100", AuthorName: &author,
		VideoURL: "v", OriginalPDFURL: "o", FinalPDFURL: "f", QRCodeURL: "q",
	}
	require.NoError(t, s.Insert(ctx, doc))

	dup := *doc
	assert.ErrorIs(t, s.Insert(ctx, &dup), models.ErrDuplicateSlug)

	got, err := s.FindBySlug(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, doc.ProcessNumber, got.ProcessNumber)
	require.NotNil(t, got.AuthorName)
	assert.Equal(t, author, *got.AuthorName)
	assert.Nil(t, got.Title)

	_, err = s.FindBySlug(ctx, "zzzzzz")
	assert.ErrorIs(t, err, models.ErrNotFound)

	docs, err := s.List(ctx, models.ListOptions{ProcessNumberContains: "8.26"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestNewFirestoreClient_RequiresProject(t *testing.T) {
	_, err := NewFirestoreClient(context.Background(), "")
	assert.Error(t, err)
}
