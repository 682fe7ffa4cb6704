package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"moneta/internal/storage"
	"moneta/internal/testutil"
)

func newTestDocumentService(t *testing.T) (DocumentServicer, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	return NewDocumentService(db, store), func() { testutil.TeardownTestDB(t, db) }
}

func TestUploadDocument(t *testing.T) {
	t.Run("stores_blob_and_metadata", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store, err := storage.NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}
		svc := NewDocumentService(db, store)
		user := testutil.CreateTestUser(t, db)

		contents := "receipt bytes"
		doc, err := svc.UploadDocument(context.Background(), user.ID,
			"receipt.pdf", "application/pdf", int64(len(contents)), strings.NewReader(contents))
		testutil.AssertNoError(t, err)

		if doc.FileName != "receipt.pdf" || doc.ContentType != "application/pdf" {
			t.Errorf("unexpected metadata: %+v", doc)
		}
		if doc.StorageKey == "" || strings.Contains(doc.StorageKey, "receipt.pdf") {
			t.Errorf("expected generated storage key, got %q", doc.StorageKey)
		}

		rc, err := store.Get(context.Background(), doc.StorageKey)
		testutil.AssertNoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != contents {
			t.Errorf("expected stored contents, got %q", data)
		}
	})

	t.Run("empty_file_name", func(t *testing.T) {
		svc, teardown := newTestDocumentService(t)
		defer teardown()

		_, err := svc.UploadDocument(context.Background(), "owner", "", "", 5, strings.NewReader("bytes"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty_file", func(t *testing.T) {
		svc, teardown := newTestDocumentService(t)
		defer teardown()

		_, err := svc.UploadDocument(context.Background(), "owner", "x.pdf", "", 0, strings.NewReader(""))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetDocumentByID(t *testing.T) {
	t.Run("foreign_owner_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store, err := storage.NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}
		svc := NewDocumentService(db, store)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		doc, err := svc.UploadDocument(context.Background(), user1.ID,
			"receipt.pdf", "", 5, strings.NewReader("bytes"))
		testutil.AssertNoError(t, err)

		_, err = svc.GetDocumentByID(user2.ID, doc.ID)
		testutil.AssertAppError(t, err, "DOCUMENT_NOT_FOUND")
	})
}

func TestOpenDocument(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store, err := storage.NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create local store: %v", err)
		}
		svc := NewDocumentService(db, store)
		user := testutil.CreateTestUser(t, db)

		doc, err := svc.UploadDocument(context.Background(), user.ID,
			"receipt.pdf", "application/pdf", 5, strings.NewReader("bytes"))
		testutil.AssertNoError(t, err)

		rc, meta, err := svc.OpenDocument(context.Background(), user.ID, doc.ID)
		testutil.AssertNoError(t, err)
		defer rc.Close()

		if meta.ID != doc.ID {
			t.Errorf("expected document %s, got %s", doc.ID, meta.ID)
		}
		data, _ := io.ReadAll(rc)
		if string(data) != "bytes" {
			t.Errorf("expected bytes, got %q", data)
		}
	})

	t.Run("missing_document", func(t *testing.T) {
		svc, teardown := newTestDocumentService(t)
		defer teardown()

		_, _, err := svc.OpenDocument(context.Background(), "owner", "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "DOCUMENT_NOT_FOUND")
	})
}
