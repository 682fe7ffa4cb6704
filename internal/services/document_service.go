package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/storage"
	"moneta/internal/uuid"
)

// documentService stores uploaded source documents. Metadata lives in the
// database; the bytes live in the injected blob store under a key derived
// from the owner and a fresh UUID, never from the client file name.
type documentService struct {
	db    *gorm.DB
	store storage.Store
}

// NewDocumentService creates a new DocumentServicer.
func NewDocumentService(db *gorm.DB, store storage.Store) DocumentServicer {
	return &documentService{db: db, store: store}
}

// UploadDocument streams the blob to storage and records its metadata.
func (s *documentService) UploadDocument(ctx context.Context, ownerID, fileName, contentType string, size int64, r io.Reader) (*models.Document, error) {
	if fileName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "file name is required")
	}
	if size <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is empty")
	}

	key := fmt.Sprintf("documents/%s/%s", ownerID, uuid.New())
	if err := s.store.Put(ctx, key, contentType, r); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	doc := &models.Document{
		OwnerID:     ownerID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		StorageKey:  key,
	}
	if err := s.db.Create(doc).Error; err != nil {
		// The metadata row is the source of truth; an orphaned blob is
		// harmless, a row without a blob is not.
		_ = s.store.Delete(ctx, key)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return doc, nil
}

// GetDocumentByID retrieves document metadata scoped to the owner.
func (s *documentService) GetDocumentByID(ownerID, documentID string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Where("id = ? AND owner_id = ?", documentID, ownerID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &doc, nil
}

// OpenDocument opens the stored blob for reading along with its metadata.
// The caller owns the returned reader.
func (s *documentService) OpenDocument(ctx context.Context, ownerID, documentID string) (io.ReadCloser, *models.Document, error) {
	doc, err := s.GetDocumentByID(ownerID, documentID)
	if err != nil {
		return nil, nil, err
	}

	r, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return r, doc, nil
}
