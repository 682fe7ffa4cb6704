package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/services"
)

// maxDocumentSize caps uploads at 20 MiB.
const maxDocumentSize = 20 << 20

// DocumentHandler handles uploaded source documents.
type DocumentHandler struct {
	documentService services.DocumentServicer
	auditService    services.AuditServicer
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService services.DocumentServicer, auditService services.AuditServicer) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, auditService: auditService}
}

// UploadDocument stores a receipt or statement file
// @Summary     Upload a document
// @Description Upload a receipt or statement file; the returned document ID can be attached to transactions
// @Tags        documents
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "Document file"
// @Success     201 {object} models.Document "Document stored"
// @Failure     400 {object} ErrorResponse "Invalid or missing file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	if fileHeader.Size > maxDocumentSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	doc, err := h.documentService.UploadDocument(
		c.Request.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPLOAD_DOCUMENT", "document", doc.ID, c.ClientIP(),
		map[string]interface{}{"file_name": doc.FileName, "size": doc.Size})

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// GetDocumentByID retrieves document metadata
// @Summary     Get document metadata
// @Description Get a document's metadata for the authenticated user
// @Tags        documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Document ID"
// @Success     200 {object} models.Document "Document metadata"
// @Failure     400 {object} ErrorResponse "Invalid document ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /documents/{id} [get]
func (h *DocumentHandler) GetDocumentByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	documentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	doc, err := h.documentService.GetDocumentByID(userID, documentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// DownloadDocument streams the stored file
// @Summary     Download document
// @Description Stream the stored file bytes with the original file name and content type
// @Tags        documents
// @Produce     octet-stream
// @Security    BearerAuth
// @Param       id path string true "Document ID"
// @Success     200 {file} binary "Document bytes"
// @Failure     400 {object} ErrorResponse "Invalid document ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /documents/{id}/download [get]
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	documentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	reader, doc, err := h.documentService.OpenDocument(c.Request.Context(), userID, documentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Length", strconv.FormatInt(doc.Size, 10))
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are already written; log instead of responding.
		logger.Get().Errorw("failed to stream document",
			"error", err,
			"document_id", documentID,
		)
	}
}
