package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/importer"
	"moneta/internal/services"
)

// maxImportSize caps import files at 5 MiB.
const maxImportSize = 5 << 20

// ImportHandler handles bulk CSV imports.
type ImportHandler struct {
	importer     *importer.Importer
	auditService services.AuditServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imp *importer.Importer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{importer: imp, auditService: auditService}
}

// ImportCSV imports transactions from an uploaded CSV file
// @Summary     Import transactions from CSV
// @Description Import transactions in bulk from a CSV export. Malformed files are rejected as a whole; rows that cannot be resolved are skipped with warnings.
// @Tags        import
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV file"
// @Success     200 {object} importer.Result "Import result"
// @Failure     400 {object} ErrorResponse "Invalid or missing file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/import [post]
func (h *ImportHandler) ImportCSV(c *gin.Context) {
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
	if fileHeader.Size > maxImportSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	result, err := h.importer.ImportCSV(c.Request.Context(), userID, file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IMPORT_TRANSACTIONS", "import", "", c.ClientIP(),
		map[string]interface{}{"created": result.Created, "skipped": result.Skipped})

	c.JSON(http.StatusOK, result)
}
