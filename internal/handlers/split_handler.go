package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/services"
)

// SplitHandler handles split transaction requests.
type SplitHandler struct {
	splitService services.SplitServicer
	auditService services.AuditServicer
}

// NewSplitHandler creates a new SplitHandler.
func NewSplitHandler(splitService services.SplitServicer, auditService services.AuditServicer) *SplitHandler {
	return &SplitHandler{splitService: splitService, auditService: auditService}
}

// SplitItemRequest is one categorized line of a split request.
type SplitItemRequest struct {
	Amount      int64    `json:"amount" binding:"required,gt=0"`
	Description string   `json:"description" binding:"required,min=1,max=255"`
	CategoryID  *string  `json:"category_id" binding:"omitempty,uuid"`
	Notes       string   `json:"notes" binding:"max=1000"`
	TagIDs      []string `json:"tag_ids" binding:"omitempty,dive,uuid"`
}

// CreateSplitRequest represents the request payload for creating a split transaction
type CreateSplitRequest struct {
	AccountID   string             `json:"account_id" binding:"required,uuid"`
	Type        string             `json:"type" binding:"required,transaction_type"`
	TotalAmount int64              `json:"total_amount" binding:"required,gt=0"`
	Description string             `json:"description" binding:"required,min=1,max=255"`
	Notes       string             `json:"notes" binding:"max=1000"`
	Date        string             `json:"date" binding:"required"`
	Items       []SplitItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateSplit creates a split transaction
// @Summary     Create a split transaction
// @Description Create a parent transaction with per-category child items; item amounts must sum to the total
// @Tags        splits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSplitRequest true "Split transaction details"
// @Success     201 {object} models.Transaction "Split parent created"
// @Failure     400 {object} ErrorResponse "Invalid input or item sum mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/split [post]
func (h *SplitHandler) CreateSplit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format"))
		return
	}

	items := make([]services.SplitItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.SplitItem{
			Amount:      item.Amount,
			Description: item.Description,
			CategoryID:  item.CategoryID,
			Notes:       item.Notes,
			TagIDs:      item.TagIDs,
		})
	}

	parent, err := h.splitService.CreateSplit(
		userID,
		req.AccountID,
		models.TransactionType(req.Type),
		req.TotalAmount,
		req.Description,
		req.Notes,
		date,
		items,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SPLIT", "transaction", parent.ID, c.ClientIP(),
		map[string]interface{}{"total_amount": req.TotalAmount, "items": len(req.Items)})

	c.JSON(http.StatusCreated, gin.H{"transaction": parent})
}

// GetSplitItems lists the children of a split parent
// @Summary     Get split items
// @Description Get the child transactions of a split parent in creation order
// @Tags        splits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Split parent transaction ID"
// @Success     200 {array} models.Transaction "Split children"
// @Failure     400 {object} ErrorResponse "Invalid ID or not a split parent"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/items [get]
func (h *SplitHandler) GetSplitItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	parentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	items, err := h.splitService.GetSplitItems(userID, parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
