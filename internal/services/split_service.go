package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// splitSumTolerance is the largest allowed gap, in minor units, between the
// declared total and the sum of the items. Amounts are integer cents, so one
// minor unit covers callers that rounded a decimal total separately from its
// parts.
const splitSumTolerance = 1

// splitService is the split coordinator: it decomposes one transaction into
// categorized child line-items under a non-balance-affecting parent row.
type splitService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewSplitService creates a new SplitServicer.
func NewSplitService(db *gorm.DB, accountService AccountServicer) SplitServicer {
	return &splitService{
		db:             db,
		accountService: accountService,
	}
}

// CreateSplit creates a split parent and one child per item atomically. The
// parent carries no category and its amount is set to the exact sum of the
// children; the aggregate signed effect is applied to the account exactly
// once, never once per child.
func (s *splitService) CreateSplit(
	ownerID, accountID string,
	transactionType models.TransactionType,
	totalAmount int64,
	description, notes string,
	date time.Time,
	items []SplitItem,
) (*models.Transaction, error) {
	if totalAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if len(items) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one split item is required")
	}

	var itemSum int64
	for _, item := range items {
		if item.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "split item amounts must be greater than zero")
		}
		itemSum += item.Amount
	}
	diff := totalAmount - itemSum
	if diff < -splitSumTolerance || diff > splitSumTolerance {
		return nil, apperrors.ErrSplitSumMismatch
	}
	if date.IsZero() {
		date = time.Now()
	}

	if _, err := s.accountService.GetAccountByID(ownerID, accountID); err != nil {
		return nil, err
	}
	itemTags := make([][]models.Tag, len(items))
	for i, item := range items {
		if item.CategoryID != nil {
			if err := checkCategoryOwnership(s.db, ownerID, *item.CategoryID); err != nil {
				return nil, err
			}
		}
		tags, err := loadOwnerTags(s.db, ownerID, item.TagIDs)
		if err != nil {
			return nil, err
		}
		itemTags[i] = tags
	}

	// The parent's stored amount is the children's exact sum so that the
	// parent-equals-children invariant holds even when the declared total
	// sat at the edge of the tolerance.
	parent := &models.Transaction{
		OwnerID:     ownerID,
		AccountID:   accountID,
		Type:        transactionType,
		Amount:      itemSum,
		Description: description,
		Notes:       notes,
		Date:        date,
		IsParent:    true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(parent).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i, item := range items {
			childDescription := item.Description
			if childDescription == "" {
				childDescription = description
			}
			child := &models.Transaction{
				OwnerID:     ownerID,
				AccountID:   accountID,
				CategoryID:  item.CategoryID,
				Type:        transactionType,
				Amount:      item.Amount,
				Description: childDescription,
				Notes:       item.Notes,
				Date:        date,
				ParentID:    &parent.ID,
			}
			if err := tx.Create(child).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if len(itemTags[i]) > 0 {
				if err := tx.Model(child).Association("Tags").Append(itemTags[i]); err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			parent.Children = append(parent.Children, *child)
		}
		return s.accountService.ApplyBalanceDelta(tx, accountID, signedEffect(transactionType, itemSum))
	})
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// GetSplitItems returns a split parent's children in creation order.
func (s *splitService) GetSplitItems(ownerID, parentID string) ([]models.Transaction, error) {
	var parent models.Transaction
	if err := s.db.Where("id = ? AND owner_id = ?", parentID, ownerID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !parent.IsParent {
		return nil, apperrors.ErrNotSplitParent
	}

	var children []models.Transaction
	if err := s.db.Preload("Tags").
		Where("owner_id = ? AND parent_id = ?", ownerID, parentID).
		Order("created_at, id").
		Find(&children).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return children, nil
}
