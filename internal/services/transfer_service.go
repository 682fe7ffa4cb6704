package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// transferService is the transfer coordinator: a thin protocol on top of the
// ledger that creates the paired debit and credit legs of a transfer as one
// atomic unit.
type transferService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, accountService AccountServicer) TransferServicer {
	return &transferService{
		db:             db,
		accountService: accountService,
	}
}

// CreateTransfer moves an amount between two of the owner's accounts. It
// creates the debit leg, the credit leg, and the Transfer record pairing
// them, and applies both balance deltas; all writes commit together or not
// at all.
func (s *transferService) CreateTransfer(ownerID, fromAccountID, toAccountID string, amount int64, description, notes string, date time.Time) (*TransferDetail, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if date.IsZero() {
		date = time.Now()
	}

	if _, err := s.accountService.GetAccountByID(ownerID, fromAccountID); err != nil {
		return nil, err
	}
	if _, err := s.accountService.GetAccountByID(ownerID, toAccountID); err != nil {
		return nil, err
	}

	fromLeg := &models.Transaction{
		OwnerID:     ownerID,
		AccountID:   fromAccountID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Description: description,
		Notes:       notes,
		Date:        date,
	}
	toLeg := &models.Transaction{
		OwnerID:     ownerID,
		AccountID:   toAccountID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Description: description,
		Notes:       notes,
		Date:        date,
	}
	transfer := &models.Transfer{
		OwnerID:       ownerID,
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fromLeg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(toLeg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transfer.TransactionID = fromLeg.ID
		transfer.ToTransactionID = toLeg.ID
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.accountService.ApplyBalanceDelta(tx, fromAccountID, -amount); err != nil {
			return err
		}
		return s.accountService.ApplyBalanceDelta(tx, toAccountID, amount)
	})
	if err != nil {
		return nil, err
	}

	return &TransferDetail{Transfer: transfer, FromLeg: fromLeg, ToLeg: toLeg}, nil
}

// GetTransferByLeg resolves the transfer event either of its legs belongs to.
func (s *transferService) GetTransferByLeg(ownerID, transactionID string) (*TransferDetail, error) {
	var transfer models.Transfer
	if err := s.db.Where("owner_id = ? AND (transaction_id = ? OR to_transaction_id = ?)", ownerID, transactionID, transactionID).
		First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var legs []models.Transaction
	if err := s.db.Where("owner_id = ? AND id IN ?", ownerID, []string{transfer.TransactionID, transfer.ToTransactionID}).
		Find(&legs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	detail := &TransferDetail{Transfer: &transfer}
	for i := range legs {
		if legs[i].ID == transfer.TransactionID {
			detail.FromLeg = &legs[i]
		} else {
			detail.ToLeg = &legs[i]
		}
	}
	return detail, nil
}
