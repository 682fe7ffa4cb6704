package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

var validAccountTypes = map[models.AccountType]bool{
	models.AccountTypeChecking:   true,
	models.AccountTypeSavings:    true,
	models.AccountTypeCreditCard: true,
	models.AccountTypeCash:       true,
}

// CreateAccount creates a new account for an owner. The cached balance
// starts at the initial balance baseline.
func (s *accountService) CreateAccount(ownerID, name string, accountType models.AccountType, initialBalance int64, initialBalanceDate *time.Time) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !validAccountTypes[accountType] {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account type")
	}

	var count int64
	if err := s.db.Model(&models.Account{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAccountName
	}

	account := &models.Account{
		OwnerID:            ownerID,
		Name:               name,
		Type:               accountType,
		Balance:            initialBalance,
		InitialBalance:     initialBalance,
		InitialBalanceDate: initialBalanceDate,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetOwnerAccounts retrieves a paginated list of accounts for an owner.
func (s *accountService) GetOwnerAccounts(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("owner_id = ?", ownerID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific owner.
func (s *accountService) GetAccountByID(ownerID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND owner_id = ?", accountID, ownerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account. If the initial balance baseline
// changes, the cached balance is recomputed from scratch: the baseline shift
// invalidates every previously applied delta, so patching is not an option.
func (s *accountService) UpdateAccount(ownerID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(ownerID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" && *fields.Name != account.Name {
		var count int64
		if err := s.db.Model(&models.Account{}).
			Where("owner_id = ? AND name = ? AND id <> ?", ownerID, *fields.Name, accountID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateAccountName
		}
		updates["name"] = *fields.Name
	}
	if fields.Type != nil {
		if !validAccountTypes[*fields.Type] {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account type")
		}
		updates["type"] = *fields.Type
	}
	if fields.InitialBalanceDate != nil {
		updates["initial_balance_date"] = *fields.InitialBalanceDate
	}

	rebase := fields.InitialBalance != nil && *fields.InitialBalance != account.InitialBalance
	if fields.InitialBalance != nil {
		updates["initial_balance"] = *fields.InitialBalance
	}

	if len(updates) == 0 {
		return account, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(account).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if rebase {
			if _, err := recalculateBalance(tx, ownerID, accountID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("id = ?", accountID).First(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// DeleteAccount deletes an account. Accounts that still have transactions or
// transfer legs cannot be deleted; nothing is cascaded silently.
func (s *accountService) DeleteAccount(ownerID, accountID string) error {
	account, err := s.GetAccountByID(ownerID, accountID)
	if err != nil {
		return err
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrAccountInUse
	}

	var transferCount int64
	if err := s.db.Model(&models.Transfer{}).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Count(&transferCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transferCount > 0 {
		return apperrors.ErrAccountInUse
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyBalanceDelta adds a signed amount to an account's cached balance as a
// server-side increment. The new value is never computed in application code
// from a separately read balance, so concurrent writers cannot lose updates.
// Must be called inside the same database transaction as the row write that
// caused the delta.
func (s *accountService) ApplyBalanceDelta(tx *gorm.DB, accountID string, delta int64) error {
	result := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
