package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// transactionService is the transaction ledger: it owns transaction rows and
// the balance-maintenance algorithms. Every mutation that touches a balance
// runs the row write and the balance write in one database transaction.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// signedEffect returns the contribution a non-transfer transaction makes to
// its account's balance: income adds, expense subtracts. Transfer legs are
// resolved through their Transfer record instead.
func signedEffect(transactionType models.TransactionType, amount int64) int64 {
	if transactionType == models.TransactionTypeExpense {
		return -amount
	}
	return amount
}

// recalculateBalance recomputes an account's cached balance from scratch:
// initial balance plus the signed effect of every non-parent transaction on
// the account, with transfer legs resolved to debit or credit through their
// Transfer record. The re-read and the balance write share the caller's
// database transaction, and the account row is locked before the re-read so
// an in-flight balance delta cannot commit between the two: a concurrent
// writer either commits first and is counted, or blocks on the row lock and
// re-applies its delta on top of the recalculated value. Returns the fresh
// balance.
func recalculateBalance(tx *gorm.DB, ownerID, accountID string) (int64, error) {
	var account models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", accountID, ownerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrAccountNotFound
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.Transaction
	if err := tx.Where("owner_id = ? AND account_id = ? AND is_parent = ?", ownerID, accountID, false).
		Find(&rows).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transfers []models.Transfer
	if err := tx.Where("owner_id = ? AND (from_account_id = ? OR to_account_id = ?)", ownerID, accountID, accountID).
		Find(&transfers).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	debitLegs := make(map[string]bool, len(transfers))
	creditLegs := make(map[string]bool, len(transfers))
	for _, tr := range transfers {
		debitLegs[tr.TransactionID] = true
		creditLegs[tr.ToTransactionID] = true
	}

	balance := account.InitialBalance
	for _, row := range rows {
		switch row.Type {
		case models.TransactionTypeIncome:
			balance += row.Amount
		case models.TransactionTypeExpense:
			balance -= row.Amount
		case models.TransactionTypeTransfer:
			if debitLegs[row.ID] {
				balance -= row.Amount
			} else if creditLegs[row.ID] {
				balance += row.Amount
			}
		}
	}

	if err := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", balance).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance, nil
}

// CreateTransaction creates a regular income or expense transaction and
// applies its signed effect to the account. Transfers are never created
// through this path; use the transfer coordinator.
func (s *transactionService) CreateTransaction(
	ownerID, accountID string,
	categoryID *string,
	transactionType models.TransactionType,
	amount int64,
	description, notes string,
	date time.Time,
	tagIDs []string,
	documentID *string,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if date.IsZero() {
		date = time.Now()
	}

	if _, err := s.accountService.GetAccountByID(ownerID, accountID); err != nil {
		return nil, err
	}
	if categoryID != nil {
		if err := checkCategoryOwnership(s.db, ownerID, *categoryID); err != nil {
			return nil, err
		}
	}
	if documentID != nil {
		if err := checkDocumentOwnership(s.db, ownerID, *documentID); err != nil {
			return nil, err
		}
	}
	tags, err := loadOwnerTags(s.db, ownerID, tagIDs)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		OwnerID:     ownerID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Notes:       notes,
		Date:        date,
		DocumentID:  documentID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(tags) > 0 {
			if err := tx.Model(transaction).Association("Tags").Append(tags); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return s.accountService.ApplyBalanceDelta(tx, accountID, signedEffect(transactionType, amount))
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetOwnerTransactions retrieves a paginated, filtered list of an owner's
// transactions across all accounts. Split parents are included so callers
// can render them; they carry no balance effect.
func (s *transactionService) GetOwnerTransactions(ownerID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("owner_id = ?", ownerID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Tags").
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of transactions
// for a specific account.
func (s *transactionService) GetAccountTransactions(ownerID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accountService.GetAccountByID(ownerID, accountID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("owner_id = ? AND account_id = ?", ownerID, accountID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Tags").
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific owner.
func (s *transactionService) GetTransactionByID(ownerID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Tags").
		Where("id = ? AND owner_id = ?", transactionID, ownerID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update. When amount, type, or account
// changes, the affected account balances are fully recalculated rather than
// patched; an account move recalculates both the old and the new account.
//
// Split parents only accept date, description, and notes changes: their
// amount is the sum of their children and they never carry a category or a
// direct balance effect. Split children cannot change type or account
// independently of their parent; an amount change re-sums the parent.
// Transfer legs cannot change type or move to another account, since the
// Transfer record pins the account pairing.
func (s *transactionService) UpdateTransaction(ownerID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(ownerID, transactionID)
	if err != nil {
		return nil, err
	}

	if fields.Amount != nil && *fields.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if fields.Description != nil && *fields.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description cannot be empty")
	}

	if transaction.IsParent {
		if fields.Amount != nil || fields.Type != nil || fields.AccountID != nil || fields.CategoryID != nil {
			return nil, apperrors.ErrSplitParentImmutable
		}
	}
	if transaction.ParentID != nil {
		if fields.Type != nil && *fields.Type != transaction.Type {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "split child type follows its parent")
		}
		if fields.AccountID != nil && *fields.AccountID != transaction.AccountID {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "split child account follows its parent")
		}
	}
	if transaction.Type == models.TransactionTypeTransfer {
		if fields.Type != nil && *fields.Type != models.TransactionTypeTransfer {
			return nil, apperrors.ErrInvalidTypeChange
		}
		if fields.AccountID != nil && *fields.AccountID != transaction.AccountID {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a transfer leg cannot move to another account")
		}
	} else if fields.Type != nil && *fields.Type == models.TransactionTypeTransfer {
		return nil, apperrors.ErrInvalidTypeChange
	}

	// Validate references before any write begins.
	oldAccountID := transaction.AccountID
	newAccountID := oldAccountID
	if fields.AccountID != nil && *fields.AccountID != oldAccountID {
		if _, err := s.accountService.GetAccountByID(ownerID, *fields.AccountID); err != nil {
			return nil, err
		}
		newAccountID = *fields.AccountID
	}
	if fields.CategoryID != nil {
		if err := checkCategoryOwnership(s.db, ownerID, *fields.CategoryID); err != nil {
			return nil, err
		}
	}
	var tags []models.Tag
	if fields.TagIDs != nil {
		tags, err = loadOwnerTags(s.db, ownerID, *fields.TagIDs)
		if err != nil {
			return nil, err
		}
	}

	updates := make(map[string]interface{})
	if fields.Date != nil {
		updates["date"] = *fields.Date
	}
	if fields.Amount != nil {
		updates["amount"] = *fields.Amount
	}
	if fields.Type != nil {
		updates["type"] = *fields.Type
	}
	if fields.AccountID != nil {
		updates["account_id"] = *fields.AccountID
	}
	if fields.CategoryID != nil {
		updates["category_id"] = *fields.CategoryID
	} else if fields.ClearCategory {
		updates["category_id"] = nil
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Notes != nil {
		updates["notes"] = *fields.Notes
	}

	amountChanged := fields.Amount != nil && *fields.Amount != transaction.Amount
	typeChanged := fields.Type != nil && *fields.Type != transaction.Type
	accountChanged := newAccountID != oldAccountID
	needsRecalc := amountChanged || typeChanged || accountChanged

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(transaction).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if fields.TagIDs != nil {
			if err := tx.Model(transaction).Association("Tags").Replace(tags); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if amountChanged && transaction.ParentID != nil {
			if err := resumSplitParent(tx, ownerID, *transaction.ParentID); err != nil {
				return err
			}
		}
		if needsRecalc {
			if _, err := recalculateBalance(tx, ownerID, oldAccountID); err != nil {
				return err
			}
			if accountChanged {
				if _, err := recalculateBalance(tx, ownerID, newAccountID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(ownerID, transactionID)
}

// resumSplitParent resets a split parent's amount to the sum of its live
// children, keeping the parent-equals-children invariant after a child edit.
func resumSplitParent(tx *gorm.DB, ownerID, parentID string) error {
	var sum int64
	if err := tx.Model(&models.Transaction{}).
		Where("owner_id = ? AND parent_id = ?", ownerID, parentID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Transaction{}).
		Where("id = ?", parentID).
		UpdateColumn("amount", sum).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteTransaction deletes a transaction and reverses its balance effect.
//
// Split parents cascade: every child (and its tag associations) is deleted in
// the same database transaction and the aggregate child effect is reversed
// once; the parent itself carries no direct effect. Transfer legs resolve
// their direction through the Transfer record, reverse only their own
// account's effect, delete the Transfer record, and convert the sibling leg
// into a regular transaction (credit leg becomes income, debit leg becomes
// expense) so no orphaned transfer rows remain. Regular rows simply reverse
// their creation effect.
func (s *transactionService) DeleteTransaction(ownerID, transactionID string) error {
	transaction, err := s.GetTransactionByID(ownerID, transactionID)
	if err != nil {
		return err
	}

	switch {
	case transaction.IsParent:
		return s.deleteSplitParent(ownerID, transaction)
	case transaction.Type == models.TransactionTypeTransfer:
		return s.deleteTransferLeg(ownerID, transaction)
	default:
		return s.deleteLeaf(ownerID, transaction)
	}
}

func (s *transactionService) deleteSplitParent(ownerID string, parent *models.Transaction) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Read the children inside the transaction so the reversed
		// aggregate matches exactly the rows being deleted.
		var children []models.Transaction
		if err := tx.Where("owner_id = ? AND parent_id = ?", ownerID, parent.ID).
			Find(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var aggregate int64
		childIDs := make([]string, 0, len(children))
		for _, child := range children {
			aggregate += signedEffect(child.Type, child.Amount)
			childIDs = append(childIDs, child.ID)
		}

		if len(childIDs) > 0 {
			if err := tx.Exec("DELETE FROM transaction_tags WHERE transaction_id IN ?", childIDs).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Where("id IN ?", childIDs).Delete(&models.Transaction{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Delete(parent).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if aggregate != 0 {
			return s.accountService.ApplyBalanceDelta(tx, parent.AccountID, -aggregate)
		}
		return nil
	})
}

func (s *transactionService) deleteTransferLeg(ownerID string, leg *models.Transaction) error {
	var transfer models.Transfer
	if err := s.db.Where("owner_id = ? AND (transaction_id = ? OR to_transaction_id = ?)", ownerID, leg.ID, leg.ID).
		First(&transfer).Error; err != nil {
		// A transfer leg without a Transfer record means the pairing
		// invariant is already broken; surface it rather than guessing.
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	isDebitLeg := transfer.TransactionID == leg.ID
	var reverseDelta int64
	var siblingID string
	var siblingType models.TransactionType
	if isDebitLeg {
		reverseDelta = leg.Amount // the debit leg subtracted on creation
		siblingID = transfer.ToTransactionID
		siblingType = models.TransactionTypeIncome
	} else {
		reverseDelta = -leg.Amount
		siblingID = transfer.TransactionID
		siblingType = models.TransactionTypeExpense
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(leg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// The sibling keeps its own balance effect; only its type changes.
		if err := tx.Model(&models.Transaction{}).
			Where("id = ? AND owner_id = ?", siblingID, ownerID).
			UpdateColumn("type", siblingType).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.accountService.ApplyBalanceDelta(tx, leg.AccountID, reverseDelta)
	})
}

func (s *transactionService) deleteLeaf(ownerID string, transaction *models.Transaction) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM transaction_tags WHERE transaction_id = ?", transaction.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if transaction.ParentID != nil {
			if err := resumSplitParent(tx, ownerID, *transaction.ParentID); err != nil {
				return err
			}
		}
		return s.accountService.ApplyBalanceDelta(tx, transaction.AccountID, -signedEffect(transaction.Type, transaction.Amount))
	})
}

// RecalculateBalance recomputes and persists an account's balance from its
// full transaction history.
func (s *transactionService) RecalculateBalance(ownerID, accountID string) (int64, error) {
	var balance int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = recalculateBalance(tx, ownerID, accountID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// checkCategoryOwnership verifies a category exists and belongs to the owner.
// A foreign category is reported as not found, never as forbidden.
func checkCategoryOwnership(db *gorm.DB, ownerID, categoryID string) error {
	var count int64
	if err := db.Model(&models.Category{}).
		Where("id = ? AND owner_id = ?", categoryID, ownerID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// checkDocumentOwnership verifies a document exists and belongs to the owner.
func checkDocumentOwnership(db *gorm.DB, ownerID, documentID string) error {
	var count int64
	if err := db.Model(&models.Document{}).
		Where("id = ? AND owner_id = ?", documentID, ownerID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}

// loadOwnerTags resolves tag IDs to rows, requiring every ID to exist and
// belong to the owner.
func loadOwnerTags(db *gorm.DB, ownerID string, tagIDs []string) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := db.Where("owner_id = ? AND id IN ?", ownerID, tagIDs).Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(tags) != len(tagIDs) {
		return nil, apperrors.ErrTagNotFound
	}
	return tags, nil
}
