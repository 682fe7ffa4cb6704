package services

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountUpdateFields holds optional account fields for partial updates.
// A change to InitialBalance shifts the balance baseline, so the cached
// balance is fully recomputed rather than patched.
type AccountUpdateFields struct {
	Name               *string
	Type               *models.AccountType
	InitialBalance     *int64
	InitialBalanceDate *time.Time
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ownerID, name string, accountType models.AccountType, initialBalance int64, initialBalanceDate *time.Time) (*models.Account, error)
	GetOwnerAccounts(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(ownerID, accountID string) (*models.Account, error)
	UpdateAccount(ownerID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(ownerID, accountID string) error
	ApplyBalanceDelta(tx *gorm.DB, accountID string, delta int64) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionUpdateFields holds optional transaction fields for partial
// updates. Changing Amount, Type, or AccountID triggers a full balance
// recalculation of every affected account.
type TransactionUpdateFields struct {
	Date          *time.Time
	Amount        *int64
	Type          *models.TransactionType
	AccountID     *string
	CategoryID    *string
	ClearCategory bool
	Description   *string
	Notes         *string
	TagIDs        *[]string
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	CreateTransaction(ownerID, accountID string, categoryID *string, transactionType models.TransactionType, amount int64, description, notes string, date time.Time, tagIDs []string, documentID *string) (*models.Transaction, error)
	GetOwnerTransactions(ownerID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(ownerID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ownerID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ownerID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(ownerID, transactionID string) error
	RecalculateBalance(ownerID, accountID string) (int64, error)
}

// TransferDetail bundles a transfer record with its two legs.
type TransferDetail struct {
	Transfer *models.Transfer    `json:"transfer"`
	FromLeg  *models.Transaction `json:"from_leg"`
	ToLeg    *models.Transaction `json:"to_leg"`
}

// TransferServicer defines the contract for the transfer coordinator.
type TransferServicer interface {
	CreateTransfer(ownerID, fromAccountID, toAccountID string, amount int64, description, notes string, date time.Time) (*TransferDetail, error)
	GetTransferByLeg(ownerID, transactionID string) (*TransferDetail, error)
}

// SplitItem is one categorized line of a split transaction.
type SplitItem struct {
	Amount      int64
	Description string
	CategoryID  *string
	Notes       string
	TagIDs      []string
}

// SplitServicer defines the contract for the split coordinator.
type SplitServicer interface {
	CreateSplit(ownerID, accountID string, transactionType models.TransactionType, totalAmount int64, description, notes string, date time.Time, items []SplitItem) (*models.Transaction, error)
	GetSplitItems(ownerID, parentID string) ([]models.Transaction, error)
}

// CategoryUpdateFields holds optional category fields for partial updates.
type CategoryUpdateFields struct {
	Name        *string
	Color       *string
	ParentID    *string
	ClearParent bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ownerID, name, color string, parentID *string) (*models.Category, error)
	GetOwnerCategories(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryHierarchy(ownerID string) ([]*models.CategoryNode, error)
	GetCategoryByID(ownerID, categoryID string) (*models.Category, error)
	UpdateCategory(ownerID, categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeleteCategory(ownerID, categoryID string, reassignTo *string) error
}

// TagServicer defines the contract for tag-related business logic.
type TagServicer interface {
	CreateTag(ownerID, name string) (*models.Tag, error)
	GetOwnerTags(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Tag], error)
	DeleteTag(ownerID, tagID string) error
	FindOrCreateTag(tx *gorm.DB, ownerID, name string) (*models.Tag, error)
}

// MonthlySummary is one month's income/expense/net totals.
type MonthlySummary struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Net     int64  `json:"net"`
}

// CategorySummary is one category's share of spending or income in a range.
type CategorySummary struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        int64   `json:"total"`
	Percentage   float64 `json:"percentage"`
}

// MonthlyBalance is one month's net change plus the running balance so far.
type MonthlyBalance struct {
	Month      string `json:"month"`
	Net        int64  `json:"net"`
	Cumulative int64  `json:"cumulative"`
}

// ReportServicer defines the read-side aggregation contract. All queries
// exclude transfer rows and split parents and assume the ledger invariants
// already hold.
type ReportServicer interface {
	MonthlySummaries(ownerID string, from, to time.Time) ([]MonthlySummary, error)
	CategoryBreakdown(ownerID string, transactionType models.TransactionType, from, to time.Time) ([]CategorySummary, error)
	CumulativeBalance(ownerID string, from, to time.Time) ([]MonthlyBalance, error)
}

// DocumentServicer defines the contract for uploaded source documents.
type DocumentServicer interface {
	UploadDocument(ctx context.Context, ownerID, fileName, contentType string, size int64, r io.Reader) (*models.Document, error)
	GetDocumentByID(ownerID, documentID string) (*models.Document, error)
	OpenDocument(ctx context.Context, ownerID, documentID string) (io.ReadCloser, *models.Document, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ownerID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
