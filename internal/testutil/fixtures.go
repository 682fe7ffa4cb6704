package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a checking account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, ownerID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, ownerID, 0)
}

// CreateTestAccountWithBalance creates a checking account whose initial
// balance and cached balance are both set to balance (in cents).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, ownerID string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		OwnerID:        ownerID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Type:           models.AccountTypeChecking,
		Balance:        balance,
		InitialBalance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a top-level category.
func CreateTestCategory(t *testing.T, db *gorm.DB, ownerID string) *models.Category {
	t.Helper()
	return CreateTestChildCategory(t, db, ownerID, nil)
}

// CreateTestChildCategory creates a category under the given parent.
func CreateTestChildCategory(t *testing.T, db *gorm.DB, ownerID string, parentID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		OwnerID:  ownerID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		ParentID: parentID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTag creates a tag with a unique name.
func CreateTestTag(t *testing.T, db *gorm.DB, ownerID string) *models.Tag {
	t.Helper()

	tag := &models.Tag{
		OwnerID: ownerID,
		Name:    fmt.Sprintf("test-tag-%d", nextID()),
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

// CreateTestTransaction creates a transaction of the given type and amount
// (in cents). It writes the row directly; the account balance is not touched.
func CreateTestTransaction(t *testing.T, db *gorm.DB, ownerID, accountID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		OwnerID:     ownerID,
		AccountID:   accountID,
		Type:        txType,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestDocument creates a document metadata row.
func CreateTestDocument(t *testing.T, db *gorm.DB, ownerID string) *models.Document {
	t.Helper()

	n := nextID()
	doc := &models.Document{
		OwnerID:     ownerID,
		FileName:    fmt.Sprintf("receipt-%d.pdf", n),
		ContentType: "application/pdf",
		Size:        1024,
		StorageKey:  fmt.Sprintf("documents/%s/test-%d", ownerID, n),
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}
