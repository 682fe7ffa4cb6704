package services

import (
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestCreateSplit(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		food := testutil.CreateTestCategory(t, db, user.ID)
		household := testutil.CreateTestCategory(t, db, user.ID)

		parent, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 15000, "Supermarket run", "", time.Now(),
			[]SplitItem{
				{Amount: 10000, CategoryID: &food.ID, Description: "Food"},
				{Amount: 5000, CategoryID: &household.ID, Description: "Household"},
			})
		testutil.AssertNoError(t, err)

		if !parent.IsParent {
			t.Error("expected parent to be marked as split parent")
		}
		if parent.CategoryID != nil {
			t.Error("expected parent to carry no category")
		}
		if parent.Amount != 15000 {
			t.Errorf("expected parent amount 15000, got %d", parent.Amount)
		}
		if len(parent.Children) != 2 {
			t.Fatalf("expected 2 children, got %d", len(parent.Children))
		}
		for _, child := range parent.Children {
			if child.ParentID == nil || *child.ParentID != parent.ID {
				t.Errorf("expected child linked to parent, got %v", child.ParentID)
			}
		}

		// One aggregate effect, not one per child.
		if got := accountBalance(t, db, account.ID); got != -15000 {
			t.Errorf("expected balance -15000, got %d", got)
		}
	})

	t.Run("total_within_tolerance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		// Declared total off by one cent; the parent stores the exact item sum.
		parent, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 301, "Rounded total", "", time.Now(),
			[]SplitItem{{Amount: 100}, {Amount: 200}})
		testutil.AssertNoError(t, err)

		if parent.Amount != 300 {
			t.Errorf("expected parent amount 300, got %d", parent.Amount)
		}
		if got := accountBalance(t, db, account.ID); got != -300 {
			t.Errorf("expected balance -300, got %d", got)
		}
	})

	t.Run("sum_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 500, "Off", "", time.Now(),
			[]SplitItem{{Amount: 100}, {Amount: 200}})
		testutil.AssertAppError(t, err, "SPLIT_SUM_MISMATCH")

		if got := accountBalance(t, db, account.ID); got != 0 {
			t.Errorf("expected untouched balance, got %d", got)
		}
	})

	t.Run("no_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 300, "Empty", "", time.Now(), nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("non_positive_item", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 100, "Bad item", "", time.Now(),
			[]SplitItem{{Amount: 100}, {Amount: 0}})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("transfer_type_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeTransfer, 300, "No", "", time.Now(),
			[]SplitItem{{Amount: 300}})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("foreign_item_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)
		category := testutil.CreateTestCategory(t, db, user2.ID)

		_, err := svc.CreateSplit(user1.ID, account.ID,
			models.TransactionTypeExpense, 300, "Split", "", time.Now(),
			[]SplitItem{{Amount: 300, CategoryID: &category.ID}})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("child_inherits_parent_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		parent, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 300, "Supermarket run", "", time.Now(),
			[]SplitItem{{Amount: 300}})
		testutil.AssertNoError(t, err)

		if parent.Children[0].Description != "Supermarket run" {
			t.Errorf("expected inherited description, got %s", parent.Children[0].Description)
		}
	})
}

func TestGetSplitItems(t *testing.T) {
	t.Run("returns_children", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		parent, err := svc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 300, "Split", "", time.Now(),
			[]SplitItem{{Amount: 100}, {Amount: 200}})
		testutil.AssertNoError(t, err)

		children, err := svc.GetSplitItems(user.ID, parent.ID)
		testutil.AssertNoError(t, err)
		if len(children) != 2 {
			t.Fatalf("expected 2 children, got %d", len(children))
		}
	})

	t.Run("not_a_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 100)

		_, err := svc.GetSplitItems(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "NOT_SPLIT_PARENT")
	})

	t.Run("missing_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewSplitService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetSplitItems(user.ID, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
