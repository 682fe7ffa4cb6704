package services

import (
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestMonthlySummaries(t *testing.T) {
	t.Run("groups_by_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, accountSvc)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

		_, err := txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeIncome, 25000, "Salary", "", jan, nil, nil)
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeExpense, 10000, "Rent", "", jan, nil, nil)
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeExpense, 5000, "Groceries", "", feb, nil, nil)
		testutil.AssertNoError(t, err)

		summaries, err := svc.MonthlySummaries(user.ID, time.Time{}, time.Time{})
		testutil.AssertNoError(t, err)

		if len(summaries) != 2 {
			t.Fatalf("expected 2 months, got %d", len(summaries))
		}
		if summaries[0].Month != "2025-01" || summaries[1].Month != "2025-02" {
			t.Fatalf("expected chronological months, got %s then %s", summaries[0].Month, summaries[1].Month)
		}
		if summaries[0].Income != 25000 || summaries[0].Expense != 10000 || summaries[0].Net != 15000 {
			t.Errorf("unexpected January summary: %+v", summaries[0])
		}
		if summaries[1].Net != -5000 {
			t.Errorf("expected February net -5000, got %d", summaries[1].Net)
		}
	})

	t.Run("excludes_transfers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		transferSvc := NewTransferService(db, accountSvc)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, 10000)
		to := testutil.CreateTestAccount(t, db, user.ID)

		_, err := transferSvc.CreateTransfer(user.ID, from.ID, to.ID, 5000, "Move", "", time.Now())
		testutil.AssertNoError(t, err)

		summaries, err := svc.MonthlySummaries(user.ID, time.Time{}, time.Time{})
		testutil.AssertNoError(t, err)
		if len(summaries) != 0 {
			t.Errorf("expected transfers excluded, got %+v", summaries)
		}
	})

	t.Run("counts_split_children_not_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		splitSvc := NewSplitService(db, accountSvc)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := splitSvc.CreateSplit(user.ID, account.ID,
			models.TransactionTypeExpense, 300, "Split", "", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			[]SplitItem{{Amount: 100}, {Amount: 200}})
		testutil.AssertNoError(t, err)

		summaries, err := svc.MonthlySummaries(user.ID, time.Time{}, time.Time{})
		testutil.AssertNoError(t, err)
		if len(summaries) != 1 {
			t.Fatalf("expected 1 month, got %d", len(summaries))
		}
		// Parent excluded, children included once.
		if summaries[0].Expense != 300 {
			t.Errorf("expected expense 300, got %d", summaries[0].Expense)
		}
	})

	t.Run("date_range_bounds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, accountSvc)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeExpense, 100, "Early", "", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), nil, nil)
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeExpense, 200, "In range", "", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), nil, nil)
		testutil.AssertNoError(t, err)

		summaries, err := svc.MonthlySummaries(user.ID,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, err)
		if len(summaries) != 1 || summaries[0].Expense != 200 {
			t.Errorf("expected only the in-range expense, got %+v", summaries)
		}
	})
}

func TestCategoryBreakdown(t *testing.T) {
	t.Run("totals_and_percentages", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, accountSvc)
		categorySvc := NewCategoryService(db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		food, err := categorySvc.CreateCategory(user.ID, "Food", "", nil)
		testutil.AssertNoError(t, err)

		_, err = txSvc.CreateTransaction(user.ID, account.ID, &food.ID,
			models.TransactionTypeExpense, 750, "Groceries", "", time.Now(), nil, nil)
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeExpense, 250, "Mystery", "", time.Now(), nil, nil)
		testutil.AssertNoError(t, err)
		// Income must not leak into an expense breakdown.
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeIncome, 9999, "Salary", "", time.Now(), nil, nil)
		testutil.AssertNoError(t, err)

		summaries, err := svc.CategoryBreakdown(user.ID, models.TransactionTypeExpense, time.Time{}, time.Time{})
		testutil.AssertNoError(t, err)

		if len(summaries) != 2 {
			t.Fatalf("expected 2 buckets, got %d", len(summaries))
		}
		if summaries[0].CategoryName != "Food" || summaries[0].Total != 750 {
			t.Errorf("expected Food 750 first, got %+v", summaries[0])
		}
		if summaries[0].Percentage != 75 {
			t.Errorf("expected 75%%, got %f", summaries[0].Percentage)
		}
		if summaries[1].CategoryName != "Uncategorized" || summaries[1].Total != 250 {
			t.Errorf("expected Uncategorized 250, got %+v", summaries[1])
		}
		if summaries[1].CategoryID != nil {
			t.Error("expected nil category ID for the uncategorized bucket")
		}
	})

	t.Run("rejects_transfer_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CategoryBreakdown(user.ID, models.TransactionTypeTransfer, time.Time{}, time.Time{})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})
}

func TestCumulativeBalance(t *testing.T) {
	t.Run("running_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		txSvc := NewTransactionService(db, accountSvc)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
		mar := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

		_, err := txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeIncome, 1000, "Jan income", "", jan, nil, nil)
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeExpense, 400, "Feb expense", "", feb, nil, nil)
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(user.ID, account.ID, nil,
			models.TransactionTypeIncome, 200, "Mar income", "", mar, nil, nil)
		testutil.AssertNoError(t, err)

		balances, err := svc.CumulativeBalance(user.ID, time.Time{}, time.Time{})
		testutil.AssertNoError(t, err)

		if len(balances) != 3 {
			t.Fatalf("expected 3 months, got %d", len(balances))
		}
		expected := []struct {
			month      string
			net        int64
			cumulative int64
		}{
			{"2025-01", 1000, 1000},
			{"2025-02", -400, 600},
			{"2025-03", 200, 800},
		}
		for i, want := range expected {
			got := balances[i]
			if got.Month != want.month || got.Net != want.net || got.Cumulative != want.cumulative {
				t.Errorf("month %d: expected %+v, got %+v", i, want, got)
			}
		}
	})
}
